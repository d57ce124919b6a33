package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestNewSeededLoadsEveryRow(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	s := NewSeeded()
	ctx := context.Background()

	if buf.Len() != 0 {
		t.Fatalf("seeding logged failures: %s", buf.String())
	}
	branches, err := s.ListBranches(ctx)
	if err != nil || len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d (%v)", len(branches), err)
	}
	_, total, err := s.ListItems(ctx, &SeedMainBranchID, 1, 20)
	if err != nil || total != 4 {
		t.Fatalf("expected 4 items in the main branch, got %d (%v)", total, err)
	}
	if _, err := s.FindCustomerByPhone(ctx, "0800111222"); err != nil {
		t.Fatalf("seeded customer: %v", err)
	}
}

func TestSeedFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	s := NewSeeded()
	// seeding the same store again collides on every unique key
	seedInto(s)

	if !bytes.Contains(buf.Bytes(), []byte("seed item failed")) || !bytes.Contains(buf.Bytes(), []byte("seed customer failed")) {
		t.Fatalf("expected duplicate seed rows to be logged, got %s", buf.String())
	}
}
