package service

import (
	"context"
	"sync/atomic"
	"time"

	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuditLogResponse struct {
	ID          string           `json:"id"`
	Action      model.LogAction  `json:"action"`
	ItemID      string           `json:"item_id"`
	ItemName    string           `json:"item_name"`
	ReferenceID string           `json:"reference_id,omitempty"`
	UserID      string           `json:"user_id"`
	Username    string           `json:"username"`
	Details     model.LogDetails `json:"details"`
	CreatedAt   string           `json:"created_at"`
}

type AuditQuery struct {
	ItemID      string
	ReferenceID string
	Action      string
	Page        int
	Limit       int
}

// AuditLog records inventory mutations after they commit. Recording is best
// effort: a failed append is logged and counted but never reaches the caller
// of the business operation.
type AuditLog struct {
	repo     repository.AuditRepository
	failures atomic.Int64
}

func NewAuditLog(repo repository.AuditRepository) *AuditLog {
	return &AuditLog{repo: repo}
}

// Append writes entry as is
func (a *AuditLog) Append(ctx context.Context, entry *model.InventoryLog) error {
	if !entry.Action.Valid() {
		return newError(KindInvalidRequest, "unknown audit action %q", entry.Action)
	}
	if err := a.repo.Append(ctx, entry); err != nil {
		return storeError("append audit entry", err)
	}
	return nil
}

// Record builds an entry for item and appends it. It runs on a context
// detached from ctx's cancellation since the mutation it describes has
// already committed.
func (a *AuditLog) Record(ctx context.Context, item *model.Item, referenceID, userID *uuid.UUID, details model.LogDetails) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	raw, err := model.EncodeDetails(details)
	if err != nil {
		a.fail(err, item.ID, details)
		return
	}

	entry := &model.InventoryLog{
		Action:      details.Kind(),
		ItemID:      item.ID,
		ItemName:    item.Name,
		ReferenceID: referenceID,
		UserID:      userID,
		Details:     raw,
	}
	if err := a.Append(ctx, entry); err != nil {
		a.fail(err, item.ID, details)
	}
}

func (a *AuditLog) fail(err error, itemID uuid.UUID, details model.LogDetails) {
	a.failures.Add(1)
	log.Warn().Err(err).
		Str("item_id", itemID.String()).
		Str("action", string(details.Kind())).
		Msg("failed to write inventory log")
}

// Failures is the number of entries dropped since start
func (a *AuditLog) Failures() int64 {
	return a.failures.Load()
}

// List returns entries newest first with their details decoded
func (a *AuditLog) List(ctx context.Context, q AuditQuery) ([]AuditLogResponse, int64, error) {
	filter := repository.AuditFilter{Page: q.Page, Limit: q.Limit}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if q.ItemID != "" {
		id, err := uuid.Parse(q.ItemID)
		if err != nil {
			return nil, 0, newError(KindInvalidRequest, "invalid item id %q", q.ItemID)
		}
		filter.ItemID = &id
	}
	if q.ReferenceID != "" {
		id, err := uuid.Parse(q.ReferenceID)
		if err != nil {
			return nil, 0, newError(KindInvalidRequest, "invalid reference id %q", q.ReferenceID)
		}
		filter.ReferenceID = &id
	}
	if q.Action != "" {
		filter.Action = model.LogAction(q.Action)
		if !filter.Action.Valid() {
			return nil, 0, newError(KindInvalidRequest, "unknown action %q", q.Action)
		}
	}

	logs, total, err := a.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storeError("list audit entries", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		referenceID := ""
		if l.ReferenceID != nil {
			referenceID = l.ReferenceID.String()
		}

		details, err := l.DecodedDetails()
		if err != nil {
			log.Warn().Err(err).Str("log_id", l.ID.String()).Msg("undecodable inventory log details")
		}

		res = append(res, AuditLogResponse{
			ID:          l.ID.String(),
			Action:      l.Action,
			ItemID:      l.ItemID.String(),
			ItemName:    l.ItemName,
			ReferenceID: referenceID,
			UserID:      userID,
			Username:    username,
			Details:     details,
			CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
