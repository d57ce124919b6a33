package service

import (
	"context"
	"strings"

	"retailpos/internal/model"
	"retailpos/internal/repository"
)

type CreateBranchRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
}

type BranchService interface {
	ListBranches(ctx context.Context) ([]model.Branch, error)
	CreateBranch(ctx context.Context, req CreateBranchRequest) (*model.Branch, error)
}

type branchService struct {
	store repository.InventoryStore
}

func NewBranchService(store repository.InventoryStore) BranchService {
	return &branchService{store: store}
}

func (s *branchService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	branches, err := s.store.ListBranches(ctx)
	if err != nil {
		return nil, storeError("list branches", err)
	}
	return branches, nil
}

func (s *branchService) CreateBranch(ctx context.Context, req CreateBranchRequest) (*model.Branch, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(KindInvalidRequest, "branch name is required")
	}
	branch := &model.Branch{Name: name, Location: req.Location, Phone: req.Phone}
	if err := s.store.CreateBranch(ctx, branch); err != nil {
		return nil, storeError("create branch", err)
	}
	return branch, nil
}
