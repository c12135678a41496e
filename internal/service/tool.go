package service

import (
	"context"
	"time"

	"github.com/growtools/backend/internal/domain"
)

// ToolService manages the tool catalog.
type ToolService struct {
	tools ToolStore
}

// NewToolService creates a new ToolService.
func NewToolService(tools ToolStore) *ToolService {
	return &ToolService{tools: tools}
}

// List returns the public catalog view of every tool.
func (s *ToolService) List(ctx context.Context) ([]*domain.ToolResponse, error) {
	tools, err := s.tools.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list tools", err)
	}
	out := make([]*domain.ToolResponse, len(tools))
	for i, t := range tools {
		out[i] = t.Public()
	}
	return out, nil
}

// Get returns the public view of one tool.
func (s *ToolService) Get(ctx context.Context, id string) (*domain.ToolResponse, error) {
	tool, err := s.tools.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to load tool", err)
	}
	if tool == nil {
		return nil, domain.ErrNotFound("tool not found")
	}
	return tool.Public(), nil
}

// GetFull returns the full tool row, including cookie freshness metadata.
// Admin surfaces only.
func (s *ToolService) GetFull(ctx context.Context, id string) (*domain.Tool, error) {
	tool, err := s.tools.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to load tool", err)
	}
	if tool == nil {
		return nil, domain.ErrNotFound("tool not found")
	}
	return tool, nil
}

// Create adds a new tool to the catalog.
func (s *ToolService) Create(ctx context.Context, req *domain.CreateToolRequest) (*domain.ToolResponse, error) {
	now := time.Now()
	tool := &domain.Tool{
		ID:           domain.NewID(),
		Name:         req.Name,
		Slug:         req.Slug,
		URL:          req.URL,
		Description:  req.Description,
		PriceShared:  req.PriceShared,
		PricePrivate: req.PricePrivate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, domain.ErrInternal("failed to create tool", err)
	}
	return tool.Public(), nil
}

// Update applies a partial update to a tool.
func (s *ToolService) Update(ctx context.Context, id string, req *domain.UpdateToolRequest) (*domain.ToolResponse, error) {
	tool, err := s.tools.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to load tool", err)
	}
	if tool == nil {
		return nil, domain.ErrNotFound("tool not found")
	}

	if req.Name != "" {
		tool.Name = req.Name
	}
	if req.URL != "" {
		tool.URL = req.URL
	}
	if req.Description != "" {
		tool.Description = req.Description
	}
	if req.PriceShared != nil {
		tool.PriceShared = *req.PriceShared
	}
	if req.PricePrivate != nil {
		tool.PricePrivate = *req.PricePrivate
	}
	tool.UpdatedAt = time.Now()

	if err := s.tools.Update(ctx, tool); err != nil {
		return nil, domain.ErrInternal("failed to update tool", err)
	}
	return tool.Public(), nil
}
