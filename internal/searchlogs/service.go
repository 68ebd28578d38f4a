package searchlogs

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxQueryLength = 200

// Service records catalog searches and lists them for admins.
type Service interface {
	Record(ctx context.Context, input RecordInput) error
	List(ctx context.Context, role enums.Role, params ListParams) (*pagination.Page[SearchLogDTO], error)
}

type RecordInput struct {
	UserID  *uuid.UUID
	Query   string
	Filters map[string]any
}

type ListParams struct {
	Limit  int
	Cursor string
	Query  string
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "search log repository required")
	}
	return &service{repo: repo}, nil
}

// Record stores one search. Blank queries are ignored.
func (s *service) Record(ctx context.Context, input RecordInput) error {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil
	}
	if len(query) > maxQueryLength {
		query = query[:maxQueryLength]
	}
	entry := &models.SearchLog{
		UserID:         input.UserID,
		Query:          query,
		FiltersApplied: datatypes.JSONMap(input.Filters),
	}
	if entry.FiltersApplied == nil {
		entry.FiltersApplied = datatypes.JSONMap{}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record search")
	}
	return nil
}

func (s *service) List(ctx context.Context, role enums.Role, params ListParams) (*pagination.Page[SearchLogDTO], error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, strings.ToLower(strings.TrimSpace(params.Query)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list search logs")
	}
	page := pagination.Build(rows, params.Limit, func(l models.SearchLog) pagination.Cursor {
		return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})
	out := pagination.Page[SearchLogDTO]{Items: make([]SearchLogDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, l := range page.Items {
		out.Items = append(out.Items, mapSearchLog(l))
	}
	return &out, nil
}
