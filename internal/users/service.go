package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service covers the self-service profile endpoints and the admin user list.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	DeleteMe(ctx context.Context, userID uuid.UUID, accessID string) error
	List(ctx context.Context, role enums.Role, params ListParams) (*pagination.Page[UserDTO], error)
}

type sessionRevoker interface {
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	repo     Repository
	sessions sessionRevoker
	validate *validator.Validate
	logg     *logger.Logger
}

func NewService(repo Repository, sessions sessionRevoker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session revoker required")
	}
	return &service{repo: repo, sessions: sessions, validate: validator.New(), logg: logg}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "user not found", "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	updates := map[string]any{}
	details := map[string]string{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			details["name"] = "must not be blank"
		} else {
			updates["name"] = name
		}
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		switch {
		case phone == "":
			updates["phone"] = nil
		case s.validate.Var(phone, "e164") != nil:
			details["phone"] = "must be a valid E.164 phone number"
		default:
			updates["phone"] = phone
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			return nil, pkgerrors.FromStore(err, "user not found", "update user")
		}
	}
	return s.Me(ctx, userID)
}

// DeleteMe removes the account and ends the caller's session. Orders, carts
// and ratings are left in place.
func (s *service) DeleteMe(ctx context.Context, userID uuid.UUID, accessID string) error {
	deleted, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "revoke session after account deletion", err)
	}
	return nil
}

func (s *service) List(ctx context.Context, role enums.Role, params ListParams) (*pagination.Page[UserDTO], error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByRole(ctx, enums.RoleUser, pagination.Params{Limit: limit, Cursor: params.Cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	page := pagination.Build(dtos, limit, func(u UserDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	return &page, nil
}
