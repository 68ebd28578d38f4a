package auth

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// AdminRegister creates an admin account. It is only enabled outside
// production; otherwise it reports not found so the route looks absent.
func (s *service) AdminRegister(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error) {
	if !s.adminRegister {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "not found")
	}
	return s.createUser(ctx, users.CreateUserDTO{
		Name:  req.Name,
		Email: req.Email,
		Role:  enums.RoleAdmin,
	}, req.Password)
}
