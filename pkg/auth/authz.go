package auth

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// RequireAdmin fails with FORBIDDEN unless role is admin. Services call it
// before looking at their input.
func RequireAdmin(role enums.Role) error {
	if !role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return nil
}
