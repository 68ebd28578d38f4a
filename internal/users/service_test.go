package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type stubRevoker struct {
	revoked []string
	err     error
}

func (s *stubRevoker) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return s.err
}

func newTestService(t *testing.T) (Service, Repository, *stubRevoker) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	revoker := &stubRevoker{}
	svc, err := NewService(repo, revoker, logger.Nop())
	require.NoError(t, err)
	return svc, repo, revoker
}

func seedUser(t *testing.T, repo Repository, email string, role enums.Role) *UserDTO {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Name:         "Ada Lovelace",
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	})
	require.NoError(t, err)
	return FromModel(user)
}

func strPtr(v string) *string { return &v }

func TestUpdateMeChangesNameAndPhone(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "ada@example.com", enums.RoleUser)

	updated, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{
		Name:  strPtr("  Ada King "),
		Phone: strPtr("+14155550100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+14155550100", *updated.Phone)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.Equal(t, enums.RoleUser, updated.Role)
}

func TestUpdateMeRejectsBlankNameAndBadPhone(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := seedUser(t, repo, "ada@example.com", enums.RoleUser)

	_, err := svc.UpdateMe(context.Background(), user.ID, UpdateProfileInput{
		Name:  strPtr("   "),
		Phone: strPtr("555-0100"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "phone")

	me, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", me.Name)
}

func TestDeleteMeRevokesSession(t *testing.T) {
	svc, repo, revoker := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "ada@example.com", enums.RoleUser)

	require.NoError(t, svc.DeleteMe(ctx, user.ID, "jti-1"))
	assert.Equal(t, []string{"jti-1"}, revoker.revoked)

	_, err := svc.Me(ctx, user.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.DeleteMe(ctx, user.ID, "jti-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteMeKeepsCartOrdersAndRatings(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, &stubRevoker{}, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	user := seedUser(t, repo, "ada@example.com", enums.RoleUser)

	conn := client.DB()
	require.NoError(t, conn.Create(&models.Cart{
		UserID: user.ID,
		Items:  datatypes.JSONSlice[models.CartLine]{{ProductID: uuid.New(), Quantity: 2}},
	}).Error)
	require.NoError(t, conn.Create(&models.Order{
		UserID:        user.ID,
		Items:         datatypes.JSONSlice[models.OrderItem]{{ProductID: uuid.New(), Quantity: 1}},
		Status:        enums.OrderStatusPending,
		TotalAmount:   decimal.NewFromInt(20),
		PaymentMethod: "card",
		PlacedAt:      time.Now().UTC(),
	}).Error)
	require.NoError(t, conn.Create(&models.Rating{UserID: user.ID, ProductID: uuid.New(), Rating: 4}).Error)

	require.NoError(t, svc.DeleteMe(ctx, user.ID, "jti-1"))

	for _, model := range []any{&models.Cart{}, &models.Order{}, &models.Rating{}} {
		var count int64
		require.NoError(t, conn.Model(model).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count, "%T rows for deleted user", model)
	}
}

func TestDeleteMeIgnoresRevokeFailure(t *testing.T) {
	svc, repo, revoker := newTestService(t)
	revoker.err = errors.New("redis down")
	user := seedUser(t, repo, "ada@example.com", enums.RoleUser)

	require.NoError(t, svc.DeleteMe(context.Background(), user.ID, "jti-1"))
}

func TestListRequiresAdminAndSkipsAdmins(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, repo, "admin@example.com", enums.RoleAdmin)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		seedUser(t, repo, email, enums.RoleUser)
		time.Sleep(2 * time.Millisecond)
	}

	_, err := svc.List(ctx, enums.RoleUser, ListParams{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	page, err := svc.List(ctx, enums.RoleAdmin, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c@example.com", page.Items[0].Email)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.List(ctx, enums.RoleAdmin, ListParams{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "a@example.com", next.Items[0].Email)
	assert.Empty(t, next.NextCursor)
}

func TestRepositoryLastLogin(t *testing.T) {
	_, repo, _ := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "ada@example.com", enums.RoleUser)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	loaded, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLoginAt)
	assert.True(t, at.Equal(*loaded.LastLoginAt))

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
