package service

import (
	"context"
	"testing"

	"pos-service/internal/models"
	"pos-service/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_AddRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	admin, rec := caller("1", models.RoleAdmin)
	before := env.users.Count()

	_, err := env.users.Add(context.Background(), admin, models.User{
		Name:  "Second Admin",
		Email: "ADMIN@pos.com",
		Role:  models.RoleAdmin,
	})

	assert.ErrorIs(t, err, models.ErrDuplicateKey)
	assert.Equal(t, before, env.users.Count())
	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Email already exists", msgs[0].Description)
	assert.Equal(t, notify.SeverityDestructive, msgs[0].Severity)
}

func TestUserService_Add(t *testing.T) {
	env := newTestEnv(t)
	admin, rec := caller("1", models.RoleAdmin)

	u, err := env.users.Add(context.Background(), admin, models.User{
		Name:     " Jane Cashier ",
		Email:    "jane@pos.com",
		Role:     models.RoleCashier,
		IsActive: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Cashier", u.Name)
	assert.Contains(t, u.ID, "user-")
	assert.Equal(t, 5, env.users.Count())
	assert.Equal(t, "Jane Cashier has been added as cashier", rec.Messages()[0].Description)

	found, ok := env.users.FindActiveByEmail("jane@pos.com")
	require.True(t, ok)
	assert.Equal(t, u.ID, found.ID)
}

func TestUserService_AddValidation(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)

	tests := []struct {
		name  string
		user  models.User
		field string
	}{
		{"missing name", models.User{Email: "x@pos.com", Role: models.RoleCashier}, "name"},
		{"bad email", models.User{Name: "X", Email: "nope", Role: models.RoleCashier}, "email"},
		{"unknown role", models.User{Name: "X", Email: "x@pos.com", Role: "owner"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Add(context.Background(), admin, tt.user)
			var fe *models.InvalidFieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
	assert.Equal(t, 4, env.users.Count())
}

func TestUserService_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	cashier, _ := caller("2", models.RoleCashier)

	_, err := env.users.List(cashier, UserFilter{})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = env.users.Add(context.Background(), cashier, models.User{Name: "X", Email: "x@pos.com", Role: models.RoleCashier})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserService_ListAndCounts(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)

	cashiers, err := env.users.List(admin, UserFilter{Role: models.RoleCashier})
	require.NoError(t, err)
	assert.Len(t, cashiers, 2)

	found, err := env.users.List(admin, UserFilter{Search: "MIKE"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "3", found[0].ID)

	counts, err := env.users.Counts(admin)
	require.NoError(t, err)
	assert.Equal(t, RoleCounts{Total: 4, Admin: 1, Cashier: 2, Salesman: 1, Active: 3, Inactive: 1}, counts)
}

func TestUserService_UpdateToggleDelete(t *testing.T) {
	env := newTestEnv(t)
	admin, rec := caller("1", models.RoleAdmin)
	ctx := context.Background()
	original, err := env.users.Get("2")
	require.NoError(t, err)

	updated, err := env.users.Update(ctx, admin, models.User{
		ID: "2", Name: "John C.", Email: "john@pos.com", Role: models.RoleCashier, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)

	_, err = env.users.Update(ctx, admin, models.User{ID: "2", Name: "John", Email: "mike@pos.com", Role: models.RoleCashier})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	toggled, err := env.users.ToggleActive(ctx, admin, "4")
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
	_, ok := env.users.FindActiveByEmail("sarah@pos.com")
	assert.True(t, ok)

	require.NoError(t, env.users.Delete(ctx, admin, "4"))
	assert.ErrorIs(t, env.users.Delete(ctx, admin, "4"), models.ErrNotFound)
	assert.Equal(t, "Unknown Cashier", env.users.Name("4"))
	assert.Contains(t, titles(rec.Messages()), "Status Updated")
}
