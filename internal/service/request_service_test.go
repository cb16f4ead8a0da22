package service

import (
	"context"
	"testing"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestService_ListVisibility(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)
	other, _ := caller("9", models.RoleSalesman)
	cashier, _ := caller("2", models.RoleCashier)

	all, err := env.requests.List(admin, RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)

	pending, err := env.requests.List(admin, RequestFilter{Status: models.RequestPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	byItem, err := env.requests.List(admin, RequestFilter{Search: "smartphone case"})
	require.NoError(t, err)
	require.Len(t, byItem, 1)
	assert.Equal(t, "2", byItem[0].ID)

	mine, err := env.requests.List(other, RequestFilter{SalesmanID: "3"})
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = env.requests.List(cashier, RequestFilter{})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestRequestService_ProcessIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	admin, rec := caller("1", models.RoleAdmin)
	ctx := context.Background()

	req, err := env.requests.Process(ctx, admin, "1", models.RequestApproved, " Ordered ")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, req.Status)
	assert.Equal(t, "Ordered", req.AdminResponse)
	assert.Equal(t, "1", req.ProcessedBy)
	require.NotNil(t, req.ProcessedAt)
	assert.Equal(t, testNow, *req.ProcessedAt)
	require.Len(t, env.publisher.processed, 1)
	assert.Equal(t, "Request Approved", rec.Messages()[0].Title)

	_, err = env.requests.Process(ctx, admin, "1", models.RequestRejected, "")
	assert.ErrorIs(t, err, models.ErrRequestProcessed)
	_, err = env.requests.Process(ctx, admin, "2", models.RequestRejected, "")
	assert.ErrorIs(t, err, models.ErrRequestProcessed)

	stored, err := env.requests.Get("1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, stored.Status)
	assert.Len(t, env.publisher.processed, 1)

	_, err = env.requests.Process(ctx, admin, "1", models.RequestPending, "")
	assert.ErrorIs(t, err, models.ErrInvalidField)
}

func TestRequestService_UpdateItem(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)
	ctx := context.Background()
	qty := 60
	price := money("17.50")

	req, err := env.requests.UpdateItem(ctx, admin, "1", 0, ItemEdit{Quantity: &qty, SuggestedPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 60, req.Items[0].Quantity)
	assert.Equal(t, "1050.00", req.Total().StringFixed(2))

	zero := 0
	_, err = env.requests.UpdateItem(ctx, admin, "1", 0, ItemEdit{Quantity: &zero})
	assert.ErrorIs(t, err, models.ErrInvalidField)

	_, err = env.requests.UpdateItem(ctx, admin, "1", 5, ItemEdit{Quantity: &qty})
	assert.ErrorIs(t, err, models.ErrInvalidField)

	_, err = env.requests.UpdateItem(ctx, admin, "2", 0, ItemEdit{Quantity: &qty})
	assert.ErrorIs(t, err, models.ErrRequestProcessed)
}

func TestRequestService_Submit(t *testing.T) {
	env := newTestEnv(t)
	salesman, _ := caller("3", models.RoleSalesman)
	cashier, _ := caller("2", models.RoleCashier)
	ctx := context.Background()

	_, err := env.requests.Submit(ctx, salesman, nil, "nothing")
	assert.ErrorIs(t, err, models.ErrInvalidField)

	items := []models.RequestedItem{{ItemID: "7", ItemName: "Green Tea Box", Quantity: 12}}
	_, err = env.requests.Submit(ctx, cashier, items, "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	req, err := env.requests.Submit(ctx, salesman, items, " Running low ")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, "3", req.SalesmanID)
	assert.Equal(t, "Running low", req.Message)

	mine, err := env.requests.List(salesman, RequestFilter{Status: models.RequestPending})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	admin, _ := caller("1", models.RoleAdmin)
	require.NoError(t, env.requests.Delete(ctx, admin, req.ID))
	_, err = env.requests.Get(req.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
