package service

import (
	"context"
	"testing"

	"pos-service/internal/models"
	"pos-service/internal/navigator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_AddItem(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "john@pos.com")
	ctx := context.Background()

	view, err := env.terminal.AddItem(ctx, s, "oreo-classic", 2)
	require.NoError(t, err)
	assert.Equal(t, "5.00", view.Total.StringFixed(2))

	_, err = env.terminal.AddItem(ctx, s, "no-such-item", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.terminal.AddItem(ctx, s, "oreo-classic", 0)
	assert.ErrorIs(t, err, models.ErrInvalidField)

	assert.Equal(t, []string{"Item Added", "Error", "Error"}, titles(s.DrainNotices()))
	assert.Equal(t, "5.00", s.Cart().Total.StringFixed(2))
}

func TestTerminal_SalesmanCannotBill(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "mike@pos.com")

	_, err := env.terminal.AddItem(context.Background(), s, "oreo-classic", 1)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.terminal.Checkout(context.Background(), s, models.PaymentCash, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestTerminal_CartEdits(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "admin@pos.com")
	ctx := context.Background()

	_, err := env.terminal.AddItem(ctx, s, "coke-330", 4)
	require.NoError(t, err)
	view, err := env.terminal.AddCustomItem(ctx, s, "Gift Wrap", money("0.75"), 2)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "6.50", view.Total.StringFixed(2))

	view, err = env.terminal.SetQuantity(ctx, s, "coke-330", 0)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Gift Wrap", view.Lines[0].ItemName)

	view, err = env.terminal.RemoveItem(ctx, s, view.Lines[0].ItemID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = env.terminal.AddItem(ctx, s, "coke-330", 1)
	require.NoError(t, err)
	view, err = env.terminal.ClearCart(ctx, s)
	require.NoError(t, err)
	assert.True(t, view.Total.IsZero())

	assert.Contains(t, titles(s.DrainNotices()), "Quick Item Added")
}

func TestTerminal_PauseAndResume(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "john@pos.com")
	ctx := context.Background()

	held := s.Cart().HeldBills
	require.Len(t, held, 1)
	assert.Equal(t, "25.98", held[0].Total.StringFixed(2))

	_, paused, err := env.terminal.PauseCart(ctx, s)
	require.NoError(t, err)
	assert.False(t, paused)

	_, err = env.terminal.AddItem(ctx, s, "hovis-white", 2)
	require.NoError(t, err)
	view, paused, err := env.terminal.PauseCart(ctx, s)
	require.NoError(t, err)
	assert.True(t, paused)
	assert.Empty(t, view.Lines)
	require.Len(t, view.HeldBills, 2)
	assert.Equal(t, "2", view.HeldBills[1].OwnerID)
	require.Len(t, env.publisher.paused, 1)

	view, err = env.terminal.ResumeBill(ctx, s, "1")
	require.NoError(t, err)
	assert.Equal(t, "25.98", view.Total.StringFixed(2))
	assert.Len(t, view.HeldBills, 1)
	assert.Equal(t, []string{"1"}, env.publisher.resumed)

	_, err = env.terminal.ResumeBill(ctx, s, "1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, []string{"Item Added", "Bill Paused", "Bill Resumed", "Error"}, titles(s.DrainNotices()))
}

func TestTerminal_HeldBillsArePerUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin@pos.com")
	assert.Empty(t, admin.Cart().HeldBills)
}

func TestTerminal_KeyboardFlow(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "john@pos.com")
	ctx := context.Background()

	var view TerminalView
	var err error
	for _, key := range []string{"Enter", "Enter", "ArrowRight", "5"} {
		view, err = env.terminal.HandleKey(ctx, s, key)
		require.NoError(t, err)
	}
	assert.Equal(t, navigator.LevelItems, view.Navigator.State.Level)
	assert.Equal(t, 5, view.Navigator.Pending["oreo-double"])

	view, err = env.terminal.HandleKey(ctx, s, "Enter")
	require.NoError(t, err)
	assert.Equal(t, navigator.LevelCategories, view.Navigator.State.Level)
	require.NotNil(t, view.Cart)
	require.Len(t, view.Cart.Lines, 1)
	assert.Equal(t, "oreo-double", view.Cart.Lines[0].ItemID)
	assert.Equal(t, 5, view.Cart.Lines[0].Quantity)
	assert.Equal(t, "16.00", view.Cart.Total.StringFixed(2))

	view, err = env.terminal.HandleKey(ctx, s, "F8")
	require.NoError(t, err)
	assert.Equal(t, navigator.CommandPauseCart, view.Command.Kind)
	assert.Empty(t, view.Cart.Lines)
	assert.Len(t, view.Cart.HeldBills, 2)

	view, err = env.terminal.HandleKey(ctx, s, "F1")
	require.NoError(t, err)
	assert.Equal(t, navigator.CommandNone, view.Command.Kind)
}

func TestTerminal_Navigate(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "john@pos.com")
	ctx := context.Background()

	view, err := env.terminal.Navigate(ctx, s, NavAction{Action: NavEnterCategory, ID: "cat-dairy"})
	require.NoError(t, err)
	assert.Equal(t, navigator.LevelBrands, view.Navigator.State.Level)

	view, err = env.terminal.Navigate(ctx, s, NavAction{Action: NavSearch, Search: "PRES"})
	require.NoError(t, err)
	require.Len(t, view.Navigator.Entries, 1)
	assert.Equal(t, "br-president", view.Navigator.Entries[0].ID)

	_, err = env.terminal.Navigate(ctx, s, NavAction{Action: NavActivate})
	require.NoError(t, err)
	_, err = env.terminal.Navigate(ctx, s, NavAction{Action: NavSetPending, ID: "pres-butter", Quantity: 3})
	require.NoError(t, err)
	_, err = env.terminal.Navigate(ctx, s, NavAction{Action: NavMove, Delta: 1})
	require.NoError(t, err)
	view, err = env.terminal.Navigate(ctx, s, NavAction{Action: NavActivate})
	require.NoError(t, err)
	assert.Equal(t, "9.60", view.Cart.Total.StringFixed(2))

	_, err = env.terminal.Navigate(ctx, s, NavAction{Action: NavEnterBrand, ID: "br-arla"})
	assert.ErrorIs(t, err, navigator.ErrWrongLevel)

	_, err = env.terminal.Navigate(ctx, s, NavAction{Action: "jump"})
	assert.ErrorIs(t, err, models.ErrInvalidField)
}

func TestTerminal_Checkout(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "john@pos.com")
	ctx := context.Background()

	_, err := env.terminal.Checkout(ctx, s, models.PaymentCash, nil)
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	_, err = env.terminal.AddItem(ctx, s, "oreo-classic", 2)
	require.NoError(t, err)
	_, err = env.terminal.Checkout(ctx, s, "cheque", nil)
	assert.ErrorIs(t, err, models.ErrInvalidField)
	assert.Len(t, s.Cart().Lines, 1)

	receipt, err := env.terminal.Checkout(ctx, s, models.PaymentCard, &models.Customer{Name: " Jane "})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240815-1723744800000", receipt.InvoiceID)
	assert.Equal(t, "5.00", receipt.Total.StringFixed(2))
	assert.Equal(t, "2", receipt.CashierID)
	require.NotNil(t, receipt.Customer)
	assert.Equal(t, "Jane", receipt.Customer.Name)
	assert.Empty(t, s.Cart().Lines)

	sales, err := env.history.All(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 4)
	require.Len(t, env.publisher.sales, 1)
	assert.Equal(t, receipt.InvoiceID, env.publisher.sales[0].InvoiceID)

	msgs := s.DrainNotices()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "Payment Processed", last.Title)
	assert.Equal(t, "Invoice INV-20240815-1723744800000 - $5.00", last.Description)
}

func TestTerminal_SalesmanDraftsRequests(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "mike@pos.com")
	ctx := context.Background()

	var view TerminalView
	var err error
	for _, key := range []string{"Enter", "Enter", "+", "Enter"} {
		view, err = env.terminal.HandleKey(ctx, s, key)
		require.NoError(t, err)
	}
	assert.Nil(t, view.Cart)
	require.Len(t, view.Navigator.Draft, 1)
	assert.Equal(t, "oreo-classic", view.Navigator.Draft[0].ItemID)
	assert.Equal(t, 2, view.Navigator.Draft[0].Quantity)

	_, _, err = env.terminal.PauseCart(ctx, s)
	assert.ErrorIs(t, err, models.ErrForbidden)

	req, err := env.requests.SubmitDraft(ctx, s, "weekend stock")
	require.NoError(t, err)
	assert.Equal(t, "3", req.SalesmanID)
	require.Len(t, req.Items, 1)
	assert.Equal(t, "Oreo Cookies", req.Items[0].ItemName)
	assert.Empty(t, s.Navigator().Draft)

	_, err = env.requests.SubmitDraft(ctx, s, "")
	assert.ErrorIs(t, err, models.ErrInvalidField)

	cashier := env.login(t, "john@pos.com")
	_, err = env.requests.SubmitDraft(ctx, cashier, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}
