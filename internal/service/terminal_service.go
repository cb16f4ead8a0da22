package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-service/internal/catalog"
	"pos-service/internal/models"
	"pos-service/internal/navigator"
	"pos-service/internal/notify"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Navigation actions accepted by Navigate
const (
	NavEnterCategory = "enter_category"
	NavEnterBrand    = "enter_brand"
	NavBack          = "back"
	NavHome          = "home"
	NavSearch        = "search"
	NavMove          = "move"
	NavActivate      = "activate"
	NavSetPending    = "set_pending"
	NavIncrement     = "increment"
	NavDecrement     = "decrement"
)

// NavAction is one navigator operation
type NavAction struct {
	Action   string `json:"action" binding:"required"`
	ID       string `json:"id"`
	Search   string `json:"search"`
	Delta    int    `json:"delta"`
	Quantity int    `json:"quantity"`
}

// TerminalView is the state of a session after a terminal operation
type TerminalView struct {
	Command   navigator.Command `json:"command"`
	Cart      *CartView         `json:"cart,omitempty"`
	Navigator NavigatorView     `json:"navigator"`
}

// TerminalService runs the billing terminal of a session: cart, navigator
// and checkout
type TerminalService struct {
	catalog   *catalog.Index
	history   SaleHistory
	publisher EventPublisher
	logger    *zap.Logger
}

// NewTerminalService creates the terminal over a catalog and sale history
func NewTerminalService(index *catalog.Index, history SaleHistory, publisher EventPublisher) *TerminalService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &TerminalService{
		catalog:   index,
		history:   history,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

var billingRoles = []models.Role{models.RoleCashier, models.RoleAdmin}

var browsingRoles = []models.Role{models.RoleCashier, models.RoleAdmin, models.RoleSalesman}

// AddItem adds quantity units of a catalog item to the cart
func (t *TerminalService) AddItem(ctx context.Context, s *Session, itemID string, quantity int) (CartView, error) {
	_, span := util.StartSessionSpan(ctx, "TerminalService.AddItem", s.ID)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.Caller()
	if err := c.require("add item", billingRoles...); err != nil {
		return CartView{}, err
	}
	item, ok := t.catalog.Item(itemID)
	if !ok {
		return CartView{}, c.fail(fmt.Errorf("item %s: %w", itemID, models.ErrNotFound))
	}
	if err := s.cart.AddItem(item, quantity); err != nil {
		return CartView{}, c.fail(err)
	}
	util.CartItemsAddedTotal.WithLabelValues("catalog").Inc()
	c.notify(notify.Success("Item Added", fmt.Sprintf("%s added to bill", item.Name)))
	return s.cartView(), nil
}

// AddCustomItem adds an ad-hoc line that is not in the catalog
func (t *TerminalService) AddCustomItem(ctx context.Context, s *Session, name string, price decimal.Decimal, quantity int) (CartView, error) {
	_, span := util.StartSessionSpan(ctx, "TerminalService.AddCustomItem", s.ID)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.Caller()
	if err := c.require("add custom item", billingRoles...); err != nil {
		return CartView{}, err
	}
	id, err := s.cart.AddCustomItem(name, price, quantity)
	if err != nil {
		return CartView{}, c.fail(err)
	}
	var added string
	for _, l := range s.cart.Lines() {
		if l.ItemID == id {
			added = l.ItemName
		}
	}
	util.CartItemsAddedTotal.WithLabelValues("quick").Inc()
	c.notify(notify.Success("Quick Item Added", fmt.Sprintf("%s added to bill", added)))
	return s.cartView(), nil
}

// SetQuantity sets the quantity of a line; zero or less removes it
func (t *TerminalService) SetQuantity(ctx context.Context, s *Session, itemID string, quantity int) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Caller().require("set quantity", billingRoles...); err != nil {
		return CartView{}, err
	}
	s.cart.SetQuantity(itemID, quantity)
	return s.cartView(), nil
}

// RemoveItem drops a line from the cart
func (t *TerminalService) RemoveItem(ctx context.Context, s *Session, itemID string) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Caller().require("remove item", billingRoles...); err != nil {
		return CartView{}, err
	}
	s.cart.RemoveItem(itemID)
	return s.cartView(), nil
}

// ClearCart empties the active cart. Held bills are kept.
func (t *TerminalService) ClearCart(ctx context.Context, s *Session) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Caller().require("clear cart", billingRoles...); err != nil {
		return CartView{}, err
	}
	s.cart.Clear()
	return s.cartView(), nil
}

// PauseCart holds the active cart. It reports false when the cart was empty.
func (t *TerminalService) PauseCart(ctx context.Context, s *Session) (CartView, bool, error) {
	ctx, span := util.StartSessionSpan(ctx, "TerminalService.PauseCart", s.ID)
	defer span.End()

	s.mu.Lock()
	bill, ok, err := t.pauseLocked(s)
	view := s.cartView()
	s.mu.Unlock()
	if err != nil || !ok {
		return view, false, err
	}
	t.publishPaused(ctx, bill)
	return view, true, nil
}

func (t *TerminalService) pauseLocked(s *Session) (models.HeldBill, bool, error) {
	c := s.Caller()
	if err := c.require("pause cart", billingRoles...); err != nil {
		return models.HeldBill{}, false, err
	}
	bill, ok := s.cart.Pause(s.User.ID)
	if !ok {
		return models.HeldBill{}, false, nil
	}
	util.BillsPausedTotal.Inc()
	t.logger.Info("Bill paused",
		zap.String("session_id", s.ID),
		zap.String("bill_id", bill.ID),
		zap.String("total", bill.Total.StringFixed(2)))
	c.notify(notify.Success("Bill Paused", "Current bill has been saved"))
	return bill, true, nil
}

func (t *TerminalService) publishPaused(ctx context.Context, bill models.HeldBill) {
	if err := t.publisher.PublishBillPaused(ctx, bill); err != nil {
		t.logger.Error("Failed to publish BillPaused event", zap.Error(err))
	}
}

// ResumeBill replaces the active cart with a held bill
func (t *TerminalService) ResumeBill(ctx context.Context, s *Session, billID string) (CartView, error) {
	ctx, span := util.StartSessionSpan(ctx, "TerminalService.ResumeBill", s.ID)
	defer span.End()

	s.mu.Lock()
	c := s.Caller()
	if err := c.require("resume bill", billingRoles...); err != nil {
		s.mu.Unlock()
		return CartView{}, err
	}
	if _, err := s.cart.Resume(billID); err != nil {
		s.mu.Unlock()
		return CartView{}, c.fail(err)
	}
	view := s.cartView()
	s.mu.Unlock()

	util.BillsResumedTotal.Inc()
	t.logger.Info("Bill resumed", zap.String("session_id", s.ID), zap.String("bill_id", billID))
	c.notify(notify.Success("Bill Resumed", "Bill has been restored"))
	if err := t.publisher.PublishBillResumed(ctx, billID, s.ID); err != nil {
		t.logger.Error("Failed to publish BillResumed event", zap.Error(err))
	}
	return view, nil
}

// HandleKey dispatches a key through the session keymap
func (t *TerminalService) HandleKey(ctx context.Context, s *Session, key string) (TerminalView, error) {
	return t.ApplyCommand(ctx, s, s.keymap.Dispatch(key))
}

// ApplyCommand executes a navigator command. Pause goes to the cart.
func (t *TerminalService) ApplyCommand(ctx context.Context, s *Session, cmd navigator.Command) (TerminalView, error) {
	ctx, span := util.StartSessionSpan(ctx, "TerminalService.ApplyCommand", s.ID)
	defer span.End()

	s.mu.Lock()
	c := s.Caller()
	if err := c.require("navigate", browsingRoles...); err != nil {
		s.mu.Unlock()
		return TerminalView{}, err
	}

	if cmd.Kind == navigator.CommandPauseCart {
		bill, ok, err := t.pauseLocked(s)
		view := t.viewLocked(s, cmd)
		s.mu.Unlock()
		if err != nil {
			return TerminalView{}, err
		}
		if ok {
			t.publishPaused(ctx, bill)
		}
		return view, nil
	}

	act, _, err := s.nav.Apply(cmd)
	if err != nil {
		s.mu.Unlock()
		return TerminalView{}, c.fail(err)
	}
	t.activated(s, act)
	view := t.viewLocked(s, cmd)
	s.mu.Unlock()
	return view, nil
}

// Navigate runs a single named navigator operation
func (t *TerminalService) Navigate(ctx context.Context, s *Session, a NavAction) (TerminalView, error) {
	_, span := util.StartSessionSpan(ctx, "TerminalService.Navigate", s.ID)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.Caller()
	if err := c.require("navigate", browsingRoles...); err != nil {
		return TerminalView{}, err
	}

	var err error
	switch a.Action {
	case NavEnterCategory:
		err = s.nav.EnterCategory(a.ID)
	case NavEnterBrand:
		err = s.nav.EnterBrand(a.ID)
	case NavBack:
		s.nav.GoBack()
	case NavHome:
		s.nav.GoHome()
	case NavSearch:
		s.nav.SetSearch(a.Search)
	case NavMove:
		s.nav.MoveSelection(a.Delta)
	case NavActivate:
		var act navigator.Activation
		act, err = s.nav.ActivateSelection()
		if err == nil {
			t.activated(s, act)
		}
	case NavSetPending:
		err = s.nav.SetPendingQuantity(a.ID, a.Quantity)
	case NavIncrement:
		s.nav.IncrementPending()
	case NavDecrement:
		s.nav.DecrementPending()
	default:
		err = models.InvalidField("action", fmt.Sprintf("unknown navigation action %q", a.Action))
	}
	if err != nil {
		return TerminalView{}, c.fail(err)
	}
	return t.viewLocked(s, navigator.Command{}), nil
}

func (t *TerminalService) activated(s *Session, act navigator.Activation) {
	if act.Kind != navigator.ActivatedItem {
		return
	}
	c := s.Caller()
	if s.draft != nil {
		c.notify(notify.Success("Item Added", fmt.Sprintf("%s x%d added to request", act.Item.Name, act.Quantity)))
		return
	}
	util.CartItemsAddedTotal.WithLabelValues("navigator").Inc()
	c.notify(notify.Success("Item Added", fmt.Sprintf("%s x%d added to bill", act.Item.Name, act.Quantity)))
}

func (t *TerminalService) viewLocked(s *Session, cmd navigator.Command) TerminalView {
	view := TerminalView{Command: cmd, Navigator: s.navigatorView()}
	if s.draft == nil {
		cv := s.cartView()
		view.Cart = &cv
	}
	return view
}

// Checkout settles the active cart and records the sale
func (t *TerminalService) Checkout(ctx context.Context, s *Session, method models.PaymentMethod, customer *models.Customer) (models.Receipt, error) {
	ctx, span := util.StartSessionSpan(ctx, "TerminalService.Checkout", s.ID)
	defer span.End()
	start := time.Now()

	s.mu.Lock()
	c := s.Caller()
	if err := c.require("checkout", billingRoles...); err != nil {
		s.mu.Unlock()
		return models.Receipt{}, err
	}
	receipt, err := s.checkout.ProcessPayment(method, s.User.ID, customer)
	s.mu.Unlock()
	if err != nil {
		reason := "invalid_method"
		if errors.Is(err, models.ErrEmptyCart) {
			reason = "empty_cart"
		}
		util.CheckoutFailedTotal.WithLabelValues(reason).Inc()
		return models.Receipt{}, c.fail(err)
	}

	if err := t.history.Record(ctx, receipt); err != nil {
		t.logger.Error("Failed to record sale", zap.String("invoice_id", receipt.InvoiceID), zap.Error(err))
	}
	if err := t.publisher.PublishSaleCompleted(ctx, receipt); err != nil {
		t.logger.Error("Failed to publish SaleCompleted event", zap.Error(err))
	}

	amount, _ := receipt.Total.Float64()
	util.SalesCompletedTotal.WithLabelValues(string(method)).Inc()
	util.SalesAmountTotal.Add(amount)
	util.CheckoutLatency.Observe(time.Since(start).Seconds())

	t.logger.Info("Sale completed",
		zap.String("session_id", s.ID),
		zap.String("invoice_id", receipt.InvoiceID),
		zap.String("payment_method", string(method)),
		zap.String("total", receipt.Total.StringFixed(2)))
	c.notify(notify.Success("Payment Processed", fmt.Sprintf("Invoice %s - $%s", receipt.InvoiceID, receipt.Total.StringFixed(2))))
	return receipt, nil
}
