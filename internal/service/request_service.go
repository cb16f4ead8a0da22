package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/notify"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequestFilter narrows List; empty fields match everything
type RequestFilter struct {
	Search     string
	Status     models.RequestStatus
	SalesmanID string
}

// ItemEdit changes one line of a pending request; nil fields are kept
type ItemEdit struct {
	Quantity       *int             `json:"quantity"`
	SuggestedPrice *decimal.Decimal `json:"suggested_price"`
}

// RequestService runs the stock-request approval workflow
type RequestService struct {
	mu        sync.RWMutex
	requests  []models.StockRequest
	publisher EventPublisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewRequestService creates the request list seeded with requests
func NewRequestService(seed []models.StockRequest, publisher EventPublisher) *RequestService {
	requests := make([]models.StockRequest, len(seed))
	for i, r := range seed {
		requests[i] = cloneRequest(r)
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &RequestService{
		requests:  requests,
		publisher: publisher,
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// List returns requests matching filter, newest first. Salesmen only see
// their own requests.
func (s *RequestService) List(c Caller, f RequestFilter) ([]models.StockRequest, error) {
	if err := c.require("list requests", models.RoleAdmin, models.RoleSalesman); err != nil {
		return nil, err
	}
	if c.Identity.Role == models.RoleSalesman {
		f.SalesmanID = c.Identity.ID
	}
	m := newMatcher(f.Search)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StockRequest, 0, len(s.requests))
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.SalesmanID != "" && r.SalesmanID != f.SalesmanID {
			continue
		}
		fields := []string{r.ID, r.Message}
		for _, it := range r.Items {
			fields = append(fields, it.ItemName)
		}
		if !m.matches(fields...) {
			continue
		}
		out = append(out, cloneRequest(r))
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

// Get returns a request by id
func (s *RequestService) Get(id string) (models.StockRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return cloneRequest(s.requests[i]), nil
	}
	return models.StockRequest{}, fmt.Errorf("request %s: %w", id, models.ErrNotFound)
}

// Submit files a new pending request from the calling salesman
func (s *RequestService) Submit(ctx context.Context, c Caller, items []models.RequestedItem, message string) (models.StockRequest, error) {
	_, span := util.StartSpan(ctx, "RequestService.Submit")
	defer span.End()

	if err := c.require("submit request", models.RoleSalesman); err != nil {
		return models.StockRequest{}, err
	}
	if len(items) == 0 {
		return models.StockRequest{}, c.fail(models.InvalidField("items", "at least one item is required"))
	}
	for i := range items {
		items[i].ItemName = strings.TrimSpace(items[i].ItemName)
		if err := validateRequestedItem(items[i]); err != nil {
			return models.StockRequest{}, c.fail(err)
		}
	}

	req := models.StockRequest{
		ID:         "req-" + uuid.New().String(),
		SalesmanID: c.Identity.ID,
		Items:      cloneRequestedItems(items),
		Status:     models.RequestPending,
		Message:    strings.TrimSpace(message),
		CreatedAt:  s.now(),
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	s.logger.Info("Stock request submitted",
		zap.String("request_id", req.ID),
		zap.String("salesman_id", req.SalesmanID),
		zap.Int("items", len(req.Items)))
	c.notify(notify.Success("Request Submitted", fmt.Sprintf("Stock request with %d items sent for approval", len(req.Items))))
	return cloneRequest(req), nil
}

// SubmitDraft files the items a salesman collected while browsing and
// empties the draft
func (s *RequestService) SubmitDraft(ctx context.Context, sess *Session, message string) (models.StockRequest, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	c := sess.Caller()
	if sess.draft == nil {
		return models.StockRequest{}, c.require("submit request", models.RoleSalesman)
	}
	req, err := s.Submit(ctx, c, sess.draft.Items(), message)
	if err != nil {
		return models.StockRequest{}, err
	}
	sess.draft.Reset()
	return req, nil
}

// Process approves or rejects a pending request. Processed requests are final.
func (s *RequestService) Process(ctx context.Context, c Caller, id string, status models.RequestStatus, response string) (models.StockRequest, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Process")
	defer span.End()

	if err := c.require("process request", models.RoleAdmin); err != nil {
		return models.StockRequest{}, err
	}
	if status != models.RequestApproved && status != models.RequestRejected {
		return models.StockRequest{}, c.fail(models.InvalidField("status", "must be approved or rejected"))
	}

	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return models.StockRequest{}, c.fail(fmt.Errorf("request %s: %w", id, models.ErrNotFound))
	}
	if s.requests[i].Status != models.RequestPending {
		s.mu.Unlock()
		return models.StockRequest{}, c.fail(fmt.Errorf("request %s is %s: %w", id, s.requests[i].Status, models.ErrRequestProcessed))
	}
	now := s.now()
	s.requests[i].Status = status
	s.requests[i].AdminResponse = strings.TrimSpace(response)
	s.requests[i].ProcessedAt = &now
	s.requests[i].ProcessedBy = c.Identity.ID
	req := cloneRequest(s.requests[i])
	s.mu.Unlock()

	util.StockRequestsProcessedTotal.WithLabelValues(string(status)).Inc()
	s.logger.Info("Stock request processed",
		zap.String("request_id", id),
		zap.String("status", string(status)),
		zap.String("processed_by", c.Identity.ID))

	if err := s.publisher.PublishStockRequestProcessed(ctx, req); err != nil {
		s.logger.Error("Failed to publish StockRequestProcessed event", zap.Error(err))
	}

	title := "Request Approved"
	if status == models.RequestRejected {
		title = "Request Rejected"
	}
	c.notify(notify.Success(title, fmt.Sprintf("Request %s has been %s", id, status)))
	return req, nil
}

// UpdateItem edits the quantity or suggested price of one line of a pending request
func (s *RequestService) UpdateItem(ctx context.Context, c Caller, id string, index int, edit ItemEdit) (models.StockRequest, error) {
	_, span := util.StartSpan(ctx, "RequestService.UpdateItem")
	defer span.End()

	if err := c.require("edit request", models.RoleAdmin); err != nil {
		return models.StockRequest{}, err
	}
	if edit.Quantity != nil && *edit.Quantity <= 0 {
		return models.StockRequest{}, c.fail(models.InvalidField("quantity", "must be a positive integer"))
	}
	if edit.SuggestedPrice != nil && edit.SuggestedPrice.IsNegative() {
		return models.StockRequest{}, c.fail(models.InvalidField("suggested_price", "must not be negative"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return models.StockRequest{}, c.fail(fmt.Errorf("request %s: %w", id, models.ErrNotFound))
	}
	r := &s.requests[i]
	if r.Status != models.RequestPending {
		return models.StockRequest{}, c.fail(fmt.Errorf("request %s is %s: %w", id, r.Status, models.ErrRequestProcessed))
	}
	if index < 0 || index >= len(r.Items) {
		return models.StockRequest{}, c.fail(models.InvalidField("index", "no such item"))
	}
	if edit.Quantity != nil {
		r.Items[index].Quantity = *edit.Quantity
	}
	if edit.SuggestedPrice != nil {
		price := *edit.SuggestedPrice
		r.Items[index].SuggestedPrice = &price
	}
	return cloneRequest(*r), nil
}

// Delete removes a request by id
func (s *RequestService) Delete(ctx context.Context, c Caller, id string) error {
	_, span := util.StartSpan(ctx, "RequestService.Delete")
	defer span.End()

	if err := c.require("delete request", models.RoleAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return c.fail(fmt.Errorf("request %s: %w", id, models.ErrNotFound))
	}
	s.requests = append(s.requests[:i:i], s.requests[i+1:]...)
	s.mu.Unlock()

	c.notify(notify.Success("Success", fmt.Sprintf("Request %s has been removed", id)))
	return nil
}

func (s *RequestService) index(id string) int {
	for i := range s.requests {
		if s.requests[i].ID == id {
			return i
		}
	}
	return -1
}

func validateRequestedItem(it models.RequestedItem) error {
	switch {
	case it.ItemName == "":
		return models.InvalidField("item_name", "is required")
	case it.Quantity <= 0:
		return models.InvalidField("quantity", "must be a positive integer")
	case it.SuggestedPrice != nil && it.SuggestedPrice.IsNegative():
		return models.InvalidField("suggested_price", "must not be negative")
	case it.IsNewItem && strings.TrimSpace(it.Category) == "":
		return models.InvalidField("category", "is required for new items")
	}
	return nil
}

func cloneRequestedItems(items []models.RequestedItem) []models.RequestedItem {
	out := make([]models.RequestedItem, len(items))
	for i, it := range items {
		if it.SuggestedPrice != nil {
			p := *it.SuggestedPrice
			it.SuggestedPrice = &p
		}
		out[i] = it
	}
	return out
}

func cloneRequest(r models.StockRequest) models.StockRequest {
	r.Items = cloneRequestedItems(r.Items)
	if r.ProcessedAt != nil {
		t := *r.ProcessedAt
		r.ProcessedAt = &t
	}
	return r
}

func sortRequestsNewestFirst(rs []models.StockRequest) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}
