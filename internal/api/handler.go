package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/navigator"
	"pos-service/internal/service"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SessionHeader carries the session id on every authenticated request
const SessionHeader = "X-Session-ID"

const sessionKey = "session"

// Services are the application services exposed over HTTP
type Services struct {
	Auth      *service.AuthService
	Terminal  *service.TerminalService
	Inventory *service.InventoryService
	Users     *service.UserService
	Requests  *service.RequestService
	Reports   *service.ReportService
}

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	svc    Services
	checks map[string]ReadinessCheck
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, checks map[string]ReadinessCheck) *Handler {
	return &Handler{
		svc:    svc,
		checks: checks,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.POST("/sessions", h.login)

	authed := v1.Group("", h.sessionMiddleware())
	{
		authed.GET("/session", h.getSession)
		authed.DELETE("/session", h.logout)

		authed.GET("/cart", h.getCart)
		authed.DELETE("/cart", h.clearCart)
		authed.POST("/cart/items", h.addItem)
		authed.POST("/cart/custom-items", h.addCustomItem)
		authed.PUT("/cart/items/:id", h.setQuantity)
		authed.DELETE("/cart/items/:id", h.removeItem)
		authed.POST("/cart/pause", h.pauseCart)
		authed.POST("/held-bills/:id/resume", h.resumeBill)
		authed.POST("/checkout", h.checkout)

		authed.GET("/navigator", h.getNavigator)
		authed.POST("/navigator/keys", h.handleKey)
		authed.POST("/navigator/actions", h.navigate)

		authed.GET("/bills", h.listBills)
		authed.GET("/bills/export", h.exportBills)
		authed.GET("/bills/:id/receipt", h.downloadReceipt)

		authed.GET("/inventory", h.listInventory)
		authed.GET("/inventory/low-stock", h.lowStock)
		authed.POST("/inventory", h.addInventoryItem)
		authed.PUT("/inventory/:id", h.updateInventoryItem)
		authed.DELETE("/inventory/:id", h.deleteInventoryItem)
		authed.PUT("/inventory/:id/stock", h.updateStock)
		authed.POST("/inventory/restock", h.bulkRestock)

		authed.GET("/users", h.listUsers)
		authed.GET("/users/counts", h.userCounts)
		authed.POST("/users", h.addUser)
		authed.PUT("/users/:id", h.updateUser)
		authed.DELETE("/users/:id", h.deleteUser)
		authed.POST("/users/:id/toggle", h.toggleUser)

		authed.GET("/requests", h.listRequests)
		authed.POST("/requests", h.submitRequest)
		authed.POST("/requests/draft", h.submitDraft)
		authed.POST("/requests/:id/process", h.processRequest)
		authed.PATCH("/requests/:id/items/:index", h.updateRequestItem)
		authed.DELETE("/requests/:id", h.deleteRequest)

		authed.GET("/reports/:period", h.getReport)
		authed.GET("/reports/:period/export", h.exportReport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports not ready while any dependency check fails
func (h *Handler) readinessCheck(c *gin.Context) {
	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// sessionMiddleware resolves the session named by the session header
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing " + SessionHeader + " header",
			})
			return
		}
		s, err := h.svc.Auth.Restore(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid session",
				"details": err.Error(),
			})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

func session(c *gin.Context) *service.Session {
	return c.MustGet(sessionKey).(*service.Session)
}

// reply writes body with the notifications the operation produced
func reply(c *gin.Context, status int, body gin.H) {
	if s, ok := c.Get(sessionKey); ok {
		body["notices"] = s.(*service.Session).DrainNotices()
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// fail maps a service error onto an HTTP status
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Internal error"
	switch {
	case errors.Is(err, models.ErrInvalidField):
		status, msg = http.StatusBadRequest, "Invalid field"
	case errors.Is(err, models.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, models.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrDuplicateKey):
		status, msg = http.StatusConflict, "Duplicate key"
	case errors.Is(err, models.ErrRequestProcessed), errors.Is(err, navigator.ErrWrongLevel):
		status, msg = http.StatusConflict, "Conflict"
	case errors.Is(err, models.ErrEmptyCart):
		status, msg = http.StatusUnprocessableEntity, "Cart is empty"
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	reply(c, status, gin.H{"error": msg, "details": err.Error()})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

// login opens a session
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s, ok, err := h.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Login Failed",
			"details": "Invalid credentials or inactive account",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID,
		"user":       s.User,
		"notices":    s.DrainNotices(),
	})
}

func (h *Handler) getSession(c *gin.Context) {
	s := session(c)
	reply(c, http.StatusOK, gin.H{"session_id": s.ID, "user": s.User})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Auth.Logout(c.Request.Context(), session(c).ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getCart(c *gin.Context) {
	reply(c, http.StatusOK, gin.H{"cart": session(c).Cart()})
}

func (h *Handler) clearCart(c *gin.Context) {
	view, err := h.svc.Terminal.ClearCart(c.Request.Context(), session(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"cart": view})
}

type addItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) addItem(c *gin.Context) {
	req := addItemRequest{Quantity: 1}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.Terminal.AddItem(c.Request.Context(), session(c), req.ItemID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"cart": view})
}

type customItemRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (h *Handler) addCustomItem(c *gin.Context) {
	req := customItemRequest{Quantity: 1}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.Terminal.AddCustomItem(c.Request.Context(), session(c), req.Name, req.Price, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"cart": view})
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) setQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.Terminal.SetQuantity(c.Request.Context(), session(c), c.Param("id"), *req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"cart": view})
}

func (h *Handler) removeItem(c *gin.Context) {
	view, err := h.svc.Terminal.RemoveItem(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"cart": view})
}

func (h *Handler) pauseCart(c *gin.Context) {
	view, paused, err := h.svc.Terminal.PauseCart(c.Request.Context(), session(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"cart": view, "paused": paused})
}

func (h *Handler) resumeBill(c *gin.Context) {
	view, err := h.svc.Terminal.ResumeBill(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"cart": view})
}

type checkoutRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	Customer      *models.Customer     `json:"customer"`
}

func (h *Handler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	receipt, err := h.svc.Terminal.Checkout(c.Request.Context(), session(c), req.PaymentMethod, req.Customer)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusCreated, gin.H{"receipt": receipt})
}

func (h *Handler) getNavigator(c *gin.Context) {
	reply(c, http.StatusOK, gin.H{"navigator": session(c).Navigator()})
}

type keyRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *Handler) handleKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.Terminal.HandleKey(c.Request.Context(), session(c), req.Key)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"terminal": view})
}

func (h *Handler) navigate(c *gin.Context) {
	var req service.NavAction
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.Terminal.Navigate(c.Request.Context(), session(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"terminal": view})
}

func billFilter(c *gin.Context) service.BillFilter {
	mine, _ := strconv.ParseBool(c.Query("mine"))
	method := c.Query("method")
	if method == "all" {
		method = ""
	}
	return service.BillFilter{
		Search: c.Query("search"),
		Window: c.Query("period"),
		Method: models.PaymentMethod(method),
		Mine:   mine,
	}
}

func (h *Handler) listBills(c *gin.Context) {
	bills, err := h.svc.Reports.BillHistory(c.Request.Context(), session(c).Caller(), billFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"bills": bills, "count": len(bills)})
}

func (h *Handler) exportBills(c *gin.Context) {
	name, data, err := h.svc.Reports.ExportBillHistory(c.Request.Context(), session(c).Caller(), billFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, name, "application/json", data)
}

func (h *Handler) downloadReceipt(c *gin.Context) {
	name, text, err := h.svc.Reports.ReceiptText(c.Request.Context(), session(c).Caller(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, name, "text/plain; charset=utf-8", []byte(text))
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) listInventory(c *gin.Context) {
	items, err := h.svc.Inventory.List(session(c).Caller(), service.InventoryFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"items": items, "categories": h.svc.Inventory.Categories()})
}

func (h *Handler) lowStock(c *gin.Context) {
	items, err := h.svc.Inventory.LowStock(session(c).Caller())
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) addInventoryItem(c *gin.Context) {
	var req models.InventoryItem
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.Inventory.Add(c.Request.Context(), session(c).Caller(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusCreated, gin.H{"item": item})
}

func (h *Handler) updateInventoryItem(c *gin.Context) {
	var req models.InventoryItem
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = c.Param("id")
	item, err := h.svc.Inventory.Update(c.Request.Context(), session(c).Caller(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"item": item})
}

func (h *Handler) deleteInventoryItem(c *gin.Context) {
	if err := h.svc.Inventory.Delete(c.Request.Context(), session(c).Caller(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

type stockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

func (h *Handler) updateStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.Inventory.UpdateStock(c.Request.Context(), session(c).Caller(), c.Param("id"), *req.Stock)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"item": item})
}

func (h *Handler) bulkRestock(c *gin.Context) {
	n, err := h.svc.Inventory.BulkRestock(c.Request.Context(), session(c).Caller())
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.svc.Users.List(session(c).Caller(), service.UserFilter{
		Search: c.Query("search"),
		Role:   models.Role(c.Query("role")),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"users": users})
}

func (h *Handler) userCounts(c *gin.Context) {
	counts, err := h.svc.Users.Counts(session(c).Caller())
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"counts": counts})
}

func (h *Handler) addUser(c *gin.Context) {
	var req models.User
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.Add(c.Request.Context(), session(c).Caller(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) updateUser(c *gin.Context) {
	var req models.User
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = c.Param("id")
	user, err := h.svc.Users.Update(c.Request.Context(), session(c).Caller(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.svc.Users.Delete(c.Request.Context(), session(c).Caller(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) toggleUser(c *gin.Context) {
	user, err := h.svc.Users.ToggleActive(c.Request.Context(), session(c).Caller(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) listRequests(c *gin.Context) {
	status := c.Query("status")
	if status == "all" {
		status = ""
	}
	reqs, err := h.svc.Requests.List(session(c).Caller(), service.RequestFilter{
		Search:     c.Query("search"),
		Status:     models.RequestStatus(status),
		SalesmanID: c.Query("salesman_id"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"requests": reqs})
}

type submitRequest struct {
	Items   []models.RequestedItem `json:"items"`
	Message string                 `json:"message"`
}

func (h *Handler) submitRequest(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.svc.Requests.Submit(c.Request.Context(), session(c).Caller(), req.Items, req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusCreated, gin.H{"request": created})
}

func (h *Handler) submitDraft(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.svc.Requests.SubmitDraft(c.Request.Context(), session(c), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusCreated, gin.H{"request": created})
}

type processRequest struct {
	Status   models.RequestStatus `json:"status" binding:"required"`
	Response string               `json:"response"`
}

func (h *Handler) processRequest(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	processed, err := h.svc.Requests.Process(c.Request.Context(), session(c).Caller(), c.Param("id"), req.Status, req.Response)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"request": processed})
}

func (h *Handler) updateRequestItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item index",
		})
		return
	}
	var req service.ItemEdit
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.svc.Requests.UpdateItem(c.Request.Context(), session(c).Caller(), c.Param("id"), index, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"request": updated})
}

func (h *Handler) deleteRequest(c *gin.Context) {
	if err := h.svc.Requests.Delete(c.Request.Context(), session(c).Caller(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) getReport(c *gin.Context) {
	period, err := service.ParsePeriod(c.Param("period"))
	if err != nil {
		h.fail(c, err)
		return
	}
	report, err := h.svc.Reports.Report(c.Request.Context(), session(c).Caller(), period)
	if err != nil {
		h.fail(c, err)
		return
	}
	reply(c, http.StatusOK, gin.H{"report": report})
}

func (h *Handler) exportReport(c *gin.Context) {
	period, err := service.ParsePeriod(c.Param("period"))
	if err != nil {
		h.fail(c, err)
		return
	}
	name, data, err := h.svc.Reports.ExportReport(c.Request.Context(), session(c).Caller(), period)
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, name, "application/json", data)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
