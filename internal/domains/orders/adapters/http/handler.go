package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/orders/adapters/http/mapper"
	"github.com/storefront/backoffice/internal/domains/orders/application"
	"github.com/storefront/backoffice/internal/domains/orders/domain"
	"github.com/storefront/backoffice/internal/domains/orders/ports"
	sharederrors "github.com/storefront/backoffice/internal/shared/errors"
)

// Handler exposes the order engine over HTTP. Checkout goes through the
// workflow orchestrator so durable execution and idempotency keys apply;
// everything else hits the service directly.
type Handler struct {
	service   ports.Service
	workflows ports.WorkflowOrchestrator
	responder *sharederrors.ChainedResponder
}

func NewHandler(service ports.Service, workflows ports.WorkflowOrchestrator) *Handler {
	return &Handler{
		service:   service,
		workflows: workflows,
		responder: sharederrors.NewChainedResponder("", mapOrderError),
	}
}

// RegisterRoutes mounts the back-office order routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/orders", h.listOrders)
	r.GET("/orders/summary", h.summary)
	r.GET("/orders/:orderId", h.getOrder)
	r.POST("/orders/:orderId/dispatch", h.advanceTo(domain.StatusDispatched))
	r.POST("/orders/:orderId/send", h.advanceTo(domain.StatusShipped))
	r.POST("/orders/:orderId/confirm", h.advanceTo(domain.StatusConfirmed))
	r.POST("/orders/:orderId/cancel", h.cancel)
	r.GET("/users/:userId/orders", h.listUserOrders)
	r.POST("/users/:userId/checkout", h.checkout)
}

type checkoutRequest struct {
	Remarks        string `json:"remarks"`
	IdempotencyKey string `json:"idempotencyKey"`
}

func (h *Handler) checkout(c *gin.Context) {
	userID := c.Param("userId")
	var req checkoutRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.responder.BadRequest(c, "invalid checkout payload: "+err.Error())
			return
		}
	}
	order, err := h.workflows.Checkout(c.Request.Context(), ports.CheckoutInput{
		UserID:         userID,
		Remarks:        req.Remarks,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.ToDTO(order))
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToDTO(order))
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.service.List(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToListDTO(orders))
}

func (h *Handler) listUserOrders(c *gin.Context) {
	orders, err := h.service.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToListDTO(orders))
}

func (h *Handler) advanceTo(target domain.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.orderID(c)
		if !ok {
			return
		}
		order, err := h.service.Advance(c.Request.Context(), id, target)
		if err != nil {
			h.responder.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapper.ToDTO(order))
	}
}

func (h *Handler) cancel(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	order, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToDTO(order))
}

func (h *Handler) summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToSummaryDTO(summary))
}

func (h *Handler) orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil || id <= 0 {
		h.responder.BadRequest(c, "order id must be a positive integer")
		return 0, false
	}
	return id, true
}

// mapOrderError translates engine errors into problem details. Business
// errors become conflicts naming the offending product or required state;
// everything unmatched falls through to the default 500 handling.
func mapOrderError(err error) (sharederrors.ProblemDetail, bool) {
	var insufficient *catalogdomain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return sharederrors.ErrInsufficientStock.
			WithDetail(insufficient.Error()).
			WithExtension("productId", insufficient.ProductID).
			WithExtension("available", insufficient.Available.String()).
			WithExtension("requested", insufficient.Requested.String()), true
	}
	var unavailable *catalogdomain.ProductUnavailableError
	if errors.As(err, &unavailable) {
		return sharederrors.ErrProductUnavailable.
			WithDetail(unavailable.Error()).
			WithExtension("productId", unavailable.ProductID), true
	}
	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		return sharederrors.ErrInvalidTransition.
			WithDetail(transition.Error()).
			WithExtension("currentStatus", string(transition.Current)).
			WithExtension("requestedStatus", string(transition.Requested)), true
	}
	var cancelled *domain.AlreadyCancelledError
	if errors.As(err, &cancelled) {
		return sharederrors.ErrAlreadyCancelled.WithDetail(cancelled.Error()), true
	}
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return sharederrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrEmptyCart),
		errors.Is(err, application.ErrInvalidInput):
		return sharederrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrIntegrity):
		return sharederrors.ErrConflict.WithDetail(err.Error()), true
	}
	return sharederrors.ProblemDetail{}, false
}
