package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/storefront/backoffice/internal/domains/cart/domain"
	"github.com/storefront/backoffice/internal/domains/cart/ports"
	sharederrors "github.com/storefront/backoffice/internal/shared/errors"
)

// Handler exposes the per-user cart: the staging area checkout consumes.
type Handler struct {
	carts     ports.Repository
	responder *sharederrors.Responder
}

func NewHandler(carts ports.Repository) *Handler {
	return &Handler{carts: carts, responder: sharederrors.NewResponder("")}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/users/:userId/cart", h.listLines)
	r.POST("/users/:userId/cart", h.addLine)
	r.DELETE("/users/:userId/cart/:lineId", h.removeLine)
}

type addLineRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`
	Remarks   string `json:"remarks"`
}

type lineDTO struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	Quantity  string `json:"quantity"`
	Remarks   string `json:"remarks,omitempty"`
}

func (h *Handler) listLines(c *gin.Context) {
	lines, err := h.carts.LinesForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	list := make([]lineDTO, 0, len(lines))
	for _, line := range lines {
		list = append(list, toDTO(line))
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) addLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, "invalid cart line payload: "+err.Error())
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		h.responder.BadRequest(c, "quantity must be a decimal number")
		return
	}
	line, err := domain.NewLine(c.Param("userId"), req.ProductID, quantity, req.Remarks)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"line": err.Error()})
		return
	}
	saved, err := h.carts.Add(c.Request.Context(), line)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDTO(*saved))
}

func (h *Handler) removeLine(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("lineId"), 10, 64)
	if err != nil || lineID <= 0 {
		h.responder.BadRequest(c, "cart line id must be a positive integer")
		return
	}
	err = h.carts.Remove(c.Request.Context(), c.Param("userId"), lineID)
	if errors.Is(err, ports.ErrNotFound) {
		h.responder.NotFound(c, "cart line", lineID)
		return
	}
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toDTO(line domain.Line) lineDTO {
	return lineDTO{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity.String(),
		Remarks:   line.Remarks,
	}
}
