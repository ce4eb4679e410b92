package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/catalog/ports"
	sharederrors "github.com/storefront/backoffice/internal/shared/errors"
)

// Handler exposes read access to the catalog. Product maintenance screens
// are out of scope here; checkout only needs lookups.
type Handler struct {
	catalog   ports.Repository
	responder *sharederrors.Responder
}

func NewHandler(catalog ports.Repository) *Handler {
	return &Handler{catalog: catalog, responder: sharederrors.NewResponder("")}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/products", h.listProducts)
	r.GET("/products/:productId", h.getProduct)
}

type productDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price"`
	Stock       string   `json:"stock"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	list := make([]productDTO, 0, len(products))
	for _, product := range products {
		list = append(list, toDTO(product))
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || id <= 0 {
		h.responder.BadRequest(c, "product id must be a positive integer")
		return
	}
	product, err := h.catalog.GetByID(c.Request.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		h.responder.NotFound(c, "product", id)
		return
	}
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDTO(product))
}

func toDTO(product *domain.Product) productDTO {
	return productDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.String(),
		Stock:       product.Stock.String(),
		ImageURLs:   product.ImageURLs,
	}
}
