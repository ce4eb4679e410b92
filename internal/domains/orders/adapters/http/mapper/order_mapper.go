package mapper

import (
	"time"

	"github.com/storefront/backoffice/internal/domains/orders/domain"
	"github.com/storefront/backoffice/internal/domains/orders/ports"
)

// OrderLineDTO is the wire shape of one order position.
type OrderLineDTO struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    string `json:"quantity"`
	Remarks     string `json:"remarks,omitempty"`
	Value       string `json:"value"`
}

// OrderDTO is the wire shape of an order with derived totals.
type OrderDTO struct {
	ID            int64          `json:"id"`
	UserID        string         `json:"userId"`
	CreatedAt     time.Time      `json:"createdAt"`
	Remarks       string         `json:"remarks,omitempty"`
	Status        string         `json:"status"`
	Lines         []OrderLineDTO `json:"lines"`
	LineCount     int            `json:"lineCount"`
	TotalQuantity string         `json:"totalQuantity"`
	TotalValue    string         `json:"totalValue"`
}

// SummaryEntryDTO is one status bucket of the dashboard summary.
type SummaryEntryDTO struct {
	Status        string `json:"status"`
	Orders        int    `json:"orders"`
	TotalQuantity string `json:"totalQuantity"`
}

// ToDTO maps an order aggregate to its wire shape. Line values come from the
// current catalog prices resolved at load time.
func ToDTO(order *domain.Order) OrderDTO {
	lines := make([]OrderLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		dto := OrderLineDTO{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity.String(),
			Remarks:   line.Remarks,
			Value:     line.Value().String(),
		}
		if line.Product != nil {
			dto.ProductName = line.Product.Name
		}
		lines = append(lines, dto)
	}
	return OrderDTO{
		ID:            order.ID,
		UserID:        order.UserID,
		CreatedAt:     order.CreatedAt,
		Remarks:       order.Remarks,
		Status:        string(order.Status),
		Lines:         lines,
		LineCount:     order.LineCount(),
		TotalQuantity: order.TotalQuantity().String(),
		TotalValue:    order.TotalValue().String(),
	}
}

// ToListDTO maps a slice of orders.
func ToListDTO(orders []*domain.Order) []OrderDTO {
	list := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		list = append(list, ToDTO(order))
	}
	return list
}

// ToSummaryDTO maps the status summary in pipeline order.
func ToSummaryDTO(summary map[domain.Status]ports.StatusSummary) []SummaryEntryDTO {
	list := make([]SummaryEntryDTO, 0, len(summary))
	for _, status := range domain.Statuses() {
		entry, ok := summary[status]
		if !ok {
			continue
		}
		list = append(list, SummaryEntryDTO{
			Status:        string(status),
			Orders:        entry.Orders,
			TotalQuantity: entry.TotalQuantity.String(),
		})
	}
	return list
}
