package orders

import (
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/storefront/backoffice/internal/domains/orders/ports"
	orderactivities "github.com/storefront/backoffice/internal/platform/temporal/activities/orders"
	"github.com/storefront/backoffice/internal/platform/temporal/sequences"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "orders.workflows.Checkout"
	// CheckoutTaskQueue is the queue consumed by the worker processing order workflows.
	CheckoutTaskQueue = "ORDER_CHECKOUT"
)

// CheckoutWorkflowInput captures the payload required to run a durable checkout.
type CheckoutWorkflowInput struct {
	Command ordersports.CheckoutInput
	TraceID string
}

// CheckoutWorkflow orchestrates the activities needed to convert a cart into an order.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*orderactivities.CheckoutResult, error) {
	logger := workflow.GetLogger(ctx)
	userID := input.Command.UserID
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "userId", userID)...)
	result, err := sequences.RunCheckoutSequence(ctx, input.Command)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "userId", userID, "error", err)...)
		return nil, err
	}
	if result != nil && result.Order != nil {
		logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "userId", userID, "orderId", result.Order.ID)...)
	} else {
		logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "userId", userID)...)
	}
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
