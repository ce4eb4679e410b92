package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/storefront/backoffice/internal/domains/orders/ports"
	orderactivities "github.com/storefront/backoffice/internal/platform/temporal/activities/orders"
)

// RunCheckoutSequence executes the ordered set of activities that turn a cart
// into a persisted order.
func RunCheckoutSequence(ctx workflow.Context, input ordersports.CheckoutInput) (*orderactivities.CheckoutResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("checkout sequence started", "userId", input.UserID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var result orderactivities.CheckoutResult
	err := workflow.ExecuteActivity(ctx, orderactivities.CheckoutActivityName, input).Get(ctx, &result)
	if err != nil {
		logger.Error("checkout sequence failed", "userId", input.UserID, "error", err)
		return nil, err
	}
	if result.Order != nil {
		logger.Info("checkout sequence completed", "userId", input.UserID, "orderId", result.Order.ID)
	} else {
		logger.Info("checkout sequence completed", "userId", input.UserID)
	}
	return &result, nil
}
