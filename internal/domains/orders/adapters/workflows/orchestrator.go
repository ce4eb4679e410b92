package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/storefront/backoffice/internal/domains/orders/domain"
	"github.com/storefront/backoffice/internal/domains/orders/ports"
	orderactivities "github.com/storefront/backoffice/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/storefront/backoffice/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalCheckoutWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineCheckoutWorkflows)(nil)
)

// TemporalCheckoutWorkflows starts checkout workflows on a Temporal cluster.
type TemporalCheckoutWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalCheckoutWorkflows wires a Temporal client into the orchestrator.
func NewTemporalCheckoutWorkflows(c client.Client) *TemporalCheckoutWorkflows {
	return &TemporalCheckoutWorkflows{client: c, taskQueue: orderworkflows.CheckoutTaskQueue}
}

// Checkout starts the Temporal workflow that converts a cart into an order.
func (o *TemporalCheckoutWorkflows) Checkout(ctx context.Context, input ports.CheckoutInput) (*domain.Order, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal checkout workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildCheckoutWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.CheckoutWorkflow,
		orderworkflows.CheckoutWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var result orderactivities.CheckoutResult
			if err := existingRun.Get(ctx, &result); err != nil {
				return nil, err
			}
			return unwrapResult(&result)
		}
		return nil, err
	}
	var result orderactivities.CheckoutResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return unwrapResult(&result)
}

// InlineCheckoutWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineCheckoutWorkflows struct {
	service ports.Service
}

// NewInlineCheckoutWorkflows wraps the orders service for synchronous execution.
func NewInlineCheckoutWorkflows(service ports.Service) *InlineCheckoutWorkflows {
	return &InlineCheckoutWorkflows{service: service}
}

// Checkout delegates to the application service without durable orchestration.
func (o *InlineCheckoutWorkflows) Checkout(ctx context.Context, input ports.CheckoutInput) (*domain.Order, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline checkout workflows not configured")
	}
	return o.service.Checkout(ctx, input)
}

func unwrapResult(result *orderactivities.CheckoutResult) (*domain.Order, error) {
	if result == nil {
		return nil, errors.New("checkout workflow returned no result")
	}
	if result.Failure != nil {
		return nil, result.Failure.AsError()
	}
	if result.Order == nil {
		return nil, errors.New("checkout workflow returned no order")
	}
	return result.Order, nil
}

func buildCheckoutWorkflowID(input ports.CheckoutInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("order-checkout-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("order-checkout-%s-%s", input.UserID, traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// Use the first 16 hex chars to keep workflow IDs readable while remaining deterministic.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return "fallback-" + uuid.NewString()
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
