package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/storefront/backoffice/internal/domains/orders/domain"
	ordersports "github.com/storefront/backoffice/internal/domains/orders/ports"
)

const tracerName = "github.com/storefront/backoffice/internal/domains/orders/adapters/observability/service"

// Service decorates the order engine with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Checkout(ctx context.Context, input ordersports.CheckoutInput) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Checkout",
		trace.WithAttributes(attribute.String("order.user_id", input.UserID)))
	defer span.End()

	s.logInfo(ctx, "checking out cart", slog.String("user.id", input.UserID))
	result, err := s.inner.Checkout(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "checkout failed", slog.String("user.id", input.UserID))
	}
	s.metrics.recordCheckout(ctx, result.LineCount())
	s.logInfo(ctx, "order created",
		slog.Int64("order.id", result.ID),
		slog.String("user.id", result.UserID),
		slog.Int("order.lines", result.LineCount()))
	return result, nil
}

func (s *Service) Advance(ctx context.Context, orderID int64, target ordersdomain.Status) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Advance",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.target_status", string(target))))
	defer span.End()

	result, err := s.inner.Advance(ctx, orderID, target)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "transition rejected",
			slog.Int64("order.id", orderID), slog.String("target", string(target)))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order advanced",
		slog.Int64("order.id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) Cancel(ctx context.Context, orderID int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Cancel",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.Cancel(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "cancellation rejected", slog.Int64("order.id", orderID))
	}
	s.metrics.recordCancelled(ctx)
	s.logInfo(ctx, "order cancelled and restocked", slog.Int64("order.id", result.ID))
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, orderID int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) List(ctx context.Context) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.List")
	defer span.End()

	result, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByUser",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	result, err := s.inner.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list user orders", slog.String("user.id", userID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) Summary(ctx context.Context) (map[ordersdomain.Status]ordersports.StatusSummary, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Summary")
	defer span.End()

	result, err := s.inner.Summary(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to build status summary")
	}
	span.SetAttributes(attribute.Int("summary.status.count", len(result)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	checkouts   metric.Int64Counter
	lineVolume  metric.Int64Counter
	transitions metric.Int64Counter
	cancelled   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	checkouts, _ := m.Int64Counter("orders.service.checkouts", metric.WithDescription("Number of successful checkouts"))
	lineVolume, _ := m.Int64Counter("orders.service.checkout_lines", metric.WithDescription("Number of order lines committed at checkout"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of successful status transitions"))
	cancelled, _ := m.Int64Counter("orders.service.cancellations", metric.WithDescription("Number of cancelled orders"))
	return serviceMetrics{checkouts: checkouts, lineVolume: lineVolume, transitions: transitions, cancelled: cancelled}
}

func (m serviceMetrics) recordCheckout(ctx context.Context, lines int) {
	if m.checkouts != nil {
		m.checkouts.Add(ctx, 1)
	}
	if m.lineVolume != nil {
		m.lineVolume.Add(ctx, int64(lines))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, status ordersdomain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

func (m serviceMetrics) recordCancelled(ctx context.Context) {
	if m.cancelled != nil {
		m.cancelled.Add(ctx, 1)
	}
}

var _ ordersports.Service = (*Service)(nil)
