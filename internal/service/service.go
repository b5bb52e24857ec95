// Package service orchestrates the ledger, projections and archival rules
// against a repository. Every read-modify-write runs under a per-entity lock.
package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/advisor"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/archive"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/events"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/ledger"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/printer"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/repository"
)

const tracerName = "warehouse-core/service"

// ErrAdvisorDisabled is returned by SuggestStockLevel when no advisor is configured
var ErrAdvisorDisabled = errors.New("stock level advisor is not configured")

// ErrPrinterDisabled is returned by the print operations when no printer is configured
var ErrPrinterDisabled = errors.New("report printer is not configured")

// WarehouseService implements every warehouse, item and report operation
type WarehouseService struct {
	repo      repository.Repository
	publisher events.Publisher
	logger    *logrus.Logger
	tracer    trace.Tracer

	clock   ledger.Clock
	ids     ledger.IDGenerator
	engine  *ledger.Engine
	policy  *archive.Policy
	printer printer.Printer
	advisor advisor.Advisor

	warehouseLocks *keyedMutex
	itemLocks      *keyedMutex
}

// Option configures optional collaborators of the service
type Option func(*WarehouseService)

// WithPrinter sets the printer used by the print operations
func WithPrinter(p printer.Printer) Option {
	return func(s *WarehouseService) {
		s.printer = p
	}
}

// WithAdvisor enables SuggestStockLevel
func WithAdvisor(a advisor.Advisor) Option {
	return func(s *WarehouseService) {
		s.advisor = a
	}
}

// WithClock replaces the system clock
func WithClock(c ledger.Clock) Option {
	return func(s *WarehouseService) {
		s.clock = c
	}
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(g ledger.IDGenerator) Option {
	return func(s *WarehouseService) {
		s.ids = g
	}
}

// NewWarehouseService creates a new warehouse service instance. A nil
// publisher disables event publishing.
func NewWarehouseService(
	repo repository.Repository,
	publisher events.Publisher,
	logger *logrus.Logger,
	opts ...Option,
) *WarehouseService {
	if logger == nil {
		logger = logrus.New()
	}

	s := &WarehouseService{
		repo:           repo,
		publisher:      publisher,
		logger:         logger,
		tracer:         otel.Tracer(tracerName),
		clock:          ledger.SystemClock{},
		ids:            ledger.UUIDGenerator{},
		warehouseLocks: newKeyedMutex(),
		itemLocks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = ledger.NewEngine(s.clock, s.ids)
	s.policy = archive.NewPolicy(s.clock, s.ids)
	return s
}

// AdvisorEnabled reports whether SuggestStockLevel can be served
func (s *WarehouseService) AdvisorEnabled() bool {
	return s.advisor != nil
}

func (s *WarehouseService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+name, trace.WithAttributes(attrs...))
}

// endSpan records err on span before ending it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}

func (s *WarehouseService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if event.Actor == "" {
		event.Actor = auth.Actor(ctx)
	}
	event.Timestamp = s.clock.Now()
	s.publisher.Publish(ctx, event)
}

// touchWarehouse refreshes the parent warehouse after one of its items
// changed. Failures are logged and not returned: the item write already
// committed and freshness is advisory.
func (s *WarehouseService) touchWarehouse(ctx context.Context, warehouseID string) {
	unlock := s.warehouseLocks.Lock(warehouseID)
	defer unlock()

	wh, err := s.repo.GetWarehouse(ctx, warehouseID)
	if err != nil {
		s.logger.WithError(err).WithField("warehouse_id", warehouseID).Warn("failed to load warehouse for freshness update")
		return
	}
	if err := s.repo.PutWarehouse(ctx, s.policy.Touch(wh)); err != nil {
		s.logger.WithError(err).WithField("warehouse_id", warehouseID).Warn("failed to refresh warehouse updated_at")
	}
}
