package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/masterdash/masterdash/internal/warehouse"
	"github.com/masterdash/masterdash/pkg/logger"
	"github.com/masterdash/masterdash/pkg/metrics"
)

// Result carries the rows of a scoped query together with the scope that was
// applied, so callers can show users what restriction shaped the data.
type Result struct {
	Rows  []map[string]any `json:"rows"`
	Scope *Scope           `json:"accessScope"`
}

// Gateway is the single entry point for dashboard queries against the
// warehouse. Every request passes scope resolution and predicate building
// before any statement reaches the analytical store.
type Gateway struct {
	resolver *Resolver
	store    warehouse.Executor
	log      *zap.Logger
}

// NewGateway wires the gateway from its collaborators.
func NewGateway(resolver *Resolver, store warehouse.Executor) (*Gateway, error) {
	if resolver == nil {
		return nil, errors.New("access: gateway requires a resolver")
	}
	if store == nil {
		return nil, errors.New("access: gateway requires a warehouse executor")
	}
	return &Gateway{
		resolver: resolver,
		store:    store,
		log:      logger.WithModule("gateway"),
	}, nil
}

// Execute resolves the caller's scope for the dashboard, builds the security
// filter, composes it with the dashboard's query, and runs the statement.
//
// ErrNoAccess and ErrUnknownUser pass through untouched for the handler
// layer to translate; they are decided without contacting the warehouse.
// The operation is read-only and carries no internal retries: callers may
// safely retry infrastructure failures.
func (g *Gateway) Execute(ctx context.Context, userID, dashboardSlug string, query Query, extra map[string]any) (*Result, error) {
	if err := query.Validate(); err != nil {
		// Broken dashboard definition; should have been caught at startup.
		metrics.GatewayQueries.WithLabelValues(dashboardSlug, "error").Inc()
		return nil, err
	}

	scope, err := g.resolver.Resolve(ctx, userID, dashboardSlug)
	if err != nil {
		if errors.Is(err, ErrNoAccess) || errors.Is(err, ErrUnknownUser) {
			metrics.GatewayQueries.WithLabelValues(dashboardSlug, "denied").Inc()
			return nil, err
		}
		metrics.GatewayQueries.WithLabelValues(dashboardSlug, "error").Inc()
		return nil, err
	}

	filter, err := BuildFilter(scope, extra)
	if err != nil {
		metrics.GatewayQueries.WithLabelValues(dashboardSlug, "error").Inc()
		return nil, err
	}

	statement := query.compose(filter.Clause)

	start := time.Now()
	rows, err := g.store.Query(ctx, statement, filter.Args...)
	metrics.GatewayQueryDuration.WithLabelValues(dashboardSlug).Observe(time.Since(start).Seconds())

	if err != nil {
		// Log the driver detail server-side; the caller only ever sees a
		// generic execution failure.
		g.log.Error("warehouse query failed",
			zap.String("dashboard", dashboardSlug),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		metrics.GatewayQueries.WithLabelValues(dashboardSlug, "error").Inc()
		return nil, fmt.Errorf("access: execute dashboard query: %w", err)
	}

	metrics.GatewayQueries.WithLabelValues(dashboardSlug, "success").Inc()

	return &Result{Rows: rows, Scope: scope}, nil
}
