package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/store"
)

// Analytics owns the loaded dataset and recomputes every view for a requested
// date range. The dataset is swapped atomically and never mutated.
type Analytics struct {
	mu       sync.RWMutex
	dataset  *store.Dataset
	products []models.Product
	loaded   bool

	granularity Granularity
	rfm         RFMOptions
	logger      *slog.Logger

	computations atomic.Int64
}

type Option func(*Analytics)

func WithGranularity(g Granularity) Option {
	return func(a *Analytics) {
		a.granularity = g
	}
}

func WithRFMOptions(opts RFMOptions) Option {
	return func(a *Analytics) {
		a.rfm = opts
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		a.logger = logger
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		dataset: &store.Dataset{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData installs ds as the current dataset and normalizes its categories.
func (a *Analytics) SetData(ds *store.Dataset) {
	products := NormalizeCategories(ds.Products, ds.Translations)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.dataset = ds
	a.products = products
	a.loaded = true
}

// Loaded reports whether a dataset has been installed.
func (a *Analytics) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}

func (a *Analytics) Load(ctx context.Context, loader store.Loader) error {
	start := time.Now()

	ds, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	a.SetData(ds)

	a.logger.Info("dataset loaded",
		"orders", len(ds.Orders),
		"order_items", len(ds.OrderItems),
		"customers", len(ds.Customers),
		"products", len(ds.Products),
		"payments", len(ds.Payments),
		"duration", time.Since(start),
	)
	return nil
}

func (a *Analytics) snapshot() (*store.Dataset, []models.Product) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset, a.products
}

// Bounds is the default range: first to last purchase date.
func (a *Analytics) Bounds() models.DateRange {
	ds, _ := a.snapshot()
	return ds.Bounds()
}

// DefaultRange is used when a request leaves a bound blank: every loaded
// order, with the start widened to the filter granularity so the first
// period is not cut off.
func (a *Analytics) DefaultRange() models.DateRange {
	r := a.Bounds()
	if r.IsZero() {
		return r
	}
	r.Start = a.granularity.truncate(r.Start)
	return r
}

func (a *Analytics) Granularity() Granularity {
	return a.granularity
}

// Compute filters the orders to r and derives all five views. The views are
// independent and run concurrently; the result equals a sequential run.
func (a *Analytics) Compute(ctx context.Context, r models.DateRange) (*models.Views, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.compute")
	defer span.Finish()
	span.SetTag("range", r.String())

	ds, products := a.snapshot()
	orders := FilterOrders(ds.Orders, r, a.granularity)

	views := &models.Views{Range: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		views.MonthlyRevenue = MonthlyRevenueView(orders, ds.OrderItems)
		return ctx.Err()
	})
	g.Go(func() error {
		views.ProductCounts = ProductOrderCountView(orders, ds.OrderItems, products)
		return ctx.Err()
	})
	g.Go(func() error {
		views.CitySpending = CitySpendingView(orders, ds.Customers, ds.Payments)
		return ctx.Err()
	})
	g.Go(func() error {
		views.CategoryRevenue = CategoryRevenueView(orders, ds.OrderItems, products)
		return ctx.Err()
	})
	g.Go(func() error {
		views.RFM = RFMView(orders, ds.OrderItems, ds.Customers, a.rfm)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("compute views: %w", err)
	}

	views.Summary = Summarize(orders, views.MonthlyRevenue, views.RFM)
	a.computations.Add(1)

	a.logger.Debug("views computed",
		"range", r.String(),
		"orders", len(orders),
		"months", len(views.MonthlyRevenue),
		"customers", len(views.RFM),
		"request_id", observability.GetRequestID(ctx),
	)
	return views, nil
}

// Stats reports relation sizes for monitoring.
func (a *Analytics) Stats() map[string]any {
	ds, _ := a.snapshot()
	bounds := ds.Bounds()

	stats := map[string]any{
		"loaded_at":    ds.LoadedAt,
		"granularity":  a.granularity.String(),
		"computations": a.computations.Load(),
		"first_order":  bounds.Start,
		"last_order":   bounds.End,
	}
	for name, n := range ds.Counts() {
		stats[name] = n
	}
	return stats
}
