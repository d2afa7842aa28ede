package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curvewatch/curvewatch/internal/config"
	"github.com/curvewatch/curvewatch/pkg/models"
)

// Aggregator coordinates the curve sources and the news feeds. Curve
// fetches try the primary source first and fall back to the secondary.
type Aggregator struct {
	primary  Source
	fallback Source
	news     *News
	log      *zap.Logger
}

// NewAggregator wires the default live sources: the H.15 download as
// primary with the treasury.gov scrape as fallback.
func NewAggregator(ttl time.Duration, log *zap.Logger) *Aggregator {
	return &Aggregator{
		primary:  NewFedH15(ttl),
		fallback: NewTreasuryGov(ttl),
		news:     NewNews(),
		log:      log.Named("datasource"),
	}
}

// NewAggregatorWithSources wires explicit sources. The fallback may be
// nil; file-backed runs and tests use this constructor.
func NewAggregatorWithSources(primary, fallback Source, news *News, log *zap.Logger) *Aggregator {
	return &Aggregator{
		primary:  primary,
		fallback: fallback,
		news:     news,
		log:      log.Named("datasource"),
	}
}

// NewAggregatorFromConfig wires the sources the config names: "h15"
// (default) with a treasury.gov fallback, "treasurygov" with an H.15
// fallback, or "file" with no fallback.
func NewAggregatorFromConfig(cfg *config.Config, log *zap.Logger) *Aggregator {
	ttl := time.Duration(cfg.Data.CacheTTL) * time.Second
	switch cfg.Data.Source {
	case "treasurygov":
		return NewAggregatorWithSources(NewTreasuryGov(ttl), NewFedH15(ttl), NewNews(), log)
	case "file":
		return NewAggregatorWithSources(NewFile(cfg.Data.File), nil, NewNews(), log)
	default:
		return NewAggregator(ttl, log)
	}
}

// NewsSource returns the news source for direct access.
func (a *Aggregator) NewsSource() *News { return a.news }

// FetchCurve fetches curve rows from the primary source, falling back
// to the secondary when the primary fails.
func (a *Aggregator) FetchCurve(ctx context.Context) (*CurveData, error) {
	data, err := a.primary.FetchCurve(ctx)
	if err == nil && data != nil && len(data.Rows) > 0 {
		return data, nil
	}
	if err == nil {
		err = fmt.Errorf("%s: %w", a.primary.Name(), ErrNoData)
	}
	a.log.Warn("primary curve source failed",
		zap.String("source", a.primary.Name()),
		zap.Error(err))

	if a.fallback == nil {
		return nil, err
	}

	data, ferr := a.fallback.FetchCurve(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("all curve sources failed: %w", errors.Join(err, ferr))
	}
	a.log.Info("fell back to secondary curve source",
		zap.String("source", a.fallback.Name()))
	return data, nil
}

// Warmup holds the result of a concurrent startup fetch.
type Warmup struct {
	Curve     *CurveData
	News      []models.NewsArticle
	FetchedAt time.Time
}

// FetchAll fetches the curve and the news concurrently. Individual
// failures are non-fatal; an error is returned only when no curve could
// be produced at all.
func (a *Aggregator) FetchAll(ctx context.Context, newsLimit int) (*Warmup, error) {
	w := &Warmup{FetchedAt: time.Now()}

	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := a.FetchCurve(gctx)
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("curve: %w", err))
			mu.Unlock()
			return nil // non-fatal
		}
		mu.Lock()
		w.Curve = data
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		articles, err := a.news.GetMarketNews(gctx, newsLimit)
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("news: %w", err))
			mu.Unlock()
			return nil
		}
		mu.Lock()
		w.News = articles
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return w, err
	}

	// News is decoration; a curve is the one thing callers need.
	if w.Curve == nil && len(errs) > 0 {
		return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}

	return w, nil
}
