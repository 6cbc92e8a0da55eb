package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/santiagocoriap/quakescope/internal/config"
	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/observability"
	"github.com/santiagocoriap/quakescope/internal/remote"
	"github.com/santiagocoriap/quakescope/internal/worker"
)

// Fetcher is the backend feed the manager polls.
type Fetcher interface {
	DetectedEarthquakes(ctx context.Context, q remote.Query) ([]models.Earthquake, error)
	ExpectedEarthquakes(ctx context.Context, q remote.Query) ([]models.Earthquake, error)
}

type Store interface {
	Exists(ctx context.Context, id string) (bool, error)
	UpsertAll(ctx context.Context, quakes []models.Earthquake) error
	Count(ctx context.Context) (int, error)
}

type AlertEvaluator interface {
	Evaluate(ctx context.Context, quakes []models.Earthquake) ([]models.Alert, error)
}

type Manager struct {
	cfg       *config.Config
	fetcher   Fetcher
	store     Store
	evaluator AlertEvaluator
	metrics   *observability.Metrics
	pool      *worker.Pool[models.Earthquake]
	stopPoll  context.CancelFunc
	wg        sync.WaitGroup
}

// NewManager wires the poller. evaluator may be nil to store without alerting.
func NewManager(cfg *config.Config, fetcher Fetcher, store Store, evaluator AlertEvaluator, metrics *observability.Metrics) *Manager {
	return &Manager{
		cfg:       cfg,
		fetcher:   fetcher,
		store:     store,
		evaluator: evaluator,
		metrics:   metrics,
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.pool = worker.NewPool("ingestion", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, m.process)
	m.pool.Start(ctx)

	pollCtx, stopPoll := context.WithCancel(ctx)
	m.stopPoll = stopPoll
	if m.cfg.Remote.PollEnabled {
		m.wg.Add(1)
		go m.runPoller(pollCtx, m.cfg.Remote.PollInterval)
	}
}

// process stores one polled quake and evaluates every real quake, cached or
// not. The alert history makes repeated evaluations a no-op.
func (m *Manager) process(ctx context.Context, q models.Earthquake) error {
	exists, err := m.store.Exists(ctx, q.ID)
	if err != nil {
		m.metrics.IngestErrors.Inc()
		slog.Error("error checking existence", "id", q.ID, "error", err)
		return err
	}

	if err := m.store.UpsertAll(ctx, []models.Earthquake{q}); err != nil {
		m.metrics.IngestErrors.Inc()
		slog.Error("error storing earthquake", "id", q.ID, "error", err)
		return err
	}
	if !exists {
		m.metrics.IngestedEarthquakes.Inc()
		m.updateCacheSize(ctx)
		slog.Debug("added earthquake", "id", q.ID, "source", q.Source, "magnitude", q.Magnitude)
	}

	if m.evaluator != nil && q.IsReal {
		if _, err := m.evaluator.Evaluate(ctx, []models.Earthquake{q}); err != nil {
			slog.Error("error evaluating alerts", "id", q.ID, "error", err)
			return err
		}
	}
	return nil
}

func (m *Manager) updateCacheSize(ctx context.Context) {
	n, err := m.store.Count(ctx)
	if err != nil {
		slog.Warn("error counting cached earthquakes", "error", err)
		return
	}
	m.metrics.CachedEarthquakes.Set(float64(n))
}

func (m *Manager) runPoller(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting poller", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	slog.Debug("polling backend")

	q := remote.Query{Limit: m.cfg.Remote.FetchLimit}
	feeds := []struct {
		source string
		fetch  func(context.Context, remote.Query) ([]models.Earthquake, error)
	}{
		{models.SourceDetected, m.fetcher.DetectedEarthquakes},
		{models.SourceExpected, m.fetcher.ExpectedEarthquakes},
	}

	for _, feed := range feeds {
		quakes, err := feed.fetch(ctx, q)
		if err != nil {
			m.metrics.IngestErrors.Inc()
			slog.Error("poll failed", "source", feed.source, "error", err)
			continue
		}

		for _, quake := range quakes {
			if err := m.pool.Submit(ctx, quake); err != nil {
				return
			}
		}
		slog.Debug("poll complete", "source", feed.source, "count", len(quakes))
	}
}

// Stop ends polling, then lets the workers finish every queued quake. Call
// it before cancelling the context passed to Start, or queued work is lost.
func (m *Manager) Stop() {
	m.stopPoll()
	m.wg.Wait()
	m.pool.Stop()
	slog.Info("ingestion manager stopped")
}
