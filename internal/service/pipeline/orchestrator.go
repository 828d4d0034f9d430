package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/errors"
	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/risk"
	"github.com/davidleathers/dependable-endpoint-agent/internal/metrics"
	"github.com/davidleathers/dependable-endpoint-agent/internal/service/analytics"
)

// Orchestrator sequences one detection cycle: collect, window, score,
// persist, report. It owns no OS or network resources itself; everything
// external comes in as a collaborator.
type Orchestrator struct {
	collectors []Collector
	extractor  *analytics.Extractor
	model      Model
	engine     *risk.Engine
	store      Store
	uplink     Uplink
	metrics    *metrics.Registry
	logger     *slog.Logger
	platform   string
	interval   time.Duration
}

// Deps carries the orchestrator collaborators. Uplink may be nil when
// reporting is disabled by policy.
type Deps struct {
	Collectors []Collector
	Extractor  *analytics.Extractor
	Model      Model
	Engine     *risk.Engine
	Store      Store
	Uplink     Uplink
	Metrics    *metrics.Registry
	Logger     *slog.Logger
	Platform   string
	// Interval between daemon cycles; zero selects single-shot mode.
	Interval time.Duration
}

func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry(prometheus.NewRegistry())
	}
	if deps.Platform == "" {
		deps.Platform = runtime.GOOS
	}
	return &Orchestrator{
		collectors: deps.Collectors,
		extractor:  deps.Extractor,
		model:      deps.Model,
		engine:     deps.Engine,
		store:      deps.Store,
		uplink:     deps.Uplink,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		platform:   deps.Platform,
		interval:   deps.Interval,
	}
}

// RunCycle executes one detection cycle. Collector failures are isolated;
// persistence is attempted for every event and the first storage error is
// returned after the loop; the uplink runs only when persistence fully
// succeeded and its failures are never returned.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	start := time.Now()
	o.metrics.CyclesTotal.Inc()

	events := o.collect(ctx)
	o.logger.Info("collected events", slog.Int("count", len(events)))

	vectors := o.extractor.Push(events)

	score := 0.0
	var vector analytics.FeatureVector
	if len(vectors) > 0 {
		vector = vectors[0]
		score = o.model.Predict(vector.Values)
	}
	result := o.engine.Score(vector.EventID, score, vector.TS)
	o.metrics.RiskLevelTotal.WithLabelValues(result.Level.String()).Inc()

	persistErr := o.persist(events, result.Score)

	if result.Level != risk.LevelLow {
		o.logger.Info("risk result",
			slog.String("event_id", result.EventID),
			slog.Float64("score", result.Score),
			slog.String("level", result.Level.String()))
	}

	if persistErr == nil && o.uplink != nil {
		if err := o.uplink.Report(ctx, o.platform, events, result); err != nil {
			o.metrics.UplinkFailures.Inc()
			o.logger.Warn("uplink report failed", slog.Any("error", err))
		}
	}

	o.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	if persistErr != nil {
		o.metrics.CycleFailures.Inc()
	}
	return persistErr
}

// Run drives cycles until ctx is cancelled. With a zero interval it runs a
// single cycle; a cycle failure there is logged, not propagated, so that only
// startup conditions decide the process outcome. In daemon mode every cycle
// failure is caught and the loop continues; a started cycle always runs to
// completion.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.interval <= 0 {
		if err := o.RunCycle(ctx); err != nil {
			o.logger.Error("cycle failed", slog.Any("error", err))
		}
		return nil
	}

	o.logger.Info("daemon started", slog.Duration("interval", o.interval))
	for {
		if err := o.RunCycle(ctx); err != nil {
			o.logger.Error("cycle failed", slog.Any("error", err))
		}

		timer := time.NewTimer(o.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.Info("daemon stopping")
			return nil
		case <-timer.C:
		}
	}
}

func (o *Orchestrator) collect(ctx context.Context) []event.Event {
	var out []event.Event
	for _, c := range o.collectors {
		events, err := c.Snapshot(ctx)
		if err != nil {
			o.logger.Warn("collector failed; skipping",
				slog.String("collector", c.Name()),
				slog.Any("error", err))
			continue
		}
		o.metrics.EventsCollected.WithLabelValues(c.Name()).Add(float64(len(events)))
		out = append(out, events...)
	}
	return out
}

func (o *Orchestrator) persist(events []event.Event, score float64) error {
	var firstErr error
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			err = errors.NewSerializationError("encode event payload").WithCause(err)
			o.logger.Error("event encoding failed", slog.String("event_id", ev.ID), slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := o.store.InsertEvent(ev.ID, ev.TS.UnixMilli(), string(ev.Activity.Kind()), payload, &score); err != nil {
			o.metrics.StoreErrors.Inc()
			o.logger.Error("event persistence failed", slog.String("event_id", ev.ID), slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
