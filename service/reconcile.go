package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/kevinaaaquil/bookshelf/store"
)

type OrphanSweeper interface {
	DeleteOrphans(ctx context.Context) (store.OrphanReport, error)
}

// Reconciler periodically deletes books and reviews left dangling by
// cascades that ran without a transaction.
type Reconciler struct {
	sweeper  OrphanSweeper
	schedule string
	timeout  time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewReconciler(s OrphanSweeper, schedule string) *Reconciler {
	return &Reconciler{
		sweeper:  s,
		schedule: schedule,
		timeout:  time.Minute,
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

// Start schedules the sweep. An empty schedule leaves the reconciler idle.
func (r *Reconciler) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || r.schedule == "" {
		return nil
	}
	if _, err := r.cron.AddFunc(r.schedule, r.run); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	r.running = true
	log.Info().Str("schedule", r.schedule).Msg("reconciler started")
	return nil
}

// Stop waits for an in-flight sweep to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	log.Info().Msg("reconciler stopped")
}

func (r *Reconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("orphan sweep failed")
	}
}

func (r *Reconciler) RunOnce(ctx context.Context) (store.OrphanReport, error) {
	start := time.Now()
	rep, err := r.sweeper.DeleteOrphans(ctx)
	if err != nil {
		return store.OrphanReport{}, err
	}
	ev := log.Debug()
	if rep.Books > 0 || rep.Reviews > 0 {
		ev = log.Warn()
	}
	ev.Int64("books", rep.Books).Int64("reviews", rep.Reviews).Dur("took", time.Since(start)).Msg("orphan sweep done")
	return rep, nil
}
