package dispute

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker nags about disputes approaching their deadline and surfaces the
// overdue ones. Disputes are never decided automatically: money only
// moves on an explicit ruling.
type Worker struct {
	repo     *Repository
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

func NewWorker(repo *Repository, interval time.Duration) *Worker {
	if interval == 0 {
		interval = time.Hour
	}
	return &Worker{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting dispute deadline worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping dispute deadline worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick()

	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := w.Sweep(ctx); err != nil {
		log.Error().Err(err).Msg("Dispute sweep failed")
	}
}

// Sweep marks deadline warnings and returns how many it sent.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	now := w.now()

	due, err := w.repo.ListNeedingWarning(ctx, now)
	if err != nil {
		return 0, err
	}

	warned := 0
	for _, d := range due {
		if err := w.repo.MarkWarningSent(ctx, d.ID); err != nil {
			log.Error().Err(err).Str("dispute_id", d.ID.String()).Msg("Failed to mark dispute warning")
			continue
		}
		log.Warn().
			Str("dispute_id", d.ID.String()).
			Str("order_id", d.OrderID.String()).
			Time("auto_resolve_at", d.AutoResolveAt).
			Msg("Dispute approaching resolution deadline")
		warned++
	}

	overdue, err := w.repo.CountOverdue(ctx, now)
	if err != nil {
		return warned, err
	}
	if overdue > 0 {
		log.Warn().Int("count", overdue).Msg("Open disputes past their resolution deadline")
	}

	return warned, nil
}
