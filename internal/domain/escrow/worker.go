package escrow

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const sweepLeaseKey = "escrow:sweep:lease"

// Worker releases escrows whose hold deadline has passed. When redis is
// configured, a short lease keeps multiple instances from sweeping the
// same tick; without it the row locks still make double-release impossible.
type Worker struct {
	svc      *Service
	redis    *redis.Client
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewWorker creates a new auto-release worker. redisClient may be nil.
func NewWorker(svc *Service, redisClient *redis.Client, interval time.Duration) *Worker {
	if interval == 0 {
		interval = time.Minute
	}
	return &Worker{
		svc:      svc,
		redis:    redisClient,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting escrow auto-release worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping escrow auto-release worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
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
		log.Error().Err(err).Msg("Escrow sweep failed")
	}
}

// Sweep releases every due escrow and returns how many it released.
// A failure on one escrow is logged and does not stop the rest.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	if w.redis != nil {
		ok, err := w.redis.SetNX(ctx, sweepLeaseKey, "1", w.interval).Result()
		if err != nil {
			log.Warn().Err(err).Msg("Sweep lease check failed, proceeding without lease")
		} else if !ok {
			return 0, nil
		}
	}

	due, err := w.svc.DueForRelease(ctx, w.now(), 100)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, e := range due {
		if err := w.svc.Release(ctx, e.ID); err != nil {
			// ErrAlreadyReleased here means someone beat us to it,
			// which is fine; anything else needs eyes.
			if err != ErrAlreadyReleased {
				log.Error().Err(err).Str("escrow_id", e.ID.String()).Msg("Auto-release failed")
			}
			continue
		}
		released++
	}

	if released > 0 {
		log.Info().Int("count", released).Msg("Auto-released due escrows")
	}
	return released, nil
}
