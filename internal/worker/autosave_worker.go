package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adewumilot300-rgb/EduNexus/internal/config"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
	"github.com/adewumilot300-rgb/EduNexus/internal/service"
)

const (
	AutosaveBatchSize    = 100
	AutosaveBatchTimeout = 3 * time.Second
	AutosavePollTimeout  = 1 * time.Second
)

// AutosaveWorker consumes answer snapshots from the autosave queue and
// persists them as PENDING result rows. Snapshots are whole answer maps,
// so only the newest snapshot per (exam, student) in a batch is written.
type AutosaveWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AutosaveWorker started")

	batch := make([]service.AutosavePayload, 0, AutosaveBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AutosaveBatchSize || time.Since(lastFlush) >= AutosaveBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, AutosavePollTimeout, config.WorkerKey.PersistAnswersQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p service.AutosavePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, p)
		}
	}
}

type attemptKey struct {
	ExamID    uuid.UUID
	StudentID uuid.UUID
}

// flush collapses the batch to the latest snapshot per attempt, then writes
// them as PENDING rows. Graded rows are never overwritten.
func (w *AutosaveWorker) flush(ctx context.Context, batch []service.AutosavePayload) {
	if len(batch) == 0 {
		return
	}

	latest := make(map[attemptKey]service.AutosavePayload, len(batch))
	for _, p := range batch {
		k := attemptKey{ExamID: p.ExamID, StudentID: p.StudentID}
		if prev, ok := latest[k]; !ok || p.SavedAt.After(prev.SavedAt) {
			latest[k] = p
		}
	}

	snapshots := make([]model.ExamResult, 0, len(latest))
	for _, p := range latest {
		snapshots = append(snapshots, model.ExamResult{
			ExamID:         p.ExamID,
			StudentID:      p.StudentID,
			TotalQuestions: p.TotalQuestions,
			Answers:        p.Answers,
			SubmittedAt:    p.SavedAt,
			Status:         model.ResultStatusPending,
		})
	}

	if err := w.resultRepo.UpsertPendingBulk(ctx, snapshots); err != nil {
		w.log.Error().Err(err).Int("count", len(snapshots)).Msg("Autosave persist failed, requeueing")
		for _, p := range latest {
			raw, err := json.Marshal(p)
			if err != nil {
				continue
			}
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw)
		}
		return
	}

	w.log.Debug().Int("count", len(snapshots)).Msg("Autosave batch persisted")
}
