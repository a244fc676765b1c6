package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adewumilot300-rgb/EduNexus/internal/config"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker consumes graded results from the persistence queue and
// upserts them in batches. After a batch lands, the per-student Redis
// session state for those attempts is cleared.
type ResultWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.ExamResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var res model.ExamResult
			if err := json.Unmarshal([]byte(item[1]), &res); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			res.Status = model.ResultStatusGraded

			batch = append(batch, res)
		}
	}
}

// ----------------------------------------------------------------
// Batch upsert wrapper
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.ExamResult) {
	if len(batch) == 0 {
		return
	}

	if err := w.resultRepo.UpsertBulk(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result upsert failed, using fallback")

		for i := range batch {
			if err := w.resultRepo.Upsert(ctx, &batch[i]); err != nil {
				w.log.Error().Err(err).
					Str("exam_id", batch[i].ExamID.String()).
					Str("student_id", batch[i].StudentID.String()).
					Msg("single upsert failed — requeueing")
				raw, _ := json.Marshal(batch[i])
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	// After results land in PostgreSQL → drop the per-student session state
	w.bulkClearSessionState(ctx, batch)
}

// ----------------------------------------------------------------
// BULK Redis DEL clearing autosave hash, start time, question order
// ----------------------------------------------------------------

func (w *ResultWorker) bulkClearSessionState(ctx context.Context, batch []model.ExamResult) {
	pipe := w.rdb.Pipeline()

	for _, res := range batch {
		examID := res.ExamID.String()
		studentID := res.StudentID.String()
		pipe.Del(ctx, config.CacheKey.StudentAnswersKey(examID, studentID))
		pipe.Del(ctx, config.CacheKey.StudentExamSessionStartKey(examID, studentID))
		pipe.Del(ctx, config.CacheKey.StudentQuestionOrderKey(examID, studentID))
	}

	_, _ = pipe.Exec(ctx)
}
