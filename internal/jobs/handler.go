package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
)

// TransactionAppender writes one transaction to the document workspace and
// returns the created page ID.
type TransactionAppender interface {
	Append(ctx context.Context, tx domain.Transaction) (string, error)
}

// NewSyncHandler returns a JobHandler that pushes each SyncTransactionJob's
// transaction through the appender. Failures are returned so the queue's
// retry logic applies.
func NewSyncHandler(appender TransactionAppender, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job Job) error {
		syncJob, ok := job.(*SyncTransactionJob)
		if !ok {
			return fmt.Errorf("sync handler: unexpected job type %s", job.GetType())
		}

		pageID, err := appender.Append(ctx, syncJob.Transaction)
		if err != nil {
			log.Error().Err(err).Str("job_id", syncJob.JobID).Msg("Transaction sync failed")
			return fmt.Errorf("sync handler: %w", err)
		}

		syncJob.PageID = pageID
		log.Info().
			Str("job_id", syncJob.JobID).
			Str("page_id", pageID).
			Msg("Transaction synced to workspace")
		return nil
	}
}
