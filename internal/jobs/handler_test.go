package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
)

type stubAppender struct {
	pageID string
	err    error
	got    []domain.Transaction
}

func (s *stubAppender) Append(_ context.Context, tx domain.Transaction) (string, error) {
	s.got = append(s.got, tx)
	return s.pageID, s.err
}

func TestSyncHandler_AppendsTransaction(t *testing.T) {
	appender := &stubAppender{pageID: "page-7"}
	handler := NewSyncHandler(appender, zerolog.Nop())

	job := &SyncTransactionJob{
		JobID:       "j1",
		Transaction: domain.Transaction{Detail: "ABC Store"},
	}

	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if job.PageID != "page-7" {
		t.Errorf("PageID = %q, want page-7", job.PageID)
	}
	if len(appender.got) != 1 || appender.got[0].Detail != "ABC Store" {
		t.Errorf("appended = %+v", appender.got)
	}
}

func TestSyncHandler_PropagatesAppendError(t *testing.T) {
	appender := &stubAppender{err: errors.New("rate limited")}
	handler := NewSyncHandler(appender, zerolog.Nop())

	job := &SyncTransactionJob{JobID: "j1"}
	if err := handler(context.Background(), job); err == nil {
		t.Fatal("handler should propagate append errors")
	}
	if job.PageID != "" {
		t.Errorf("PageID = %q, want empty", job.PageID)
	}
}

type otherJob struct{}

func (otherJob) GetID() string        { return "x" }
func (otherJob) GetType() JobType     { return JobType("other") }
func (otherJob) GetStatus() JobStatus { return JobStatusPending }

func TestSyncHandler_RejectsForeignJobType(t *testing.T) {
	handler := NewSyncHandler(&stubAppender{}, zerolog.Nop())
	if err := handler(context.Background(), otherJob{}); err == nil {
		t.Fatal("handler should reject non-sync jobs")
	}
}
