package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
	"github.com/vijay-kartik/iphonetoagent/internal/jobs"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestQueue_ProcessesPublishedJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)
	defer q.Close()

	var mu sync.Mutex
	var handled []string

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, job.GetID())
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.SyncTransactionJob{
		Transaction: domain.Transaction{Detail: "ABC Store", Type: domain.TypeOutflow},
	}
	if err := q.PublishSyncTransaction(context.Background(), job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("Publish did not assign a job ID")
	}

	waitFor(t, 2*time.Second, func() bool {
		stored, err := store.GetJob(context.Background(), job.JobID)
		return err == nil && stored.Status == jobs.JobStatusCompleted
	})

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != job.JobID {
		t.Errorf("handled = %v, want [%s]", handled, job.JobID)
	}
}

func TestQueue_RetriesFailedJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)
	defer q.Close()

	var mu sync.Mutex
	attempts := 0

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("workspace unavailable")
		}
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.SyncTransactionJob{MaxRetries: 2}
	if err := q.PublishSyncTransaction(context.Background(), job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		stored, err := store.GetJob(context.Background(), job.JobID)
		return err == nil && stored.Status == jobs.JobStatusCompleted
	})

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestQueue_RejectsPublishAfterClose(t *testing.T) {
	q := NewQueue(1, 1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := q.PublishSyncTransaction(context.Background(), &jobs.SyncTransactionJob{})
	if err == nil {
		t.Fatal("Publish on closed queue should fail")
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.SyncTransactionJob{
		JobID:  "job-1",
		Status: jobs.JobStatusPending,
		Transaction: domain.Transaction{
			Detail: "Salary credit",
			Type:   domain.TypeInflow,
		},
	}

	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Transaction.Detail != "Salary credit" {
		t.Errorf("Detail = %q", got.Transaction.Detail)
	}

	// The stored copy must not alias the caller's struct
	job.Transaction.Detail = "mutated"
	got, _ = store.GetJob(ctx, "job-1")
	if got.Transaction.Detail != "Salary credit" {
		t.Error("store returned an aliased job")
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := NewStore()
	if err := store.SaveJob(context.Background(), &jobs.SyncTransactionJob{}); err == nil {
		t.Fatal("SaveJob should reject a job without ID")
	}
}

func TestStore_ListJobsFiltersByStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_ = store.SaveJob(ctx, &jobs.SyncTransactionJob{JobID: "a", Status: jobs.JobStatusCompleted})
	_ = store.SaveJob(ctx, &jobs.SyncTransactionJob{JobID: "b", Status: jobs.JobStatusFailed})
	_ = store.SaveJob(ctx, &jobs.SyncTransactionJob{JobID: "c", Status: jobs.JobStatusFailed})

	failed, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(failed) != 2 {
		t.Errorf("len(failed) = %d, want 2", len(failed))
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_ = store.SaveJob(ctx, &jobs.SyncTransactionJob{JobID: "a", Status: jobs.JobStatusPending})

	if err := store.UpdateJobStatus(ctx, "a", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	got, _ := store.GetJob(ctx, "a")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("job = %+v", got)
	}

	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("UpdateJobStatus should fail for unknown job")
	}
}
