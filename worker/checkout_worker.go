package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"checkout-payment-api/database"
	"checkout-payment-api/models"
	"checkout-payment-api/queue"
	"checkout-payment-api/services/checkout"
)

// Worker handles background checkout housekeeping: persisting completion
// outcomes and reaping idle sessions.
type Worker struct {
	queue     *queue.Queue
	db        *database.Connection
	registry  *checkout.Registry
	shutdown  chan struct{}
	isRunning bool
}

func NewWorker(q *queue.Queue, db *database.Connection, registry *checkout.Registry) *Worker {
	return &Worker{
		queue:    q,
		db:       db,
		registry: registry,
		shutdown: make(chan struct{}),
	}
}

// Start begins processing jobs and launches the delayed-job mover.
func (w *Worker) Start(concurrency int) {
	w.isRunning = true

	for i := 0; i < concurrency; i++ {
		go w.processJobs(i)
	}
	go w.moveDelayedJobs()

	log.Printf("Started %d worker goroutines", concurrency)
}

// Stop signals the worker to stop processing jobs
func (w *Worker) Stop() {
	if !w.isRunning {
		return
	}

	log.Println("Stopping worker...")
	close(w.shutdown)
	w.isRunning = false
}

// moveDelayedJobs promotes due delayed jobs onto the main queue.
func (w *Worker) moveDelayedJobs() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

func (w *Worker) processJobs(workerID int) {
	log.Printf("Worker %d starting", workerID)

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			cancel()

			if err != nil {
				log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if job == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			log.Printf("Worker %d processing job %s of type %s", workerID, job.ID, job.Type)

			jobErr := w.processJob(job)
			if jobErr != nil {
				log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				failErr := w.queue.FailJob(ctx, job, jobErr)
				cancel()

				if failErr != nil {
					log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, failErr)
				}

				time.Sleep(time.Second)
				continue
			}

			ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			completeErr := w.queue.CompleteJob(ctx, job)
			cancel()

			if completeErr != nil {
				log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, completeErr)
			}
		}
	}
}

func (w *Worker) processJob(job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeRecordOutcome:
		return w.processRecordOutcome(job)
	case queue.JobTypeReapSession:
		return w.processReapSession(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processRecordOutcome(job *queue.Job) error {
	sessionID, ok := job.Data["session_id"].(string)
	if !ok || sessionID == "" {
		return fmt.Errorf("invalid session_id in job data")
	}
	trigger, _ := job.Data["trigger"].(string)

	raw, ok := job.Data["result"]
	if !ok {
		return fmt.Errorf("missing result in job data")
	}

	// The result round-trips through the job's JSON envelope.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode result: %v", err)
	}
	var result models.OrderCompletionResult
	if err := json.Unmarshal(encoded, &result); err != nil {
		return fmt.Errorf("failed to decode result: %v", err)
	}

	log.Printf("Recording completion outcome for session %s", sessionID)
	return w.db.SaveCompletionResult(sessionID, trigger, result)
}

func (w *Worker) processReapSession(job *queue.Job) error {
	sessionID, ok := job.Data["session_id"].(string)
	if !ok || sessionID == "" {
		return fmt.Errorf("invalid session_id in job data")
	}

	if w.registry.Reap(sessionID) {
		log.Printf("Reaped idle checkout session %s", sessionID)
		if err := w.db.MarkSessionAbandoned(sessionID); err != nil {
			return fmt.Errorf("failed to mark session abandoned: %v", err)
		}
	}
	return nil
}
