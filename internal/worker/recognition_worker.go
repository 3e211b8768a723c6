package worker

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// JobCompleter applies a finished recognition pass to a job. Implemented by
// service.JobService.
type JobCompleter interface {
	CompleteRecognition(ctx context.Context, jobID uuid.UUID) error
}

// RecognitionWorker drains the recognition queue on a fixed set of
// goroutines. SubmitScan enqueues a job id and returns; a worker later
// re-acquires the per-job lock inside CompleteRecognition and applies the
// result, so recognition never races a synchronous mutation.
type RecognitionWorker struct {
	id        string
	completer JobCompleter
	queue     chan uuid.UUID
	workers   int
	wg        sync.WaitGroup

	// mu guards closing and the send into queue, so Enqueue can never race
	// the close in Run.
	mu      sync.Mutex
	closing bool
}

// NewRecognitionWorker creates the worker with a random identifier. The queue
// buffers up to queueSize pending jobs.
func NewRecognitionWorker(completer JobCompleter, workers, queueSize int) *RecognitionWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &RecognitionWorker{
		id:        uuid.New().String(),
		completer: completer,
		queue:     make(chan uuid.UUID, queueSize),
		workers:   workers,
	}
}

// Enqueue hands a job to the pipeline without blocking. It reports false when
// the worker is shutting down or the queue is full; the job then stays in
// SCAN_RECEIVED until the requeue sweep picks it up.
func (w *RecognitionWorker) Enqueue(jobID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closing {
		log.Printf("recognition worker %s closing, dropping job %s", w.id, jobID)
		return false
	}
	select {
	case w.queue <- jobID:
		return true
	default:
		log.Printf("recognition queue full, dropping job %s", jobID)
		return false
	}
}

// Run starts the worker goroutines and blocks until the context is canceled,
// then waits for in-flight recognitions to finish. Should be launched in its
// own goroutine.
func (w *RecognitionWorker) Run(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop()
	}
	<-ctx.Done()
	w.mu.Lock()
	w.closing = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
	log.Println("recognition worker shut down")
}

func (w *RecognitionWorker) loop() {
	defer w.wg.Done()
	for jobID := range w.queue {
		// Completion uses a fresh context: a canceled request context must
		// not abort a recognition that was already accepted.
		if err := w.completer.CompleteRecognition(context.Background(), jobID); err != nil {
			log.Printf("complete recognition for job %s failed: %v", jobID, err)
		}
	}
}
