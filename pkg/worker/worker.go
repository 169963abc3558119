package worker

import (
	"context"
	"sync"

	"github.com/nimasrn/campaign-console/pkg/logger"
)

type WorkerHandler[T any] func(ctx context.Context, workerIndex int, job T)

// WorkerManager is a fixed pool of goroutines draining one buffered job
// channel. Publishing never blocks: when the buffer is full the job is
// refused and the caller decides what to do with it.
type WorkerManager[T any] struct {
	bufferSize     int
	jobChannel     chan T
	numberOfWorker int
	do             WorkerHandler[T]
	waiter         sync.WaitGroup
	closeOnce      sync.Once
}

func NewWorkerManager[T any](bufferSize, numberOfWorkers int) *WorkerManager[T] {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &WorkerManager[T]{
		bufferSize:     bufferSize,
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan T, bufferSize),
	}
}

func (w *WorkerManager[T]) GetUnreadCount() int {
	return len(w.jobChannel)
}

func (w *WorkerManager[T]) SetWorker(worker WorkerHandler[T]) {
	w.do = worker
}

// TryEnqueue publishes job unless the buffer is full.
func (w *WorkerManager[T]) TryEnqueue(job T) (ok bool) {
	defer func() {
		// publishing after Exit
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case w.jobChannel <- job:
		return true
	default:
		return false
	}
}

// Start launches the workers and returns immediately. Workers stop when ctx
// is done or, after Exit, once the buffer is drained.
func (w *WorkerManager[T]) Start(ctx context.Context) {
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job, ok := <-w.jobChannel:
					if !ok {
						return
					}
					w.do(ctx, index, job)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

// Exit stops accepting jobs and waits until the queued ones are processed.
func (w *WorkerManager[T]) Exit() {
	logger.Info("worker manager is shutting down", "pending", len(w.jobChannel))
	w.closeOnce.Do(func() { close(w.jobChannel) })
	w.waiter.Wait()
}
