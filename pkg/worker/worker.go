package worker

import (
	"errors"
	"sync"

	"github.com/rosadoagency/appointment-api/pkg/logger"
)

var ErrWorkerClosed = errors.New("worker manager is closed")

type WorkerHandler = func(workerIndex int, job interface{})

type WorkerManager struct {
	bufferSize     int
	jobChannel     chan interface{}
	numberOfWorker int
	do             WorkerHandler
	waiter         sync.WaitGroup
	mu             sync.RWMutex
	started        bool
	closed         bool
}

// NewWorkerManager
// is a job manager based on go routines. Define the number of internal
// workers, publish jobs with Enqueue and call Close once everything is
// published: Close stops accepting jobs and blocks until every queued job
// has been handled. A nil jobChannel gets a buffered channel of bufferSize.
func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}) *WorkerManager {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	return &WorkerManager{
		bufferSize:     bufferSize,
		numberOfWorker: numberOfWorkers,
		jobChannel:     jobChannel,
	}
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue
// Publishes a job onto the channel, blocks while the buffer is full.
func (w *WorkerManager) Enqueue(val interface{}) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWorkerClosed
	}
	w.jobChannel <- val
	return nil
}

// Start
// starts off the workers as many as defined
// by w.numberOfWorker, it does not block
func (w *WorkerManager) Start() error {
	if w.do == nil {
		return errors.New("worker handler is not set")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	w.started = true

	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for job := range w.jobChannel {
				w.run(index, job)
			}
		}(i)
	}
	return nil
}

// a panicking job must not take the worker (and the rest of the batch) down
func (w *WorkerManager) run(index int, job interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[worker] job panicked", "worker", index, "panic", r)
		}
	}()
	w.do(index, job)
}

// Close
// stops accepting jobs and waits for the queued ones to finish
func (w *WorkerManager) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobChannel)
	w.mu.Unlock()

	w.waiter.Wait()
}
