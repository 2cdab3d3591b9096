package dispatch

import (
	"context"
	"sync"
)

// Recorder is an in-memory Dispatcher for tests.
type Recorder struct {
	mu    sync.Mutex
	tasks []Task

	// Err, when set, is returned by Schedule.
	Err error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Schedule(_ context.Context, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.tasks = append(r.tasks, task)
	return nil
}

func (r *Recorder) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}
