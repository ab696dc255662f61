package threadpool

import (
	"fmt"

	"concore/debug"
)

// Task is a unit of work for a pool built by NewFunc.
type Task func()

// Runner runs Tasks. A panicking task is reported and swallowed so it can
// not take its worker thread down with it.
type Runner struct{}

// Consume implements Consumer.
func (Runner) Consume(task Task) {
	defer func() {
		if r := recover(); r != nil {
			debug.DropMessage("THREADPOOL", fmt.Sprintf("task panicked: %v", r))
		}
	}()
	task()
}

// NewFunc builds a pool of plain functions.
func NewFunc(cfg Config) (*Pool[Task, Runner], error) {
	return New[Task](Runner{}, cfg)
}
