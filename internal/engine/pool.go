package engine

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool is a fixed set of goroutines that run root search tasks. It is
// created once by the process and shared by every Engine.
type Pool struct {
	size  int
	tasks chan func()
	group errgroup.Group
	once  sync.Once
}

// NewPool starts size workers. A size below 1 uses one worker per CPU.
func NewPool(size int) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:  size,
		tasks: make(chan func()),
	}
	for i := 0; i < size; i++ {
		p.group.Go(func() error {
			for task := range p.tasks {
				task()
			}
			return nil
		})
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Run executes every task on the pool and returns once all have finished.
// It must not be called from inside a task or after Close.
func (p *Pool) Run(tasks []func()) {
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, task := range tasks {
		p.tasks <- func() {
			defer wg.Done()
			task()
		}
	}
	wg.Wait()
}

// Close stops the workers after the queued tasks drain.
func (p *Pool) Close() error {
	p.once.Do(func() { close(p.tasks) })
	return p.group.Wait()
}
