// Package parallel provides a small fixed-size worker pool for fanning
// independent per-file jobs out over the available CPUs.
package parallel

import (
	"runtime"
	"sync"
)

// Pool runs submitted tasks on a fixed set of workers. With a single worker
// the pool degenerates to running tasks inline on Submit, which keeps the
// serial path allocation-free and deterministic.
type Pool struct {
	wg    sync.WaitGroup
	tasks chan func()
	close func()
}

// Start launches a pool with the given number of workers. Values below 1
// mean one worker per available CPU.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{}
	if numWorkers == 1 {
		p.close = func() {}
		return p
	}

	p.tasks = make(chan func(), numWorkers)
	p.close = sync.OnceFunc(func() { close(p.tasks) })
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Submit hands a task to the pool. In serial mode the task runs before
// Submit returns. Submitting after Close panics on a closed channel, same
// as sending on any closed channel would.
func (p *Pool) Submit(task func()) {
	if p.tasks == nil {
		task()
		return
	}
	p.tasks <- task
}

// Close stops accepting tasks and blocks until every submitted task has
// finished. Safe to call more than once.
func (p *Pool) Close() {
	p.close()
	p.wg.Wait()
}
