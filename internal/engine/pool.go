package engine

import "sync"

type task func()

// pool is a fixed-size worker pool for partition-level aggregation work.
type pool struct {
	tasks chan task
	wg    sync.WaitGroup
}

func newPool(numWorkers int) *pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &pool{tasks: make(chan task)}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				t()
			}
		}()
	}
	return p
}

func (p *pool) submit(t task) {
	p.tasks <- t
}

// close stops accepting tasks and waits for in-flight work to drain.
func (p *pool) close() {
	close(p.tasks)
	p.wg.Wait()
}
