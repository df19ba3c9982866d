package gather

import (
	"golang.org/x/sync/errgroup"

	"erdspy/internal/logger"
)

// Pool runs tasks with at most limit in flight. Go blocks while the pool is
// full. Task errors are logged and never cancel siblings.
type Pool struct {
	g errgroup.Group
}

// NewPool returns a pool bounded to limit; limit < 1 runs one task at a time.
func NewPool(limit int) *Pool {
	p := &Pool{}
	p.g.SetLimit(max(limit, 1))
	return p
}

// Go schedules task, waiting for a free slot first.
func (p *Pool) Go(name string, task func() error) {
	p.g.Go(func() error {
		if err := task(); err != nil {
			logger.Error("%s: %v", name, err)
		}
		return nil
	})
}

// Wait blocks until every scheduled task has finished.
func (p *Pool) Wait() {
	_ = p.g.Wait()
}
