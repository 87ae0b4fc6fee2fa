package pool

import (
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Submitter runs a task detached from the caller.
type Submitter interface {
	Submit(task func()) error
}

// Pool - bounded goroutine pool. Submit never waits: when every worker is
// busy it fails with ants.ErrPoolOverload.
type Pool struct {
	antsPool *ants.Pool
}

func New(size int, logger *zap.Logger) (*Pool, error) {
	p, err := ants.NewPool(size, ants.WithNonblocking(true), ants.WithPanicHandler(func(data interface{}) {
		logger.Error("pool task panicked", zap.Any("panic", data))
	}))
	if err != nil {
		return nil, err
	}
	return &Pool{antsPool: p}, nil
}

func (p *Pool) Submit(task func()) error {
	return p.antsPool.Submit(task)
}

// Running - number of tasks currently executing
func (p *Pool) Running() int {
	return p.antsPool.Running()
}

func (p *Pool) Release() {
	p.antsPool.Release()
}

// Drain stops accepting tasks and waits up to timeout for running ones.
func (p *Pool) Drain(timeout time.Duration) error {
	return p.antsPool.ReleaseTimeout(timeout)
}
