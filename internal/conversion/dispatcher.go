package conversion

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/pool"
	m "github.com/example/checkout-gateway/pkg/metrics"
)

type reporter interface {
	Report(ctx context.Context, ev Event) error
}

// Dispatcher sends events as detached tasks. Outcomes go to the log and the
// conversion counter only; callers never wait on them.
type Dispatcher struct {
	reporter reporter
	pool     pool.Submitter
	logger   *zap.Logger
}

func NewDispatcher(r reporter, p pool.Submitter, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{reporter: r, pool: p, logger: logger.Named("conversion")}
}

func (d *Dispatcher) Dispatch(ev Event) {
	task := func() {
		if err := d.reporter.Report(context.Background(), ev); err != nil {
			m.IncConversion("FAILED")
			d.logger.Error("conversion report failed", zap.String("event", ev.Name), zap.String("event_id", ev.EventID()), zap.Error(err))
			return
		}
		m.IncConversion("SUCCESS")
	}
	if err := d.pool.Submit(task); err != nil {
		m.IncConversion("DROPPED")
		d.logger.Error("conversion task rejected", zap.String("event_id", ev.EventID()), zap.Error(err))
	}
}
