package organizer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

// Dispatcher runs each notification in its own goroutine. Notifications for
// different tabs are not serialised against each other; races between them
// are settled by the host and by the merge path of Consolidate.
type Dispatcher struct {
	ctx      context.Context
	orch     *Orchestrator
	wg       sync.WaitGroup
	inFlight atomic.Int64
	handled  atomic.Int64
}

// NewDispatcher binds the orchestrator to ctx. Cancelling ctx aborts
// in-flight host calls.
func NewDispatcher(ctx context.Context, orch *Orchestrator) *Dispatcher {
	return &Dispatcher{ctx: ctx, orch: orch}
}

// Dispatch starts handling n and returns immediately.
func (d *Dispatcher) Dispatch(n tabs.Notification) {
	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.inFlight.Add(-1)
		defer d.handled.Add(1)

		rep, err := d.orch.HandleUpdated(d.ctx, n)
		if err != nil {
			// Missed updates are corrected by the next notification.
			slog.Debug("organizer notification failed", "task_id", rep.TaskID, "tab_id", n.TabID, "error", err)
			return
		}
		if rep.Processed {
			slog.Debug("organizer notification handled", "task_id", rep.TaskID, "tab_id", n.TabID, "collapsed", len(rep.Collapsed))
		}
	}()
}

// InFlight returns the number of notifications still being handled.
func (d *Dispatcher) InFlight() int64 { return d.inFlight.Load() }

// Handled returns the number of notifications finished so far.
func (d *Dispatcher) Handled() int64 { return d.handled.Load() }

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }
