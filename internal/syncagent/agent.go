// Package syncagent pushes whole ledger states to the persistence service.
//
// Each Push is an independent command: no batching, no coalescing of rapid
// mutations, no retry and no rollback. The caller gets a Result it can wait
// on to learn whether the persisted state matches the displayed one.
package syncagent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evade6ix/gundamwebsite/internal/ledger"
	"github.com/evade6ix/gundamwebsite/internal/logging"
)

// PushFunc writes the full ledger payload.
type PushFunc func(ctx context.Context, items []ledger.Item) error

// Result is the outcome of one push command.
type Result struct {
	ID    string
	Items []ledger.Item

	done chan struct{}
	err  error
}

// Done is closed when the push settles.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Err returns the push error once Done is closed, nil before.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the push settles or ctx ends.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settled returns an already completed result, used when there is nothing to push.
func Settled(err error) *Result {
	r := &Result{done: make(chan struct{}), err: err}
	close(r.done)
	return r
}

type Agent struct {
	push    PushFunc
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// Option configures an Agent.
type Option func(*Agent)

// WithTimeout bounds each push independently of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = d }
}

func New(push PushFunc, logger *zap.Logger, opts ...Option) *Agent {
	a := &Agent{push: push, logger: logging.OrNop(logger)}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Push sends items as the entire current state. It returns immediately.
// The push is detached from ctx cancellation so that a view going away
// does not abort an in-flight write; ctx values are kept.
func (a *Agent) Push(ctx context.Context, items []ledger.Item) *Result {
	r := &Result{
		ID:    uuid.NewString(),
		Items: append([]ledger.Item(nil), items...),
		done:  make(chan struct{}),
	}

	pctx := context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(r.done)

		if a.timeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(pctx, a.timeout)
			defer cancel()
		}

		start := time.Now()
		r.err = a.push(pctx, r.Items)
		if r.err != nil {
			a.logger.Warn("ledger push failed; persisted state may diverge until the next push",
				zap.String("push_id", r.ID),
				zap.Int("entries", len(r.Items)),
				zap.Error(r.err))
			return
		}
		a.logger.Debug("ledger pushed",
			zap.String("push_id", r.ID),
			zap.Int("entries", len(r.Items)),
			zap.Duration("took", time.Since(start)))
	}()
	return r
}

// Wait blocks until every push issued so far has settled.
func (a *Agent) Wait() {
	a.wg.Wait()
}
