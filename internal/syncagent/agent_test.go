package syncagent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/evade6ix/gundamwebsite/internal/ledger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	pushes [][]ledger.Item
	err    error
}

func (r *recorder) push(_ context.Context, items []ledger.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, items)
	return r.err
}

func TestPushSendsFullState(t *testing.T) {
	rec := &recorder{}
	a := New(rec.push, nil)

	items := []ledger.Item{{ID: "A", Name: "Zaku", Count: 2}, {ID: "B", Count: 1}}
	res := a.Push(context.Background(), items)
	require.NoError(t, res.Wait(context.Background()))

	// the command keeps its own copy
	items[0].Count = 99
	assert.Equal(t, 2, res.Items[0].Count)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, [][]ledger.Item{{{ID: "A", Name: "Zaku", Count: 2}, {ID: "B", Count: 1}}}, rec.pushes)
}

func TestEveryPushIsIssued(t *testing.T) {
	rec := &recorder{}
	a := New(rec.push, nil)

	ids := map[string]bool{}
	for i := 1; i <= 5; i++ {
		r := a.Push(context.Background(), []ledger.Item{{ID: "A", Count: i}})
		ids[r.ID] = true
	}
	a.Wait()

	assert.Len(t, rec.pushes, 5)
	assert.Len(t, ids, 5)
}

func TestPushFailureIsReportedAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rec := &recorder{err: errors.New("503")}
	a := New(rec.push, zap.New(core))

	res := a.Push(context.Background(), []ledger.Item{{ID: "A", Count: 1}})
	<-res.Done()

	assert.EqualError(t, res.Err(), "503")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, res.ID, logs.All()[0].ContextMap()["push_id"])
}

func TestPushSurvivesCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	var got context.Context
	a := New(func(ctx context.Context, _ []ledger.Item) error {
		<-release
		got = ctx
		return ctx.Err()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	res := a.Push(ctx, nil)
	cancel()
	close(release)

	require.NoError(t, res.Wait(context.Background()))
	assert.NotNil(t, got)
}

func TestPushTimeout(t *testing.T) {
	a := New(func(ctx context.Context, _ []ledger.Item) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil, WithTimeout(10*time.Millisecond))

	res := a.Push(context.Background(), nil)
	assert.ErrorIs(t, res.Wait(context.Background()), context.DeadlineExceeded)
}

func TestResultWaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	a := New(func(context.Context, []ledger.Item) error {
		<-release
		return nil
	}, nil)
	res := a.Push(context.Background(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, res.Wait(ctx), context.DeadlineExceeded)
	assert.NoError(t, res.Err(), "unsettled result reports no error yet")

	close(release)
	a.Wait()
}

func TestSettled(t *testing.T) {
	r := Settled(nil)
	assert.NoError(t, r.Wait(context.Background()))
	assert.EqualError(t, Settled(errors.New("x")).Err(), "x")
}
