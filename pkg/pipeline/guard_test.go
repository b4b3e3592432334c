package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard_NewerBeginSupersedes(t *testing.T) {
	var g Guard
	ctx1, t1 := g.Begin(context.Background())
	ctx2, t2 := g.Begin(context.Background())

	assert.Error(t, ctx1.Err(), "older context is cancelled")
	assert.NoError(t, ctx2.Err())
	assert.False(t, g.Current(t1))
	assert.True(t, g.Current(t2))

	assert.False(t, g.Done(t1))
	assert.True(t, g.InFlight())
	assert.True(t, g.Done(t2))
	assert.False(t, g.InFlight())
	assert.Error(t, ctx2.Err(), "context released once done")
}

func TestGuard_Abandon(t *testing.T) {
	var g Guard
	assert.False(t, g.Abandon(), "nothing in flight")

	ctx, tok := g.Begin(context.Background())
	assert.True(t, g.Abandon())
	assert.Error(t, ctx.Err())
	assert.False(t, g.Done(tok))
	assert.False(t, g.Abandon())
}

func TestGuard_ParentCancellation(t *testing.T) {
	var g Guard
	parent, cancel := context.WithCancel(context.Background())
	ctx, tok := g.Begin(parent)
	cancel()
	assert.Error(t, ctx.Err())
	assert.True(t, g.Done(tok), "parent cancellation does not make the token stale")
}

func TestGuard_FinishSkipsStaleToken(t *testing.T) {
	var g Guard
	_, t1 := g.Begin(context.Background())
	_, t2 := g.Begin(context.Background())

	ran := false
	assert.False(t, g.Finish(t1, func() { ran = true }))
	assert.False(t, ran, "stale result is not applied")

	assert.True(t, g.Finish(t2, func() { ran = true }))
	assert.True(t, ran)
	assert.False(t, g.InFlight())
}

func TestGuard_BeginWaitsForFinish(t *testing.T) {
	var g Guard
	_, t1 := g.Begin(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan bool)
	go func() {
		finished <- g.Finish(t1, func() {
			close(entered)
			<-release
		})
	}()
	<-entered

	begun := make(chan Token)
	go func() {
		_, tok := g.Begin(context.Background())
		begun <- tok
	}()

	select {
	case <-begun:
		t.Fatal("Begin ran while a result was being applied")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.True(t, <-finished)
	t2 := <-begun
	assert.True(t, g.Current(t2))
	assert.False(t, g.Current(t1))
}
