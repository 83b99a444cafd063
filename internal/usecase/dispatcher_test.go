package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyCast/internal/domain"
)

type recordingAgent struct {
	done chan domain.AgentRequest
}

func (a *recordingAgent) Handle(_ context.Context, req domain.AgentRequest) error {
	a.done <- req
	return nil
}

type blockingAgent struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (a *blockingAgent) Handle(ctx context.Context, _ domain.AgentRequest) error {
	close(a.started)
	select {
	case <-a.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.err
}

type panickingAgent struct{}

func (panickingAgent) Handle(context.Context, domain.AgentRequest) error {
	panic("agent exploded")
}

func TestDispatchUnknownTarget(t *testing.T) {
	t.Parallel()

	d := NewAsyncDispatcher(time.Second, nil)
	require.Error(t, d.Dispatch(context.Background(), "nobody", domain.AgentRequest{}))
}

func TestDispatchReturnsBeforeAgentFinishes(t *testing.T) {
	t.Parallel()

	agent := &blockingAgent{started: make(chan struct{}), release: make(chan struct{}), err: errors.New("ignored")}
	d := NewAsyncDispatcher(time.Minute, nil)
	d.Register("cfo", agent)

	require.NoError(t, d.Dispatch(context.Background(), "cfo", domain.AgentRequest{}))
	<-agent.started

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, d.Wait(waitCtx), context.DeadlineExceeded, "agent is still running")

	close(agent.release)
	require.NoError(t, d.Wait(context.Background()))
}

func TestDispatchSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	agent := &blockingAgent{started: make(chan struct{}), release: make(chan struct{})}
	d := NewAsyncDispatcher(time.Minute, nil)
	d.Register("cfo", agent)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, "cfo", domain.AgentRequest{}))
	cancel()
	<-agent.started

	close(agent.release)
	require.NoError(t, d.Wait(context.Background()))
}

func TestDispatchRecoversPanics(t *testing.T) {
	t.Parallel()

	d := NewAsyncDispatcher(time.Second, nil)
	d.Register("rotation", panickingAgent{})

	require.NoError(t, d.Dispatch(context.Background(), "rotation", domain.AgentRequest{}))
	require.NoError(t, d.Wait(context.Background()))
}
