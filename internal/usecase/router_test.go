package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"DailyCast/internal/domain"
)

var testRoutes = map[string]string{"cfo": "cfo", "source_rotation": "source_rotation"}

func newTestRouter(model *fakeModel, notifier *fakeNotifier, dispatcher *fakeDispatcher) *Router {
	return NewRouter(RouterDeps{
		Model:        model,
		Notifier:     notifier,
		Dispatcher:   dispatcher,
		SystemPrompt: "concierge",
		Routes:       testRoutes,
		Fallback:     "source_rotation",
	})
}

var testCommand = domain.OperatorCommand{ChatID: "42", MessageID: 9, Text: "pause everything, we're over budget"}

func TestRouterSelfRepliesWithoutDispatch(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{`{"route":"self","action":"status","response":"All systems nominal."}`}}
	notifier := &fakeNotifier{}
	dispatcher := &fakeDispatcher{}

	decision, err := newTestRouter(model, notifier, dispatcher).Handle(context.Background(), testCommand)
	require.NoError(t, err)
	require.Equal(t, domain.RouteSelf, decision.Route)
	require.Equal(t, []domain.ChatMessage{{ChatID: "42", Text: "All systems nominal."}}, notifier.messages())
	require.Empty(t, dispatcher.dispatched())

	prompts := model.seen()
	require.Len(t, prompts, 1)
	require.Equal(t, testCommand.Text, prompts[0].User)
	require.Equal(t, conciergeMaxTokens, prompts[0].MaxTokens)
}

func TestRouterDispatchesExactlyOneTarget(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{"```json\n{\"route\":\"cfo\",\"action\":\"pause\",\"response\":\"Handing to the CFO.\",\"requires_confirmation\":true}\n```"}}
	notifier := &fakeNotifier{}
	dispatcher := &fakeDispatcher{}

	decision, err := newTestRouter(model, notifier, dispatcher).Handle(context.Background(), testCommand)
	require.NoError(t, err)
	require.True(t, decision.RequiresConfirmation)
	require.Len(t, notifier.messages(), 1)
	require.Equal(t, []dispatchCall{{
		Target: "cfo",
		Req:    domain.AgentRequest{OperatorCommand: testCommand.Text, ChatID: "42"},
	}}, dispatcher.dispatched())
}

func TestRouterUnknownRouteUsesFallback(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{`{"route":"growth","response":"ok"}`}}
	dispatcher := &fakeDispatcher{}

	_, err := newTestRouter(model, &fakeNotifier{}, dispatcher).Handle(context.Background(), testCommand)
	require.NoError(t, err)
	calls := dispatcher.dispatched()
	require.Len(t, calls, 1)
	require.Equal(t, "source_rotation", calls[0].Target)
}

func TestRouterMissingFieldsDefault(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{`{}`}}
	notifier := &fakeNotifier{}
	dispatcher := &fakeDispatcher{}

	decision, err := newTestRouter(model, notifier, dispatcher).Handle(context.Background(), testCommand)
	require.NoError(t, err)
	require.Equal(t, domain.RouteSelf, decision.Route)
	require.Equal(t, "(no message)", notifier.messages()[0].Text)
	require.Empty(t, dispatcher.dispatched())
}

func TestRouterReplyFailureDoesNotBlockDispatch(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{`{"route":"source_rotation","response":"Checking sources."}`}}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	dispatcher := &fakeDispatcher{}

	_, err := newTestRouter(model, notifier, dispatcher).Handle(context.Background(), testCommand)
	require.ErrorContains(t, err, "telegram down")
	require.Len(t, dispatcher.dispatched(), 1)
}

func TestRouterDispatchFailureDoesNotBlockReply(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{`{"route":"cfo","response":"On it."}`}}
	notifier := &fakeNotifier{}
	dispatcher := &fakeDispatcher{err: errors.New("unknown target")}

	_, err := newTestRouter(model, notifier, dispatcher).Handle(context.Background(), testCommand)
	require.ErrorContains(t, err, "unknown target")
	require.Len(t, notifier.messages(), 1)
}

func TestRouterClassificationFailureStillReplies(t *testing.T) {
	t.Parallel()

	for name, model := range map[string]*fakeModel{
		"model error":   {err: errors.New("overloaded")},
		"unparseable":   {replies: []string{"I think this is about costs"}},
		"not an object": {replies: []string{`["cfo"]`}},
	} {
		notifier := &fakeNotifier{}
		dispatcher := &fakeDispatcher{}

		_, err := newTestRouter(model, notifier, dispatcher).Handle(context.Background(), testCommand)
		require.Error(t, err, name)
		require.Equal(t, []domain.ChatMessage{{ChatID: "42", Text: classifyFailReply}}, notifier.messages(), name)
		require.Empty(t, dispatcher.dispatched(), name)
	}
}

func TestRouterWithAsyncDispatcher(t *testing.T) {
	t.Parallel()

	agent := &recordingAgent{done: make(chan domain.AgentRequest, 1)}
	dispatcher := NewAsyncDispatcher(0, nil)
	dispatcher.Register("cfo", agent)

	model := &fakeModel{replies: []string{`{"route":"cfo","response":"Checking spend."}`}}
	router := NewRouter(RouterDeps{Model: model, Notifier: &fakeNotifier{}, Dispatcher: dispatcher, Routes: testRoutes})

	_, err := router.Handle(context.Background(), testCommand)
	require.NoError(t, err)
	require.NoError(t, dispatcher.Wait(context.Background()))
	require.Equal(t, domain.AgentRequest{OperatorCommand: testCommand.Text, ChatID: "42"}, <-agent.done)
}
