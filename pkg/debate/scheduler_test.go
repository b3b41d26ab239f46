package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"Rostrum/pkg/llm"
	"Rostrum/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway records every Send call and delegates to fn. When fn is nil
// it returns a canned response.
type fakeGateway struct {
	mu    sync.Mutex
	calls []llm.SendRequest
	fn    func(call int, req llm.SendRequest) (string, error)
}

func (g *fakeGateway) Send(ctx context.Context, req llm.SendRequest) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	n := len(g.calls)
	g.mu.Unlock()

	if g.fn != nil {
		return g.fn(n, req)
	}
	return "a compelling argument", nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// fastRetry keeps the standard 3-attempt policy but with negligible delays
// so tests do not sleep.
func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2.0}
}

func testConfig(rounds int) Config {
	return Config{
		Topic:     "Should cities ban cars from downtown?",
		NumRounds: rounds,
		Agents: []AgentConfig{
			{ID: "agent-pro", Name: "Pro Advocate", Role: RoleDebater, Stance: "Pro",
				SystemPrompt: "You argue in favor.", Temperature: 0.7, MaxTokens: 1024},
			{ID: "agent-con", Name: "Con Advocate", Role: RoleDebater, Stance: "Con",
				SystemPrompt: "You argue against.", Temperature: 0.7, MaxTokens: 1024},
		},
		Judge: AgentConfig{ID: "judge-1", Name: "The Judge", Role: RoleJudge, Stance: "Neutral",
			SystemPrompt: "You judge debates.", Temperature: 0.3, MaxTokens: 2048},
	}
}

func transientErr() error {
	return &llm.ProviderError{Provider: "openai", StatusCode: 503, Transient: true, Err: errors.New("service unavailable")}
}

func fatalErr() error {
	return &llm.ProviderError{Provider: "openai", StatusCode: 401, Transient: false, Err: errors.New("invalid api key")}
}

func TestTurnScheduler_NextAgent(t *testing.T) {
	s := NewTurnScheduler(&fakeGateway{}, fastRetry())
	state := NewState(testConfig(2))

	tests := []struct {
		currentTurn int
		wantAgentID string
	}{
		{0, "agent-pro"},
		{1, "agent-con"},
		{2, "agent-pro"},
		{3, "agent-con"},
	}
	for _, tt := range tests {
		state.CurrentTurn = tt.currentTurn
		agent, err := s.NextAgent(state)
		require.NoError(t, err)
		assert.Equal(t, tt.wantAgentID, agent.ID, "turn %d", tt.currentTurn)
	}
}

func TestTurnScheduler_NextAgent_EmptyRoster(t *testing.T) {
	s := NewTurnScheduler(&fakeGateway{}, fastRetry())
	state := &State{Config: Config{Topic: "x", NumRounds: 1}}

	_, err := s.NextAgent(state)
	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
}

func TestTurnScheduler_TurnOrder(t *testing.T) {
	s := NewTurnScheduler(&fakeGateway{}, fastRetry())
	state := NewState(testConfig(1))

	assert.Equal(t, []string{"agent-pro", "agent-con"}, s.TurnOrder(state))
}

func TestTurnScheduler_TotalTurns(t *testing.T) {
	s := NewTurnScheduler(&fakeGateway{}, fastRetry())

	state := NewState(testConfig(3))
	assert.Equal(t, 6, s.TotalTurns(state))
}

func TestTurnScheduler_ExecuteTurn(t *testing.T) {
	gateway := &fakeGateway{}
	s := NewTurnScheduler(gateway, fastRetry())
	state := NewState(testConfig(2))
	state.CurrentRound = 1
	state.CurrentTurn = 0

	msg, err := s.ExecuteTurn(context.Background(), state, state.Config.Agents[0])
	require.NoError(t, err)

	assert.Equal(t, "agent-pro", msg.AgentID)
	assert.Equal(t, "Pro Advocate", msg.AgentName)
	assert.Equal(t, "Pro", msg.Stance)
	assert.Equal(t, "a compelling argument", msg.Content)
	assert.Equal(t, 1, msg.RoundNumber)
	assert.Equal(t, 0, msg.TurnNumber)
	assert.False(t, msg.Timestamp.IsZero())

	require.Equal(t, 1, gateway.callCount())
	req := gateway.calls[0]
	assert.Contains(t, req.SystemPrompt, "You argue in favor.")
	assert.Contains(t, req.SystemPrompt, state.Config.Topic)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "opening statement")
}

func TestTurnScheduler_ExecuteTurn_TransientRetriesThenSucceeds(t *testing.T) {
	gateway := &fakeGateway{
		fn: func(call int, req llm.SendRequest) (string, error) {
			if call < 3 {
				return "", transientErr()
			}
			return "recovered response", nil
		},
	}
	s := NewTurnScheduler(gateway, fastRetry())
	state := NewState(testConfig(1))
	state.CurrentRound = 1

	msg, err := s.ExecuteTurn(context.Background(), state, state.Config.Agents[0])
	require.NoError(t, err)
	assert.Equal(t, "recovered response", msg.Content)
	assert.Equal(t, 3, gateway.callCount())
}

func TestTurnScheduler_ExecuteTurn_ExhaustedRetries(t *testing.T) {
	gateway := &fakeGateway{
		fn: func(call int, req llm.SendRequest) (string, error) {
			return "", transientErr()
		},
	}
	s := NewTurnScheduler(gateway, fastRetry())
	state := NewState(testConfig(1))
	state.CurrentRound = 1

	_, err := s.ExecuteTurn(context.Background(), state, state.Config.Agents[0])

	var turnErr *TurnExecutionError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, "agent-pro", turnErr.AgentID)
	assert.Equal(t, 3, turnErr.Attempts)
	assert.Equal(t, 3, gateway.callCount())

	var provErr *llm.ProviderError
	assert.ErrorAs(t, err, &provErr)
}

func TestTurnScheduler_ExecuteTurn_FatalNoRetry(t *testing.T) {
	gateway := &fakeGateway{
		fn: func(call int, req llm.SendRequest) (string, error) {
			return "", fatalErr()
		},
	}
	s := NewTurnScheduler(gateway, fastRetry())
	state := NewState(testConfig(1))
	state.CurrentRound = 1

	_, err := s.ExecuteTurn(context.Background(), state, state.Config.Agents[0])

	var turnErr *TurnExecutionError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, 1, turnErr.Attempts)
	assert.Equal(t, 1, gateway.callCount(), "fatal errors must not be retried")
}

func TestTurnScheduler_ExecuteTurn_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gateway := &fakeGateway{
		fn: func(call int, req llm.SendRequest) (string, error) {
			cancel()
			return "", ctx.Err()
		},
	}
	s := NewTurnScheduler(gateway, fastRetry())
	state := NewState(testConfig(1))
	state.CurrentRound = 1

	_, err := s.ExecuteTurn(ctx, state, state.Config.Agents[0])

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var turnErr *TurnExecutionError
	assert.False(t, errors.As(err, &turnErr), "cancellation must not be wrapped as a turn failure")
}

func TestTurnScheduler_ExecuteTurn_HistoryInContext(t *testing.T) {
	gateway := &fakeGateway{}
	s := NewTurnScheduler(gateway, fastRetry())
	state := NewState(testConfig(2))
	state.CurrentRound = 1
	state.CurrentTurn = 1
	state.AddMessage(Message{
		AgentID: "agent-pro", AgentName: "Pro Advocate", Stance: "Pro",
		Content: "Opening argument.", RoundNumber: 1, TurnNumber: 0,
	})

	_, err := s.ExecuteTurn(context.Background(), state, state.Config.Agents[1])
	require.NoError(t, err)

	userContext := gateway.calls[0].Messages[0].Content
	assert.Contains(t, userContext, "[Round 1, Turn 1] Pro Advocate (Pro): Opening argument.")
	assert.False(t, strings.Contains(userContext, "opening statement"),
		"non-empty history must ask for a response, got: %s", userContext)
}

func TestTurnScheduler_RetryNotifyCountsAttempts(t *testing.T) {
	callErrs := []error{transientErr(), fmt.Errorf("connection refused")}
	gateway := &fakeGateway{
		fn: func(call int, req llm.SendRequest) (string, error) {
			if call <= len(callErrs) {
				return "", callErrs[call-1]
			}
			return "done", nil
		},
	}
	s := NewTurnScheduler(gateway, fastRetry())
	state := NewState(testConfig(1))
	state.CurrentRound = 1

	text, attempts, err := s.sendWithRetry(context.Background(), state.Config.Agents[0], "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, 3, attempts)
}
