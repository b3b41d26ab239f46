package debate

import (
	"context"
	"errors"
	"time"

	"Rostrum/pkg/llm"
	"Rostrum/pkg/logger"
	"Rostrum/pkg/retry"

	"github.com/cenkalti/backoff/v4"
)

// TurnScheduler decides which agent speaks next and executes one agent's
// turn against the LLM gateway with bounded retry and backoff.
type TurnScheduler struct {
	gateway llm.Gateway
	retry   retry.Config
}

// NewTurnScheduler creates a scheduler using the given gateway and retry
// policy. Use retry.DefaultConfig() for the standard 3 attempts with
// 2s/4s backoff.
func NewTurnScheduler(gateway llm.Gateway, retryConfig retry.Config) *TurnScheduler {
	return &TurnScheduler{
		gateway: gateway,
		retry:   retryConfig,
	}
}

// NextAgent returns the agent whose turn it is: agents[current_turn mod
// len(agents)]. An empty roster, normally prevented by config validation,
// returns a ConfigurationError.
func (s *TurnScheduler) NextAgent(state *State) (AgentConfig, error) {
	numAgents := len(state.Config.Agents)
	if numAgents == 0 {
		return AgentConfig{}, &ConfigurationError{Reason: "no agents configured for debate"}
	}
	return state.Config.Agents[state.CurrentTurn%numAgents], nil
}

// TurnOrder returns the agent ids in the order they speak within a round.
func (s *TurnScheduler) TurnOrder(state *State) []string {
	order := make([]string, 0, len(state.Config.Agents))
	for _, agent := range state.Config.Agents {
		order = append(order, agent.ID)
	}
	return order
}

// TotalTurns returns num_rounds * len(agents).
func (s *TurnScheduler) TotalTurns(state *State) int {
	return state.Config.NumRounds * len(state.Config.Agents)
}

// ExecuteTurn runs one agent turn: prompt assembly, the gateway call with
// retry, and wrapping the response into a transcript Message. Exhausted
// retries surface as *TurnExecutionError, which is fatal to the run.
func (s *TurnScheduler) ExecuteTurn(ctx context.Context, state *State, agent AgentConfig) (Message, error) {
	systemPrompt := BuildDebaterPrompt(agent, state.Config.Topic, state.CurrentRound, state.Config.NumRounds)
	historyContext := FormatHistoryForContext(state.Transcript, state.Config.Topic, state.CurrentRound, state.Config.NumRounds)

	logger.Infof("executing turn for agent %s (round %d, turn %d)", agent.ID, state.CurrentRound, state.CurrentTurn)

	text, attempts, err := s.sendWithRetry(ctx, agent, systemPrompt, historyContext)
	if err != nil {
		if ctx.Err() != nil {
			return Message{}, err
		}
		return Message{}, &TurnExecutionError{AgentID: agent.ID, Attempts: attempts, Err: err}
	}

	return Message{
		AgentID:     agent.ID,
		AgentName:   agent.Name,
		Stance:      agent.Stance,
		Content:     text,
		RoundNumber: state.CurrentRound,
		TurnNumber:  state.CurrentTurn,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// sendWithRetry calls the gateway, retrying transient provider errors with
// exponential backoff. Fatal provider errors stop retrying immediately.
// Returns the response text and the number of attempts made.
func (s *TurnScheduler) sendWithRetry(ctx context.Context, agent AgentConfig, systemPrompt, userContext string) (string, int, error) {
	var (
		text     string
		attempts int
		lastErr  error
	)

	operation := func() error {
		attempts++
		result, err := s.gateway.Send(ctx, llm.SendRequest{
			Model:        agent.Model,
			SystemPrompt: systemPrompt,
			Messages:     []llm.ChatMessage{{Role: "user", Content: userContext}},
			Temperature:  agent.Temperature,
			MaxTokens:    agent.MaxTokens,
		})
		if err != nil {
			lastErr = err
			if llm.Classify(err) == llm.Fatal {
				return backoff.Permanent(err)
			}
			return err
		}
		text = result
		return nil
	}

	notify := func(err error, next time.Duration) {
		logger.Warnf("turn attempt %d for agent %s failed: %v (retrying in %s)",
			attempts, agent.ID, err, next)
	}

	if err := s.retry.Do(ctx, operation, notify); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return "", attempts, err
		}
		if lastErr != nil {
			return "", attempts, lastErr
		}
		return "", attempts, err
	}
	return text, attempts, nil
}
