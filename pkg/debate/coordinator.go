package debate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Rostrum/pkg/logger"
)

// DefaultRateLimitDelay is the pause between consecutive turns.
const DefaultRateLimitDelay = 1 * time.Second

// Coordinator drives one complete debate run as a state machine. It owns
// all status transitions and the event emission order: observers
// reconstruct the debate timeline purely from that order.
//
// Construct one Coordinator at process start and share it by injection;
// it holds no per-debate state. A given State must have at most one
// active Run at a time, which is the caller's obligation (see
// store.RunGuard).
type Coordinator struct {
	scheduler      *TurnScheduler
	bus            *EventBus
	rateLimitDelay time.Duration
}

// NewCoordinator creates a coordinator. A negative rateLimitDelay selects
// DefaultRateLimitDelay; zero disables inter-turn throttling.
func NewCoordinator(scheduler *TurnScheduler, bus *EventBus, rateLimitDelay time.Duration) *Coordinator {
	if rateLimitDelay < 0 {
		rateLimitDelay = DefaultRateLimitDelay
	}
	if bus == nil {
		bus = NewEventBus()
	}
	return &Coordinator{
		scheduler:      scheduler,
		bus:            bus,
		rateLimitDelay: rateLimitDelay,
	}
}

// Bus returns the event bus observers subscribe to.
func (c *Coordinator) Bus() *EventBus { return c.bus }

// CreateDebate validates the configuration and returns a CREATED state.
func (c *Coordinator) CreateDebate(config Config) (*State, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	state := NewState(config)
	logger.Infof("created debate %s on topic: %s", state.ID, config.Topic)
	return state, nil
}

// Run executes the complete debate lifecycle: all rounds, then the judge.
// On success the state is COMPLETED with a verdict; on any unrecovered
// fault it is FAILED, exactly one ERROR event is emitted, and an
// *ExecutionError wrapping the cause is returned. Messages already in the
// transcript are never rolled back.
//
// If ctx is cancelled the in-flight call and any pending sleeps abort
// promptly and the state stays IN_PROGRESS: the core cannot distinguish
// "cancelled" from "about to succeed", so assigning a terminal status on
// cancellation is the caller's decision.
func (c *Coordinator) Run(ctx context.Context, state *State) error {
	if state.Status.Terminal() {
		return &ExecutionError{DebateID: state.ID, Err: fmt.Errorf("debate is already %s", state.Status)}
	}

	state.Status = StatusInProgress
	now := time.Now().UTC()
	state.StartedAt = &now

	c.bus.Publish(NewEvent(EventDebateStarted, state.ID, DebateStartedPayload{
		Topic:     state.Config.Topic,
		NumRounds: state.Config.NumRounds,
		NumAgents: len(state.Config.Agents),
	}))

	err := c.runRoundsAndJudge(ctx, state)
	if err == nil {
		logger.Infof("debate %s completed, winner: %s", state.ID, state.Verdict.WinnerName)
		return nil
	}

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Cancelled: leave the state IN_PROGRESS and report to the caller.
		logger.Warnf("debate %s run cancelled: %v", state.ID, err)
		return &ExecutionError{DebateID: state.ID, Err: err}
	}

	state.Status = StatusFailed
	state.ErrorMessage = err.Error()
	completed := time.Now().UTC()
	state.CompletedAt = &completed

	c.bus.Publish(NewEvent(EventError, state.ID, ErrorPayload{
		ErrorMessage: err.Error(),
		ErrorKind:    errorKind(err),
	}))

	logger.Errorf("debate %s failed: %v", state.ID, err)
	return &ExecutionError{DebateID: state.ID, Err: err}
}

func (c *Coordinator) runRoundsAndJudge(ctx context.Context, state *State) error {
	for round := 1; round <= state.Config.NumRounds; round++ {
		if err := c.executeRound(ctx, state, round); err != nil {
			return err
		}
	}

	verdict, err := c.invokeJudge(ctx, state)
	if err != nil {
		return err
	}
	state.Verdict = verdict

	state.Status = StatusCompleted
	completed := time.Now().UTC()
	state.CompletedAt = &completed

	c.bus.Publish(NewEvent(EventDebateComplete, state.ID, DebateCompletePayload{
		WinnerID:      verdict.WinnerID,
		WinnerName:    verdict.WinnerName,
		TotalMessages: len(state.Transcript),
	}))

	return nil
}

// executeRound runs all turns of one round in configured agent order.
func (c *Coordinator) executeRound(ctx context.Context, state *State, round int) error {
	state.CurrentRound = round
	c.bus.Publish(NewEvent(EventRoundStarted, state.ID, RoundStartedPayload{RoundNumber: round}))

	logger.Infof("starting round %d/%d for debate %s", round, state.Config.NumRounds, state.ID)

	turnOrder := c.scheduler.TurnOrder(state)
	for turnIndex, agentID := range turnOrder {
		agent := state.Config.AgentByID(agentID)
		if agent == nil {
			return &ConfigurationError{Reason: fmt.Sprintf("agent %s not found in debate configuration", agentID)}
		}

		state.CurrentTurn = turnIndex

		c.bus.Publish(NewEvent(EventAgentThinking, state.ID, AgentThinkingPayload{
			AgentID:     agent.ID,
			AgentName:   agent.Name,
			RoundNumber: round,
			TurnNumber:  turnIndex,
		}))

		message, err := c.scheduler.ExecuteTurn(ctx, state, *agent)
		if err != nil {
			return err
		}

		state.AddMessage(message)

		c.bus.Publish(NewEvent(EventMessageReceived, state.ID, MessageReceivedPayload{Message: message}))
		c.bus.Publish(NewEvent(EventTurnComplete, state.ID, TurnCompletePayload{
			RoundNumber: round,
			TurnNumber:  turnIndex,
			AgentID:     agent.ID,
		}))

		// Throttle between turns. The delay is skipped only after the
		// literal last turn of the last round; it still applies between
		// rounds.
		if turnIndex < len(turnOrder)-1 || round < state.Config.NumRounds {
			if err := sleepCtx(ctx, c.rateLimitDelay); err != nil {
				return err
			}
		}
	}

	c.bus.Publish(NewEvent(EventRoundComplete, state.ID, RoundCompletePayload{RoundNumber: round}))
	logger.Infof("completed round %d/%d for debate %s", round, state.Config.NumRounds, state.ID)
	return nil
}

// invokeJudge scores the finished transcript. The gateway call uses the
// same retry policy as turns; parse failures resolve to a fallback
// verdict inside ParseJudgeResponse and never fail the run.
func (c *Coordinator) invokeJudge(ctx context.Context, state *State) (*Verdict, error) {
	c.bus.Publish(NewEvent(EventJudgingStarted, state.ID, JudgingStartedPayload{
		TotalMessages: len(state.Transcript),
	}))

	logger.Infof("invoking judge for debate %s", state.ID)

	judge := state.Config.Judge
	systemPrompt := BuildJudgePrompt(state.Config.Topic, state.Config.Agents, judge)
	historyContext := FormatHistoryForJudge(state.Transcript, state.Config.Topic)

	text, attempts, err := c.scheduler.sendWithRetry(ctx, judge, systemPrompt, historyContext)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, err
		}
		return nil, &JudgeInvocationError{
			Reason: fmt.Sprintf("gateway call failed after %d attempts", attempts),
			Err:    err,
		}
	}

	verdict, err := ParseJudgeResponse(text, state.Config.Agents)
	if err != nil {
		return nil, err
	}

	c.bus.Publish(NewEvent(EventJudgeResult, state.ID, JudgeResultPayload{Verdict: *verdict}))
	logger.Infof("judge evaluation complete for debate %s, winner: %s", state.ID, verdict.WinnerName)
	return verdict, nil
}

// sleepCtx pauses for delay or until ctx is cancelled.
func sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// errorKind names the error category carried in ERROR event payloads.
func errorKind(err error) string {
	var (
		turnErr   *TurnExecutionError
		judgeErr  *JudgeInvocationError
		configErr *ConfigurationError
	)
	switch {
	case errors.As(err, &turnErr):
		return "TurnExecutionError"
	case errors.As(err, &judgeErr):
		return "JudgeInvocationError"
	case errors.As(err, &configErr):
		return "ConfigurationError"
	default:
		return "ExecutionError"
	}
}
