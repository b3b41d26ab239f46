package sinks

import (
	"bytes"
	"testing"
	"time"

	"Rostrum/pkg/debate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publish(sink *Terminal, eventType debate.EventType, payload debate.EventPayload) {
	sink.Callback()(debate.NewEvent(eventType, "d1", payload))
}

func TestTerminal_RendersLifecycle(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminal(&buf, 80)

	publish(sink, debate.EventDebateStarted, debate.DebateStartedPayload{
		Topic: "Should cities ban cars?", NumRounds: 2, NumAgents: 2,
	})
	publish(sink, debate.EventRoundStarted, debate.RoundStartedPayload{RoundNumber: 1})
	publish(sink, debate.EventAgentThinking, debate.AgentThinkingPayload{AgentName: "Pro Advocate"})
	publish(sink, debate.EventMessageReceived, debate.MessageReceivedPayload{Message: debate.Message{
		AgentName: "Pro Advocate", Stance: "Pro", Content: "Car-free centers reduce emissions.",
		RoundNumber: 1, Timestamp: time.Now(),
	}})
	publish(sink, debate.EventRoundComplete, debate.RoundCompletePayload{RoundNumber: 1})
	publish(sink, debate.EventDebateComplete, debate.DebateCompletePayload{WinnerName: "Pro Advocate"})

	out := buf.String()
	assert.Contains(t, out, "Should cities ban cars?")
	assert.Contains(t, out, "2 rounds, 2 debaters")
	assert.Contains(t, out, "Round 1")
	assert.Contains(t, out, "is thinking")
	assert.Contains(t, out, "Car-free centers reduce emissions.")
	assert.Contains(t, out, "Round 1 complete.")
	assert.Contains(t, out, "Winner: Pro Advocate")
}

func TestTerminal_RendersVerdict(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminal(&buf, 80)

	publish(sink, debate.EventJudgeResult, debate.JudgeResultPayload{Verdict: debate.Verdict{
		Summary: "A decisive win on evidence.",
		AgentScores: []debate.AgentScore{
			{AgentID: "agent-pro", AgentName: "Pro Advocate", Score: 8.5, Reasoning: "Strong data."},
			{AgentID: "agent-con", AgentName: "Con Advocate", Score: 6.0, Reasoning: "Weak rebuttals."},
		},
		WinnerID: "agent-pro", WinnerName: "Pro Advocate",
		KeyArguments: []string{"Emissions data"},
	}})

	out := buf.String()
	assert.Contains(t, out, "A decisive win on evidence.")
	assert.Contains(t, out, "8.5/10")
	assert.Contains(t, out, "6.0/10")
	assert.Contains(t, out, "Strong data.")
	assert.Contains(t, out, "Emissions data")
}

func TestTerminal_RendersError(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminal(&buf, 80)

	publish(sink, debate.EventError, debate.ErrorPayload{
		ErrorMessage: "gateway gave up", ErrorKind: "TurnExecutionError",
	})

	out := buf.String()
	assert.Contains(t, out, "TurnExecutionError")
	assert.Contains(t, out, "gateway gave up")
}

func TestTerminal_IgnoresQuietEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminal(&buf, 80)

	publish(sink, debate.EventTurnComplete, debate.TurnCompletePayload{RoundNumber: 1, TurnNumber: 0})

	assert.Empty(t, buf.String(), "turn completion has no terminal output of its own")
}

func TestNewTerminal_WidthFloor(t *testing.T) {
	sink := NewTerminal(&bytes.Buffer{}, 5)
	require.Equal(t, 80, sink.width)

	sink = NewTerminal(&bytes.Buffer{}, 120)
	require.Equal(t, 120, sink.width)
}
