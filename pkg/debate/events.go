package debate

import (
	"sync"
	"time"

	"Rostrum/pkg/logger"
)

// EventType tags a debate lifecycle event.
type EventType string

const (
	EventDebateStarted   EventType = "debate_started"
	EventRoundStarted    EventType = "round_started"
	EventAgentThinking   EventType = "agent_thinking"
	EventMessageReceived EventType = "message_received"
	EventTurnComplete    EventType = "turn_complete"
	EventRoundComplete   EventType = "round_complete"
	EventJudgingStarted  EventType = "judging_started"
	EventJudgeResult     EventType = "judge_result"
	EventDebateComplete  EventType = "debate_complete"
	EventError           EventType = "error"
)

// EventPayload is implemented by exactly one payload type per event tag,
// so consumers can switch on the concrete type without inspecting maps.
type EventPayload interface {
	isEventPayload()
}

// DebateStartedPayload accompanies EventDebateStarted.
type DebateStartedPayload struct {
	Topic     string `json:"topic"`
	NumRounds int    `json:"num_rounds"`
	NumAgents int    `json:"num_agents"`
}

// RoundStartedPayload accompanies EventRoundStarted.
type RoundStartedPayload struct {
	RoundNumber int `json:"round_number"`
}

// AgentThinkingPayload accompanies EventAgentThinking.
type AgentThinkingPayload struct {
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	RoundNumber int    `json:"round_number"`
	TurnNumber  int    `json:"turn_number"`
}

// MessageReceivedPayload accompanies EventMessageReceived.
type MessageReceivedPayload struct {
	Message Message `json:"message"`
}

// TurnCompletePayload accompanies EventTurnComplete.
type TurnCompletePayload struct {
	RoundNumber int    `json:"round_number"`
	TurnNumber  int    `json:"turn_number"`
	AgentID     string `json:"agent_id"`
}

// RoundCompletePayload accompanies EventRoundComplete.
type RoundCompletePayload struct {
	RoundNumber int `json:"round_number"`
}

// JudgingStartedPayload accompanies EventJudgingStarted.
type JudgingStartedPayload struct {
	TotalMessages int `json:"total_messages"`
}

// JudgeResultPayload accompanies EventJudgeResult.
type JudgeResultPayload struct {
	Verdict Verdict `json:"judge_result"`
}

// DebateCompletePayload accompanies EventDebateComplete.
type DebateCompletePayload struct {
	WinnerID      string `json:"winner_id"`
	WinnerName    string `json:"winner_name"`
	TotalMessages int    `json:"total_messages"`
}

// ErrorPayload accompanies EventError.
type ErrorPayload struct {
	ErrorMessage string `json:"error_message"`
	ErrorKind    string `json:"error_kind"`
}

func (DebateStartedPayload) isEventPayload()   {}
func (RoundStartedPayload) isEventPayload()    {}
func (AgentThinkingPayload) isEventPayload()   {}
func (MessageReceivedPayload) isEventPayload() {}
func (TurnCompletePayload) isEventPayload()    {}
func (RoundCompletePayload) isEventPayload()   {}
func (JudgingStartedPayload) isEventPayload()  {}
func (JudgeResultPayload) isEventPayload()     {}
func (DebateCompletePayload) isEventPayload()  {}
func (ErrorPayload) isEventPayload()           {}

// Event is one debate lifecycle transition.
type Event struct {
	Type      EventType    `json:"event_type"`
	DebateID  string       `json:"debate_id"`
	Payload   EventPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType EventType, debateID string, payload EventPayload) Event {
	return Event{
		Type:      eventType,
		DebateID:  debateID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// EventCallback receives debate events. Callbacks run inline with the
// coordinator; a slow callback directly delays the debate.
type EventCallback func(Event)

// EventBus fans events out to subscribers synchronously, in registration
// order. A failing subscriber never aborts the debate.
type EventBus struct {
	mu        sync.RWMutex
	callbacks []EventCallback
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a callback. Duplicates are allowed.
func (b *EventBus) Subscribe(callback EventCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// Publish delivers the event to every subscriber in registration order.
// Panics in a callback are recovered and logged so the remaining
// callbacks still run.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	callbacks := make([]EventCallback, len(b.callbacks))
	copy(callbacks, b.callbacks)
	b.mu.RUnlock()

	logger.Debugf("emitting event %s for debate %s", event.Type, event.DebateID)

	for _, callback := range callbacks {
		b.safeInvoke(callback, event)
	}
}

func (b *EventBus) safeInvoke(callback EventCallback, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("event callback panicked on %s: %v", event.Type, r)
		}
	}()
	callback(event)
}
