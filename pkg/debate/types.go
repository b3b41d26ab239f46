// Package debate implements the debate orchestration engine: turn
// scheduling, the run lifecycle state machine, judge verdict parsing,
// prompt assembly, and the event stream observers consume.
package debate

import (
	"fmt"
	"time"

	"Rostrum/pkg/llm"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a debate.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal returns true for statuses a debate never leaves.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Role of an agent in the debate.
type Role string

const (
	RoleDebater Role = "debater"
	RoleJudge   Role = "judge"
)

// AgentConfig configures one agent: a debater or the judge.
type AgentConfig struct {
	ID           string       `json:"agent_id"`
	Name         string       `json:"name"`
	Role         Role         `json:"role"`
	Stance       string       `json:"stance"`
	SystemPrompt string       `json:"system_prompt"`
	Model        llm.ModelRef `json:"model"`
	Temperature  float64      `json:"temperature"`
	MaxTokens    int          `json:"max_tokens"`
}

// Validate checks the per-agent parameter bounds.
func (a AgentConfig) Validate() error {
	if a.ID == "" {
		return &ConfigurationError{Reason: "agent id must not be empty"}
	}
	if a.Temperature < 0.0 || a.Temperature > 2.0 {
		return &ConfigurationError{Reason: fmt.Sprintf("agent %s: temperature %.2f out of range [0.0, 2.0]", a.ID, a.Temperature)}
	}
	if a.MaxTokens < 1 || a.MaxTokens > 4096 {
		return &ConfigurationError{Reason: fmt.Sprintf("agent %s: max_tokens %d out of range [1, 4096]", a.ID, a.MaxTokens)}
	}
	return nil
}

// Config is the immutable configuration of one debate.
type Config struct {
	Topic     string        `json:"topic"`
	NumRounds int           `json:"num_rounds"`
	Agents    []AgentConfig `json:"agents"`
	Judge     AgentConfig   `json:"judge"`
}

// Validate enforces the configuration invariants: at least one round,
// at least two debaters, unique agent ids, and per-agent bounds.
func (c Config) Validate() error {
	if c.Topic == "" {
		return &ConfigurationError{Reason: "topic must not be empty"}
	}
	if c.NumRounds < 1 {
		return &ConfigurationError{Reason: fmt.Sprintf("num_rounds must be >= 1, got %d", c.NumRounds)}
	}
	if len(c.Agents) < 2 {
		return &ConfigurationError{Reason: fmt.Sprintf("at least 2 agents are required, got %d", len(c.Agents))}
	}

	seen := make(map[string]bool, len(c.Agents))
	for _, agent := range c.Agents {
		if err := agent.Validate(); err != nil {
			return err
		}
		if seen[agent.ID] {
			return &ConfigurationError{Reason: fmt.Sprintf("duplicate agent id %q", agent.ID)}
		}
		seen[agent.ID] = true
	}

	if err := c.Judge.Validate(); err != nil {
		return err
	}
	return nil
}

// AgentByID returns the debater with the given id, or nil.
func (c Config) AgentByID(id string) *AgentConfig {
	for i := range c.Agents {
		if c.Agents[i].ID == id {
			return &c.Agents[i]
		}
	}
	return nil
}

// Message is one agent contribution in the transcript. Immutable once created.
type Message struct {
	AgentID     string    `json:"agent_id"`
	AgentName   string    `json:"agent_name"`
	Stance      string    `json:"stance"`
	Content     string    `json:"content"`
	RoundNumber int       `json:"round_number"` // 1-indexed
	TurnNumber  int       `json:"turn_number"`  // 0-indexed within the round
	Timestamp   time.Time `json:"timestamp"`
}

// AgentScore is the judge's score for one participant.
type AgentScore struct {
	AgentID   string  `json:"agent_id"`
	AgentName string  `json:"agent_name"`
	Score     float64 `json:"score"` // 0-10
	Reasoning string  `json:"reasoning"`
}

// Verdict is the judge's structured scoring output.
type Verdict struct {
	Summary      string       `json:"summary"`
	AgentScores  []AgentScore `json:"agent_scores"`
	WinnerID     string       `json:"winner_id"`
	WinnerName   string       `json:"winner_name"`
	KeyArguments []string     `json:"key_arguments"`
}

// ScoreFor returns the score of the given agent, or 0 if absent.
func (v *Verdict) ScoreFor(agentID string) float64 {
	for _, s := range v.AgentScores {
		if s.AgentID == agentID {
			return s.Score
		}
	}
	return 0
}

// State is the mutable state of one debate. During a run it is owned
// exclusively by the coordinator; concurrent runs on the same State are
// the caller's responsibility to prevent (see store.RunGuard).
type State struct {
	ID           string     `json:"debate_id"`
	Config       Config     `json:"config"`
	Status       Status     `json:"status"`
	CurrentRound int        `json:"current_round"`
	CurrentTurn  int        `json:"current_turn"`
	Transcript   []Message  `json:"transcript"`
	Verdict      *Verdict   `json:"verdict,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewState creates the CREATED state for a validated config.
func NewState(config Config) *State {
	return &State{
		ID:        uuid.NewString(),
		Config:    config,
		Status:    StatusCreated,
		CreatedAt: time.Now().UTC(),
	}
}

// AddMessage appends a message to the transcript.
func (s *State) AddMessage(msg Message) {
	s.Transcript = append(s.Transcript, msg)
}
