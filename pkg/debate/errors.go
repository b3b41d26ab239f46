package debate

import "fmt"

// ConfigurationError reports an invalid debate configuration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// TurnExecutionError reports that a single turn failed after all retry
// attempts were exhausted. Fatal to the run.
type TurnExecutionError struct {
	AgentID  string
	Attempts int
	Err      error
}

func (e *TurnExecutionError) Error() string {
	return fmt.Sprintf("failed to execute turn for agent %s after %d attempts: %v", e.AgentID, e.Attempts, e.Err)
}

func (e *TurnExecutionError) Unwrap() error { return e.Err }

// JudgeInvocationError reports a fatal failure while invoking the judge.
// Parse failures are never surfaced this way; they resolve to a fallback
// verdict instead.
type JudgeInvocationError struct {
	Reason string
	Err    error
}

func (e *JudgeInvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("judge invocation failed: %s: %v", e.Reason, e.Err)
	}
	return "judge invocation failed: " + e.Reason
}

func (e *JudgeInvocationError) Unwrap() error { return e.Err }

// ExecutionError is the single fatal error type surfaced to a run's
// caller, wrapping whichever fault aborted the debate.
type ExecutionError struct {
	DebateID string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("debate %s execution failed: %v", e.DebateID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
