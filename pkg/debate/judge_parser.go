package debate

import (
	"encoding/json"
	"fmt"
	"strings"

	"Rostrum/pkg/logger"
)

const fallbackReasoning = "Unable to parse judge response. Default score assigned."

// ParseJudgeResponse converts the judge's raw output into a Verdict.
// Syntactic or structural failures never propagate: they resolve to a
// deterministic fallback verdict with every agent scored 5.0 and the
// first configured agent as winner. Only a misconfigured roster (no
// agents) is fatal.
func ParseJudgeResponse(raw string, agents []AgentConfig) (*Verdict, error) {
	if len(agents) == 0 {
		return nil, &JudgeInvocationError{Reason: "no agents configured for debate"}
	}

	text := stripCodeFence(raw)

	var verdict Verdict
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		logger.Errorf("failed to parse judge JSON response: %v", err)
		return fallbackVerdict(text, agents), nil
	}

	if err := validateVerdict(&verdict); err != nil {
		logger.Errorf("judge response failed validation: %v", err)
		return fallbackVerdict(text, agents), nil
	}

	return &verdict, nil
}

// stripCodeFence removes a leading/trailing Markdown code fence
// (``` or ```json) and trims whitespace.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-len("```")]
	}
	return strings.TrimSpace(text)
}

// validateVerdict checks the structural requirements. Out-of-range scores
// are rejected rather than clamped, which routes them to the fallback.
func validateVerdict(v *Verdict) error {
	if v.Summary == "" {
		return fmt.Errorf("missing summary")
	}
	if len(v.AgentScores) == 0 {
		return fmt.Errorf("missing agent_scores")
	}
	if v.WinnerID == "" || v.WinnerName == "" {
		return fmt.Errorf("missing winner")
	}
	for _, score := range v.AgentScores {
		if score.AgentID == "" {
			return fmt.Errorf("score entry missing agent_id")
		}
		if score.Score < 0 || score.Score > 10 {
			return fmt.Errorf("score %.2f for agent %s out of range [0, 10]", score.Score, score.AgentID)
		}
	}
	return nil
}

// fallbackVerdict builds the deterministic neutral result used when the
// judge text cannot be parsed.
func fallbackVerdict(raw string, agents []AgentConfig) *Verdict {
	scores := make([]AgentScore, 0, len(agents))
	for _, agent := range agents {
		scores = append(scores, AgentScore{
			AgentID:   agent.ID,
			AgentName: agent.Name,
			Score:     5.0,
			Reasoning: fallbackReasoning,
		})
	}

	prefix := raw
	if len(prefix) > 200 {
		prefix = prefix[:200]
	}

	return &Verdict{
		Summary:      fmt.Sprintf("Judge evaluation failed to parse. Raw response: %s...", prefix),
		AgentScores:  scores,
		WinnerID:     agents[0].ID,
		WinnerName:   agents[0].Name,
		KeyArguments: []string{"Unable to extract key arguments"},
	}
}
