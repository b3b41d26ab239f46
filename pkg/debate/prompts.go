package debate

import (
	"fmt"
	"strings"
)

// Prompt assembly is deterministic text construction with no side effects.
// The judge prompt pins the exact JSON shape ParseJudgeResponse expects.

// BuildDebaterPrompt returns the system prompt for a debater's turn.
func BuildDebaterPrompt(agent AgentConfig, topic string, currentRound, totalRounds int) string {
	var sb strings.Builder
	sb.WriteString(agent.SystemPrompt)
	sb.WriteString("\n\nDEBATE CONTEXT:\n")
	fmt.Fprintf(&sb, "- Topic: %s\n", topic)
	fmt.Fprintf(&sb, "- Your stance: %s\n", agent.Stance)
	fmt.Fprintf(&sb, "- Current round: %d of %d\n", currentRound, totalRounds)
	sb.WriteString(`
INSTRUCTIONS:
- Present clear arguments supporting your position
- Respond to opposing arguments from previous turns
- Maintain your persona and debate style
- Be persuasive but respectful
- Aim for 200-400 words per response`)
	return strings.TrimSpace(sb.String())
}

// BuildJudgePrompt returns the system prompt for the judge: persona, topic,
// roster with stances, scoring rubric, and the required output schema.
func BuildJudgePrompt(topic string, agents []AgentConfig, judge AgentConfig) string {
	var participants strings.Builder
	for _, agent := range agents {
		fmt.Fprintf(&participants, "- %s (%s)\n", agent.Name, agent.Stance)
	}

	var sb strings.Builder
	sb.WriteString(judge.SystemPrompt)
	fmt.Fprintf(&sb, "\n\nDEBATE TOPIC: %s\n\n", topic)
	sb.WriteString("PARTICIPANTS:\n")
	sb.WriteString(participants.String())
	sb.WriteString(`
TASK:
1. Score each participant 0-10 on: argument quality, logic, evidence, rebuttals, persuasiveness
2. Provide detailed reasoning for each score
3. Identify key arguments from each side
4. Declare the winner (highest score)

Respond in JSON format:
{
  "summary": "Overall debate analysis",
  "agent_scores": [
    {"agent_id": "...", "agent_name": "...", "score": 8.5, "reasoning": "..."}
  ],
  "winner_id": "...",
  "winner_name": "...",
  "key_arguments": ["...", "..."]
}`)
	return strings.TrimSpace(sb.String())
}

// FormatHistoryForContext renders the transcript so far as the user-turn
// context for the next debater. An empty transcript asks for an opening
// statement instead.
func FormatHistoryForContext(history []Message, topic string, currentRound, totalRounds int) string {
	if len(history) == 0 {
		return strings.TrimSpace(fmt.Sprintf(`DEBATE TOPIC: %s
ROUND: %d of %d

DEBATE HISTORY:
(No previous messages)

YOUR TURN: Please provide your opening statement.`, topic, currentRound, totalRounds))
	}

	formatted := make([]string, 0, len(history))
	for _, msg := range history {
		formatted = append(formatted, fmt.Sprintf("[Round %d, Turn %d] %s (%s): %s",
			msg.RoundNumber, msg.TurnNumber+1, msg.AgentName, msg.Stance, msg.Content))
	}

	return strings.TrimSpace(fmt.Sprintf(`DEBATE TOPIC: %s
ROUND: %d of %d

DEBATE HISTORY:
%s

YOUR TURN: Please provide your response.`, topic, currentRound, totalRounds, strings.Join(formatted, "\n\n")))
}

// FormatHistoryForJudge renders the full transcript for judge evaluation.
func FormatHistoryForJudge(history []Message, topic string) string {
	formatted := make([]string, 0, len(history))
	for _, msg := range history {
		formatted = append(formatted, fmt.Sprintf("[Round %d, Turn %d] %s (%s):\n%s",
			msg.RoundNumber, msg.TurnNumber+1, msg.AgentName, msg.Stance, msg.Content))
	}

	return strings.TrimSpace(fmt.Sprintf(`DEBATE TOPIC: %s

FULL TRANSCRIPT:
%s

Please evaluate the debate and provide your judgment in the specified JSON format.`,
		topic, strings.Join(formatted, "\n\n---\n\n")))
}
