// Package sinks provides event sink implementations that consume the
// debate event stream: a styled terminal renderer and a Telegram bridge.
package sinks

import (
	"fmt"
	"io"

	"Rostrum/pkg/debate"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
	stanceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)
)

// Terminal renders debate events to a writer as they arrive.
type Terminal struct {
	out   io.Writer
	width int
}

// NewTerminal creates a terminal sink writing to out. width bounds the
// word-wrapped message content; values below 20 select the default 80.
func NewTerminal(out io.Writer, width int) *Terminal {
	if width < 20 {
		width = 80
	}
	return &Terminal{out: out, width: width}
}

// Callback returns the EventCallback to subscribe on the bus.
func (t *Terminal) Callback() debate.EventCallback {
	return t.handle
}

func (t *Terminal) handle(event debate.Event) {
	switch p := event.Payload.(type) {
	case debate.DebateStartedPayload:
		fmt.Fprintln(t.out, headerStyle.Render(fmt.Sprintf("⚖  Debate started: %s", p.Topic)))
		fmt.Fprintln(t.out, dimStyle.Render(fmt.Sprintf("   %d rounds, %d debaters", p.NumRounds, p.NumAgents)))
		fmt.Fprintln(t.out)
	case debate.RoundStartedPayload:
		fmt.Fprintln(t.out, headerStyle.Render(fmt.Sprintf("── Round %d ──", p.RoundNumber)))
	case debate.AgentThinkingPayload:
		fmt.Fprintln(t.out, dimStyle.Render(fmt.Sprintf("%s is thinking...", p.AgentName)))
	case debate.MessageReceivedPayload:
		msg := p.Message
		fmt.Fprintf(t.out, "%s %s\n", agentStyle.Render(msg.AgentName), stanceStyle.Render("("+msg.Stance+")"))
		fmt.Fprintln(t.out, wordwrap.String(msg.Content, t.width))
		fmt.Fprintln(t.out)
	case debate.RoundCompletePayload:
		fmt.Fprintln(t.out, dimStyle.Render(fmt.Sprintf("Round %d complete.", p.RoundNumber)))
		fmt.Fprintln(t.out)
	case debate.JudgingStartedPayload:
		fmt.Fprintln(t.out, headerStyle.Render(fmt.Sprintf("⚖  Judging %d messages...", p.TotalMessages)))
	case debate.JudgeResultPayload:
		t.renderVerdict(p.Verdict)
	case debate.DebateCompletePayload:
		fmt.Fprintln(t.out, winnerStyle.Render(fmt.Sprintf("🏆 Winner: %s", p.WinnerName)))
	case debate.ErrorPayload:
		fmt.Fprintln(t.out, errorStyle.Render(fmt.Sprintf("✗ Debate failed [%s]: %s", p.ErrorKind, p.ErrorMessage)))
	}
}

func (t *Terminal) renderVerdict(v debate.Verdict) {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, headerStyle.Render("Verdict"))
	fmt.Fprintln(t.out, wordwrap.String(v.Summary, t.width))
	fmt.Fprintln(t.out)
	for _, score := range v.AgentScores {
		fmt.Fprintf(t.out, "  %s %s\n", agentStyle.Render(score.AgentName), winnerStyle.Render(fmt.Sprintf("%.1f/10", score.Score)))
		fmt.Fprintln(t.out, dimStyle.Render(wordwrap.String("  "+score.Reasoning, t.width)))
	}
	if len(v.KeyArguments) > 0 {
		fmt.Fprintln(t.out, headerStyle.Render("Key arguments"))
		for _, arg := range v.KeyArguments {
			fmt.Fprintln(t.out, wordwrap.String("  • "+arg, t.width))
		}
	}
	fmt.Fprintln(t.out)
}
