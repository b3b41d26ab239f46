// Package personas loads and serves the debate persona catalog.
package personas

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"Rostrum/pkg/logger"
)

// Style is the debate approach of a persona.
type Style string

const (
	StyleAggressive Style = "aggressive"
	StyleDiplomatic Style = "diplomatic"
	StyleAnalytical Style = "analytical"
	StyleSocratic   Style = "socratic"
)

func validStyle(s Style) bool {
	switch s {
	case StyleAggressive, StyleDiplomatic, StyleAnalytical, StyleSocratic:
		return true
	}
	return false
}

// Template is a predefined debate persona. SystemPromptTemplate contains a
// {stance} placeholder that RenderPrompt substitutes with the debate position.
type Template struct {
	PersonaID            string   `json:"persona_id"`
	Name                 string   `json:"name"`
	Expertise            string   `json:"expertise"`
	DebateStyle          Style    `json:"debate_style"`
	Description          string   `json:"description"`
	SystemPromptTemplate string   `json:"system_prompt_template"`
	SuggestedTemperature float64  `json:"suggested_temperature"`
	SuggestedMaxTokens   int      `json:"suggested_max_tokens"`
	Tags                 []string `json:"tags"`
}

// RenderPrompt substitutes the stance into the persona's prompt template.
func (t Template) RenderPrompt(stance string) string {
	return strings.ReplaceAll(t.SystemPromptTemplate, "{stance}", stance)
}

func (t Template) validate() error {
	if t.PersonaID == "" {
		return fmt.Errorf("persona_id must not be empty")
	}
	if t.Name == "" || t.SystemPromptTemplate == "" {
		return fmt.Errorf("persona %s: name and system_prompt_template are required", t.PersonaID)
	}
	if !validStyle(t.DebateStyle) {
		return fmt.Errorf("persona %s: unknown debate_style %q", t.PersonaID, t.DebateStyle)
	}
	if t.SuggestedTemperature < 0 || t.SuggestedTemperature > 2 {
		return fmt.Errorf("persona %s: suggested_temperature out of range", t.PersonaID)
	}
	if t.SuggestedMaxTokens < 1 || t.SuggestedMaxTokens > 4096 {
		return fmt.Errorf("persona %s: suggested_max_tokens out of range", t.PersonaID)
	}
	return nil
}

// Catalog holds the loaded persona templates.
type Catalog struct {
	personas map[string]Template
}

// Load reads a JSON array of persona templates from path. Invalid or
// duplicate entries are skipped with a warning rather than failing the
// whole catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas config: %w", err)
	}

	var entries []Template
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON in personas config: %w", err)
	}

	catalog := &Catalog{personas: make(map[string]Template, len(entries))}
	loaded := 0
	for _, entry := range entries {
		if err := entry.validate(); err != nil {
			logger.Warnf("invalid persona data, skipping: %v", err)
			continue
		}
		if _, exists := catalog.personas[entry.PersonaID]; exists {
			logger.Warnf("duplicate persona_id %q found, skipping", entry.PersonaID)
			continue
		}
		catalog.personas[entry.PersonaID] = entry
		loaded++
	}

	logger.Infof("loaded %d personas from %s", loaded, path)
	return catalog, nil
}

// Default returns the built-in persona catalog.
func Default() *Catalog {
	catalog := &Catalog{personas: make(map[string]Template, len(defaultPersonas))}
	for _, p := range defaultPersonas {
		catalog.personas[p.PersonaID] = p
	}
	return catalog
}

// List returns all personas sorted by id.
func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.personas))
	for _, p := range c.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonaID < out[j].PersonaID })
	return out
}

// Get returns the persona with the given id.
func (c *Catalog) Get(personaID string) (Template, bool) {
	p, ok := c.personas[personaID]
	return p, ok
}

var defaultPersonas = []Template{
	{
		PersonaID:   "pragmatist",
		Name:        "The Pragmatist",
		Expertise:   "public policy and economics",
		DebateStyle: StyleAnalytical,
		Description: "Grounds every argument in real-world feasibility and measurable outcomes.",
		SystemPromptTemplate: "You are a pragmatic policy analyst. You argue {stance} by weighing costs, " +
			"benefits, and implementation realities. You cite concrete examples and distrust " +
			"abstract ideals that ignore practical constraints.",
		SuggestedTemperature: 0.7,
		SuggestedMaxTokens:   1024,
		Tags:                 []string{"policy", "economics"},
	},
	{
		PersonaID:   "idealist",
		Name:        "The Idealist",
		Expertise:   "ethics and political philosophy",
		DebateStyle: StyleSocratic,
		Description: "Argues from first principles and moral imperatives.",
		SystemPromptTemplate: "You are a principled philosopher. You argue {stance} from ethical first " +
			"principles, asking probing questions that expose hidden assumptions in opposing " +
			"arguments. You believe what is right matters more than what is easy.",
		SuggestedTemperature: 1.0,
		SuggestedMaxTokens:   1024,
		Tags:                 []string{"philosophy", "ethics"},
	},
	{
		PersonaID:   "contrarian",
		Name:        "The Contrarian",
		Expertise:   "risk analysis and devil's advocacy",
		DebateStyle: StyleAggressive,
		Description: "Attacks the weakest link in any argument, whatever the topic.",
		SystemPromptTemplate: "You are a sharp contrarian debater. You argue {stance} by finding and " +
			"attacking the weakest points of opposing arguments. You are direct, incisive, and " +
			"unafraid of unpopular positions.",
		SuggestedTemperature: 1.2,
		SuggestedMaxTokens:   1024,
		Tags:                 []string{"risk", "rebuttal"},
	},
	{
		PersonaID:   "mediator",
		Name:        "The Mediator",
		Expertise:   "conflict resolution",
		DebateStyle: StyleDiplomatic,
		Description: "Builds bridges while still defending a position.",
		SystemPromptTemplate: "You are a diplomatic debater. You argue {stance} while acknowledging valid " +
			"points from the other side, then showing why your position still prevails on balance.",
		SuggestedTemperature: 0.8,
		SuggestedMaxTokens:   1024,
		Tags:                 []string{"diplomacy"},
	},
	{
		PersonaID:   "arbiter",
		Name:        "The Arbiter",
		Expertise:   "competitive debate judging",
		DebateStyle: StyleAnalytical,
		Description: "Impartial judge persona for scoring debates.",
		SystemPromptTemplate: "You are an impartial debate judge with years of competitive judging " +
			"experience. You evaluate arguments on quality, logic, evidence, rebuttals, and " +
			"persuasiveness, never on whether you personally agree.",
		SuggestedTemperature: 0.3,
		SuggestedMaxTokens:   2048,
		Tags:                 []string{"judge"},
	},
}
