package personas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()

	list := catalog.List()
	require.Len(t, list, 5)

	for _, want := range []string{"pragmatist", "idealist", "contrarian", "mediator", "arbiter"} {
		_, ok := catalog.Get(want)
		assert.True(t, ok, "missing default persona %q", want)
	}

	_, ok := catalog.Get("nobody")
	assert.False(t, ok)
}

func TestDefaultCatalog_AllValid(t *testing.T) {
	for _, p := range Default().List() {
		assert.NoError(t, p.validate(), "persona %s", p.PersonaID)
	}
}

func TestTemplate_RenderPrompt(t *testing.T) {
	tmpl := Template{SystemPromptTemplate: "You argue {stance} with conviction. Stay {stance}."}

	got := tmpl.RenderPrompt("in favor of remote work")
	assert.Equal(t, "You argue in favor of remote work with conviction. Stay in favor of remote work.", got)
}

func TestTemplate_Validate(t *testing.T) {
	valid := Template{
		PersonaID:            "tester",
		Name:                 "The Tester",
		DebateStyle:          StyleAnalytical,
		SystemPromptTemplate: "You argue {stance}.",
		SuggestedTemperature: 0.7,
		SuggestedMaxTokens:   1024,
	}
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(*Template)
	}{
		{"empty id", func(p *Template) { p.PersonaID = "" }},
		{"empty name", func(p *Template) { p.Name = "" }},
		{"empty prompt", func(p *Template) { p.SystemPromptTemplate = "" }},
		{"unknown style", func(p *Template) { p.DebateStyle = "bombastic" }},
		{"temperature out of range", func(p *Template) { p.SuggestedTemperature = 2.5 }},
		{"max tokens out of range", func(p *Template) { p.SuggestedMaxTokens = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.validate())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.json")
	data := `[
		{"persona_id": "economist", "name": "The Economist", "debate_style": "analytical",
		 "system_prompt_template": "You argue {stance} from market data.",
		 "suggested_temperature": 0.6, "suggested_max_tokens": 1024},
		{"persona_id": "economist", "name": "Duplicate", "debate_style": "analytical",
		 "system_prompt_template": "dup", "suggested_temperature": 0.5, "suggested_max_tokens": 512},
		{"persona_id": "broken", "name": "", "debate_style": "analytical",
		 "system_prompt_template": "x", "suggested_temperature": 0.5, "suggested_max_tokens": 512}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	catalog, err := Load(path)
	require.NoError(t, err)

	list := catalog.List()
	require.Len(t, list, 1, "invalid and duplicate entries are skipped")
	economist, ok := catalog.Get("economist")
	require.True(t, ok)
	assert.Equal(t, "The Economist", economist.Name, "first entry wins on duplicates")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
