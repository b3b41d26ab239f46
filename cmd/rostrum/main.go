package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"Rostrum/pkg/config"
	"Rostrum/pkg/debate"
	"Rostrum/pkg/llm"
	"Rostrum/pkg/logger"
	"Rostrum/pkg/personas"
	"Rostrum/pkg/providers"
	"Rostrum/pkg/retry"
	"Rostrum/pkg/sinks"
	"Rostrum/pkg/store"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	topic := flag.String("topic", "", "Debate topic")
	rounds := flag.Int("rounds", 2, "Number of debate rounds")
	personaIDs := flag.String("personas", "pragmatist,contrarian", "Comma-separated debater persona ids")
	stances := flag.String("stances", "Pro,Con", "Comma-separated stances, one per persona")
	judgeID := flag.String("judge", "arbiter", "Judge persona id")
	model := flag.String("model", "", "Model for all agents (default from config)")
	provider := flag.String("provider", "", "Provider for all agents (default from config)")
	verify := flag.Bool("verify", false, "Verify the model is reachable before the debate")
	listPersonas := flag.Bool("list-personas", false, "List available personas and exit")
	listProviders := flag.Bool("list-providers", false, "List supported providers and exit")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Rostrum v%s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	catalog := loadPersonas(cfg)

	if *listPersonas {
		printPersonas(catalog)
		return
	}
	if *listProviders {
		printProviders()
		return
	}

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "a debate needs a topic: pass -topic")
		flag.Usage()
		os.Exit(1)
	}

	debateConfig, err := buildDebateConfig(cfg, catalog, *topic, *rounds, *personaIDs, *stances, *judgeID, *provider, *model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid debate setup: %v\n", err)
		os.Exit(1)
	}

	// Signal handler: first SIGINT/SIGTERM cancels the run, second force-exits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		<-sigCh
		os.Exit(1)
	}()

	gateway := llm.NewClient(cfg.APIKey, cfg.APIBaseURL)

	if *verify {
		fmt.Println("Verifying model availability...")
		if err := gateway.Verify(ctx, debateConfig.Agents[0].Model); err != nil {
			fmt.Fprintf(os.Stderr, "verification failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Model reachable.")
	}

	retryConfig := retry.Config{
		MaxAttempts:  cfg.MaxTurnRetries,
		InitialDelay: cfg.RetryDelay(),
		Multiplier:   2.0,
	}
	scheduler := debate.NewTurnScheduler(gateway, retryConfig)
	bus := debate.NewEventBus()
	coordinator := debate.NewCoordinator(scheduler, bus, cfg.RateLimitDelay())

	terminal := sinks.NewTerminal(os.Stdout, 100)
	bus.Subscribe(terminal.Callback())

	if telegram, err := sinks.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID); err != nil {
		logger.Warnf("telegram sink disabled: %v", err)
	} else if telegram != nil {
		bus.Subscribe(telegram.Callback())
	}

	debates := store.NewMemoryStore()
	guard := store.NewRunGuard()

	state, err := coordinator.CreateDebate(debateConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create debate: %v\n", err)
		os.Exit(1)
	}
	if err := debates.Create(state); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store debate: %v\n", err)
		os.Exit(1)
	}

	release, err := guard.Acquire(state.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer release()

	start := time.Now()
	if err := coordinator.Run(ctx, state); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "debate cancelled")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "debate failed: %v\n", err)
		os.Exit(1)
	}
	_ = debates.Update(state)

	fmt.Printf("Finished in %s (%d messages).\n", time.Since(start).Round(time.Second), len(state.Transcript))
}

// loadPersonas reads the configured persona catalog, falling back to the
// built-in set.
func loadPersonas(cfg *config.Config) *personas.Catalog {
	if cfg.PersonasPath == "" {
		return personas.Default()
	}
	catalog, err := personas.Load(cfg.PersonasPath)
	if err != nil {
		logger.Warnf("failed to load personas from %s, using defaults: %v", cfg.PersonasPath, err)
		return personas.Default()
	}
	return catalog
}

// buildDebateConfig assembles the debate roster from persona templates.
func buildDebateConfig(cfg *config.Config, catalog *personas.Catalog, topic string, rounds int, personaIDs, stances, judgeID, provider, model string) (debate.Config, error) {
	ids := splitList(personaIDs)
	stanceList := splitList(stances)
	if len(ids) != len(stanceList) {
		return debate.Config{}, fmt.Errorf("%d personas but %d stances", len(ids), len(stanceList))
	}

	if provider == "" {
		provider = cfg.DefaultProvider
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	modelRef := llm.ModelRef{Provider: provider, Model: model}
	if p := providers.ByID(provider); p != nil {
		modelRef.APIKeyEnvVar = p.APIKeyEnvVar
	}

	agents := make([]debate.AgentConfig, 0, len(ids))
	for i, id := range ids {
		tmpl, ok := catalog.Get(id)
		if !ok {
			return debate.Config{}, fmt.Errorf("unknown persona %q", id)
		}
		agents = append(agents, debate.AgentConfig{
			ID:           fmt.Sprintf("%s-%d", tmpl.PersonaID, i+1),
			Name:         tmpl.Name,
			Role:         debate.RoleDebater,
			Stance:       stanceList[i],
			SystemPrompt: tmpl.RenderPrompt(stanceList[i]),
			Model:        modelRef,
			Temperature:  tmpl.SuggestedTemperature,
			MaxTokens:    tmpl.SuggestedMaxTokens,
		})
	}

	judgeTmpl, ok := catalog.Get(judgeID)
	if !ok {
		return debate.Config{}, fmt.Errorf("unknown judge persona %q", judgeID)
	}
	judge := debate.AgentConfig{
		ID:           judgeTmpl.PersonaID,
		Name:         judgeTmpl.Name,
		Role:         debate.RoleJudge,
		Stance:       "Neutral",
		SystemPrompt: judgeTmpl.RenderPrompt("Neutral"),
		Model:        modelRef,
		Temperature:  judgeTmpl.SuggestedTemperature,
		MaxTokens:    judgeTmpl.SuggestedMaxTokens,
	}

	return debate.Config{
		Topic:     topic,
		NumRounds: rounds,
		Agents:    agents,
		Judge:     judge,
	}, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printPersonas(catalog *personas.Catalog) {
	fmt.Println("Available personas:")
	for _, p := range catalog.List() {
		fmt.Printf("  %-12s %s: %s (%s)\n", p.PersonaID, p.Name, p.Description, p.DebateStyle)
	}
}

func printProviders() {
	fmt.Println("Supported providers:")
	for _, p := range providers.Catalog() {
		fmt.Printf("  %s (%s)\n", p.DisplayName, p.ProviderID)
		for _, m := range p.Models {
			marker := " "
			if m.Recommended {
				marker = "*"
			}
			fmt.Printf("   %s %-28s %s\n", marker, m.ModelID, m.Description)
		}
	}
}
