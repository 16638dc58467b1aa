package main

import (
	"context"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"slidesmith/app/internal/config"
	"slidesmith/app/internal/deck"
	"slidesmith/app/internal/llm"
	applog "slidesmith/app/internal/log"
	"slidesmith/app/internal/pptx"
	"slidesmith/app/internal/search"
)

type generateFlags struct {
	output        string
	slides        int
	theme         string
	searchResults int
	verbose       bool
}

func newGenerateCmd() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a presentation on the given topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file path (default derived from the topic)")
	cmd.Flags().IntVarP(&flags.slides, "slides", "s", 0, "number of slides to generate, 1-50 (default from configuration)")
	cmd.Flags().StringVarP(&flags.theme, "theme", "t", "", "presentation theme: modern, corporate or minimalist")
	cmd.Flags().IntVar(&flags.searchResults, "search-results", 0, "number of search results to process")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runGenerate(ctx context.Context, topic string, flags *generateFlags) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "loading configuration")
	}

	if cfg.LLM.APIKey == "" {
		return eris.New("an LLM API key is required: set LLM_API_KEY or OPENROUTER_API_KEY")
	}

	logCfg := cfg.Log
	if flags.verbose {
		logCfg.Level = "debug"
	}

	logger, err := applog.New(logCfg)
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}

	flush, err := applog.InitSentry(logger, cfg.Sentry, cfg.Environment, version)
	if err != nil {
		return eris.Wrap(err, "initialising sentry")
	}
	defer flush()

	numSlides := flags.slides
	if numSlides == 0 {
		numSlides = cfg.Deck.DefaultSlides
	}
	if numSlides < 1 || numSlides > 50 {
		return eris.Errorf("slide count must be within [1, 50], got %d", numSlides)
	}

	searchResults := flags.searchResults
	if searchResults <= 0 {
		searchResults = cfg.Search.MaxResults
	}

	outputPath := strings.TrimSpace(flags.output)
	if outputPath == "" {
		outputPath = slugify(topic) + ".pptx"
	}

	themeName := flags.theme
	if themeName == "" {
		themeName = cfg.Deck.Theme
	}
	theme, known := pptx.GetTheme(themeName)
	if !known {
		color.Yellow("Unknown theme %q, using %q", themeName, theme.Name)
	}

	runID := uuid.NewString()
	logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"topic":       topic,
		"slides":      numSlides,
		"theme":       theme.Name,
		"model":       cfg.LLM.Model,
		"temperature": cfg.LLM.Temperature,
		"max_tokens":  cfg.LLM.MaxTokens,
	}).Debug("starting generation run")

	banner(topic, numSlides, theme.Name)

	searchClient, err := buildSearchClient(cfg, logger)
	if err != nil {
		return eris.Wrap(err, "initialising search client")
	}

	llmClient, err := llm.NewClient(llm.ClientOptions{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Logger:     logger,
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: time.Duration(cfg.LLM.RetryDelaySeconds) * time.Second,
	})
	if err != nil {
		return eris.Wrap(err, "creating llm client")
	}

	outline, err := llm.NewOutlineGenerator(llm.OutlineGeneratorOptions{
		Client:          llmClient,
		Model:           cfg.LLM.Model,
		Temperature:     &cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		ContextSnippets: cfg.Search.ContextSnippets,
	})
	if err != nil {
		return eris.Wrap(err, "initialising outline generator")
	}

	expander, err := llm.NewExpander(llm.ExpanderOptions{
		Client:      llmClient,
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return eris.Wrap(err, "initialising expander")
	}

	writer := pptx.NewWriter(pptx.WriterOptions{Theme: theme, Logger: logger})

	pipeline, err := deck.NewPipeline(deck.PipelineOptions{
		Search:   searchClient,
		Outline:  outline,
		Expander: expander,
		Writer:   writer,
		Logger:   logger,
		Capacity: deck.Capacity{
			MaxBullets:        cfg.Deck.MaxBullets,
			MaxCharsPerBullet: cfg.Deck.MaxCharsPerBullet,
		},
		Concurrency: cfg.Expand.Concurrency,
		Theme:       theme.Name,
	})
	if err != nil {
		return eris.Wrap(err, "building pipeline")
	}

	presentation, err := pipeline.Run(ctx, deck.Request{
		Topic:         topic,
		NumSlides:     numSlides,
		SearchResults: searchResults,
		OutputPath:    outputPath,
	})
	if err != nil {
		return err
	}

	color.Green("Presentation generated successfully")
	color.Green("  File:   %s", outputPath)
	color.Green("  Slides: %d", len(presentation.Slides))
	color.Green("  Theme:  %s", theme.Name)

	return nil
}

func buildSearchClient(cfg *config.Config, logger *logrus.Logger) (search.Client, error) {
	if !cfg.Search.Enabled() {
		color.Yellow("No search API key configured, proceeding without web search context")
		logger.Warn("search disabled, no SERPAPI_KEY configured")
		return search.Disabled(), nil
	}

	return search.NewSerpAPIClient(search.SerpAPIOptions{
		APIKey:  cfg.Search.APIKey,
		Timeout: cfg.Search.Timeout(),
		Logger:  logger,
	})
}

func banner(topic string, numSlides int, themeName string) {
	heading := color.New(color.FgBlue, color.Bold)
	heading.Println("slidesmith - AI PowerPoint generator")
	color.Blue("Topic:  %s", topic)
	color.Blue("Slides: %d", numSlides)
	color.Blue("Theme:  %s", themeName)
}

// slugify derives a filesystem-friendly file stem from the topic.
func slugify(topic string) string {
	var sb strings.Builder
	lastDash := true

	for _, r := range strings.ToLower(strings.TrimSpace(topic)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.TrimRight(sb.String(), "-")
	if slug == "" {
		slug = "presentation"
	}
	return slug
}
