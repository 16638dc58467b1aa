package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"slidesmith/app/internal/deck"
	"slidesmith/app/internal/search"
)

// OutlineGeneratorOptions configures the outline generator. A nil Temperature
// selects the default; an explicit zero is honored as greedy decoding.
type OutlineGeneratorOptions struct {
	Client          *Client
	Model           string
	Temperature     *float64
	MaxTokens       int
	ContextSnippets int
	SystemPrompt    string
}

// OutlineGenerator plans a presentation with a single structured completion.
type OutlineGenerator struct {
	client          *Client
	logger          *logrus.Logger
	model           string
	temperature     float64
	maxTokens       int
	contextSnippets int
	systemPrompt    string
	responseFormat  openai.ChatCompletionNewParamsResponseFormatUnion
}

var _ deck.OutlineGenerator = (*OutlineGenerator)(nil)

const (
	defaultOutlineSystemPrompt = "You are a presentation expert. You design slide outlines that front-load the most important points. Respond only with JSON matching the provided schema."
	defaultOutlineTemperature  = 0.7
	defaultContextSnippets     = 5
	minSlides                  = 1
	maxSlides                  = 50
)

// NewOutlineGenerator constructs an OutlineGenerator backed by the client.
func NewOutlineGenerator(opts OutlineGeneratorOptions) (*OutlineGenerator, error) {
	if opts.Client == nil {
		return nil, eris.New("llm client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("outline model is required")
	}

	temperature := defaultOutlineTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	contextSnippets := opts.ContextSnippets
	if contextSnippets <= 0 {
		contextSnippets = defaultContextSnippets
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultOutlineSystemPrompt
	}

	return &OutlineGenerator{
		client:          opts.Client,
		logger:          opts.Client.logger,
		model:           model,
		temperature:     temperature,
		maxTokens:       opts.MaxTokens,
		contextSnippets: contextSnippets,
		systemPrompt:    systemPrompt,
		responseFormat:  buildOutlineResponseFormat(),
	}, nil
}

// Generate plans exactly numSlides slides for the topic. Short or malformed
// model output is padded with placeholder entries so the contiguous-count
// invariant always holds; only a failed completion aborts.
func (g *OutlineGenerator) Generate(ctx context.Context, topic string, numSlides int, searchContext []search.Result) ([]deck.OutlineEntry, error) {
	trimmedTopic := strings.TrimSpace(topic)
	if trimmedTopic == "" {
		return nil, eris.New("topic is required")
	}

	if numSlides < minSlides || numSlides > maxSlides {
		return nil, eris.Errorf("slide count must be within [%d, %d], got %d", minSlides, maxSlides, numSlides)
	}

	content, err := g.client.Complete(ctx, Request{
		Model:          g.model,
		System:         g.systemPrompt,
		Prompt:         g.buildPrompt(trimmedTopic, numSlides, searchContext),
		MaxTokens:      g.maxTokens,
		Temperature:    &g.temperature,
		ResponseFormat: g.responseFormat,
	})
	if err != nil {
		g.logError(logrus.Fields{"topic": trimmedTopic}, err, "requesting outline completion")
		return nil, eris.Wrap(err, "generating outline")
	}

	entries := g.parseEntries(trimmedTopic, numSlides, content)
	return entries, nil
}

func (g *OutlineGenerator) buildPrompt(topic string, numSlides int, searchContext []search.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Create a presentation outline for the topic: %q\n\n", topic)
	fmt.Fprintf(&sb, "Generate exactly %d slides:\n", numSlides)
	sb.WriteString("- Slide 1: type \"title\" with the topic as title and a compelling subtitle.\n")
	if numSlides > 2 {
		fmt.Fprintf(&sb, "- Slides 2-%d: type \"content\" covering the key aspects, most important first.\n", numSlides-1)
	}
	if numSlides > 1 {
		fmt.Fprintf(&sb, "- Slide %d: type \"conclusion\" summarising the takeaways.\n", numSlides)
	}
	sb.WriteString("Each content slide needs 3-5 short key points, most salient first.\n")

	snippets := searchContext
	if len(snippets) > g.contextSnippets {
		snippets = snippets[:g.contextSnippets]
	}
	if len(snippets) > 0 {
		sb.WriteString("\nIncorporate facts from this search context:\n")
		for i, result := range snippets {
			fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, result.Title, result.Snippet)
		}
	}

	return sb.String()
}

type outlinePayload struct {
	Title  string `json:"title"`
	Slides []struct {
		SlideNumber int      `json:"slide_number"`
		Title       string   `json:"title"`
		Type        string   `json:"type"`
		Subtitle    string   `json:"subtitle"`
		KeyPoints   []string `json:"key_points"`
	} `json:"slides"`
}

// parseEntries normalises the model payload into exactly numSlides entries
// with contiguous indices. Positions decide indices, not the model's
// slide_number values.
func (g *OutlineGenerator) parseEntries(topic string, numSlides int, content string) []deck.OutlineEntry {
	var payload outlinePayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		g.logWarn(logrus.Fields{"topic": topic, "error": err.Error()}, "outline response malformed, using placeholder outline")
		payload.Slides = nil
	}

	entries := make([]deck.OutlineEntry, 0, numSlides)
	padded := 0

	for i := 0; i < numSlides; i++ {
		index := i + 1

		if i < len(payload.Slides) {
			slide := payload.Slides[i]
			title := strings.TrimSpace(slide.Title)
			if title != "" {
				entries = append(entries, deck.OutlineEntry{
					Index:     index,
					Title:     title,
					Subtitle:  strings.TrimSpace(slide.Subtitle),
					Kind:      entryKind(index, slide.Type),
					KeyPoints: trimStrings(slide.KeyPoints),
				})
				continue
			}
		}

		entries = append(entries, placeholderEntry(topic, index, numSlides))
		padded++
	}

	if padded > 0 {
		g.logWarn(logrus.Fields{
			"topic":     topic,
			"requested": numSlides,
			"padded":    padded,
		}, "outline degraded, padded with placeholder slides")
	}

	return entries
}

// entryKind maps the model's declared slide type onto a Kind, forcing the
// first slide to be the title slide.
func entryKind(index int, declared string) deck.Kind {
	if index == 1 {
		return deck.KindTitle
	}

	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "conclusion":
		return deck.KindConclusion
	default:
		return deck.KindContent
	}
}

func placeholderEntry(topic string, index, numSlides int) deck.OutlineEntry {
	entry := deck.OutlineEntry{
		Index: index,
		Title: fmt.Sprintf("%s (%d)", topic, index),
		Kind:  deck.KindContent,
	}

	if index == 1 {
		entry.Title = topic
		entry.Kind = deck.KindTitle
	} else if index == numSlides {
		entry.Kind = deck.KindConclusion
	}

	return entry
}

func trimStrings(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			trimmed = append(trimmed, v)
		}
	}
	return trimmed
}

func (g *OutlineGenerator) logError(fields logrus.Fields, err error, message string) {
	if g.logger == nil || err == nil {
		return
	}

	entry := g.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func (g *OutlineGenerator) logWarn(fields logrus.Fields, message string) {
	if g.logger == nil {
		return
	}
	g.logger.WithFields(fields).Warn(message)
}

func buildOutlineResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	schema := map[string]any{
		"type":     "object",
		"required": []string{"title", "slides"},
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Title of the whole presentation.",
			},
			"slides": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"slide_number", "title", "type", "subtitle", "key_points"},
					"properties": map[string]any{
						"slide_number": map[string]any{"type": "integer"},
						"title":        map[string]any{"type": "string"},
						"type": map[string]any{
							"type": "string",
							"enum": []string{"title", "content", "conclusion"},
						},
						"subtitle": map[string]any{
							"type":        "string",
							"description": "Subtitle for the title slide; empty otherwise.",
						},
						"key_points": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "slide_outline",
				Description: openai.String("Structured slide outline payload"),
				Strict:      openai.Bool(true),
				Schema:      schema,
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}
}
