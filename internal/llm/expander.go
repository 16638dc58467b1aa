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

// ExpanderOptions configures the per-slide content expander. A nil Temperature
// selects the default; an explicit zero is honored as greedy decoding.
type ExpanderOptions struct {
	Client       *Client
	Model        string
	Temperature  *float64
	MaxTokens    int
	SystemPrompt string
}

// Expander elaborates one outline entry into full bullet content with a
// single completion per slide. Calls are independent of each other, so the
// pipeline may issue them concurrently.
type Expander struct {
	client         *Client
	logger         *logrus.Logger
	model          string
	temperature    float64
	maxTokens      int
	systemPrompt   string
	responseFormat openai.ChatCompletionNewParamsResponseFormatUnion
}

var _ deck.Expander = (*Expander)(nil)

const (
	defaultExpanderSystemPrompt = "You are an expert presentation writer. You expand slide outlines into concise, self-contained bullet points, most important first. Respond only with JSON matching the provided schema."
	defaultExpanderTemperature  = 0.7
	expanderContextSnippets     = 3
)

// NewExpander constructs an Expander backed by the client.
func NewExpander(opts ExpanderOptions) (*Expander, error) {
	if opts.Client == nil {
		return nil, eris.New("llm client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("expander model is required")
	}

	temperature := defaultExpanderTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultExpanderSystemPrompt
	}

	return &Expander{
		client:         opts.Client,
		logger:         opts.Client.logger,
		model:          model,
		temperature:    temperature,
		maxTokens:      opts.MaxTokens,
		systemPrompt:   systemPrompt,
		responseFormat: buildSlideResponseFormat(),
	}, nil
}

// Expand requests elaborated bullets for the entry. The returned slide is raw
// and unfitted; callers apply capacity limits afterwards.
func (e *Expander) Expand(ctx context.Context, entry deck.OutlineEntry, searchContext []search.Result) (deck.Slide, error) {
	if strings.TrimSpace(entry.Title) == "" {
		return deck.Slide{}, eris.New("outline entry title is required")
	}

	content, err := e.client.Complete(ctx, Request{
		Model:          e.model,
		System:         e.systemPrompt,
		Prompt:         e.buildPrompt(entry, searchContext),
		MaxTokens:      e.maxTokens,
		Temperature:    &e.temperature,
		ResponseFormat: e.responseFormat,
	})
	if err != nil {
		e.logError(logrus.Fields{"slide": entry.Index, "title": entry.Title}, err, "requesting slide expansion")
		return deck.Slide{}, eris.Wrapf(err, "expanding slide %d", entry.Index)
	}

	bullets, err := parseSlidePayload(content)
	if err != nil {
		e.logError(logrus.Fields{"slide": entry.Index, "title": entry.Title}, err, "parsing slide expansion")
		return deck.Slide{}, eris.Wrapf(err, "parsing expansion for slide %d", entry.Index)
	}

	return deck.Slide{
		Index:    entry.Index,
		Title:    entry.Title,
		Subtitle: entry.Subtitle,
		Kind:     entry.Kind,
		Bullets:  bullets,
	}, nil
}

func (e *Expander) buildPrompt(entry deck.OutlineEntry, searchContext []search.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write the content for one presentation slide.\n\nSlide title: %s\n", entry.Title)

	if len(entry.KeyPoints) > 0 {
		fmt.Fprintf(&sb, "Key points to cover: %s\n", strings.Join(entry.KeyPoints, ", "))
	} else {
		sb.WriteString("Key points to cover: general information about the slide title\n")
	}

	sb.WriteString("Produce 3-5 concise bullets, most important first, plus a one-line takeaway.\n")

	snippets := searchContext
	if len(snippets) > expanderContextSnippets {
		snippets = snippets[:expanderContextSnippets]
	}
	if len(snippets) > 0 {
		sb.WriteString("\nResearch context:\n")
		for _, result := range snippets {
			fmt.Fprintf(&sb, "- %s: %s\n", result.Title, result.Snippet)
		}
	}

	return sb.String()
}

type slidePayload struct {
	Title    string   `json:"title"`
	Bullets  []string `json:"bullets"`
	Takeaway string   `json:"takeaway"`
}

// parseSlidePayload decodes the expansion response. The takeaway, when
// present, becomes the final bullet.
func parseSlidePayload(content string) ([]string, error) {
	var payload slidePayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, eris.Wrap(err, "decoding slide expansion json")
	}

	bullets := trimStrings(payload.Bullets)
	if takeaway := strings.TrimSpace(payload.Takeaway); takeaway != "" {
		bullets = append(bullets, takeaway)
	}

	if len(bullets) == 0 {
		return nil, eris.New("slide expansion contained no bullets")
	}

	return bullets, nil
}

func (e *Expander) logError(fields logrus.Fields, err error, message string) {
	if e.logger == nil || err == nil {
		return
	}

	entry := e.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func buildSlideResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	schema := map[string]any{
		"type":     "object",
		"required": []string{"title", "bullets", "takeaway"},
		"properties": map[string]any{
			"title": map[string]any{
				"type": "string",
			},
			"bullets": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concise bullet points, most important first.",
			},
			"takeaway": map[string]any{
				"type":        "string",
				"description": "One-line takeaway for the slide; empty when none.",
			},
		},
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "slide_content",
				Description: openai.String("Structured slide content payload"),
				Strict:      openai.Bool(true),
				Schema:      schema,
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}
}
