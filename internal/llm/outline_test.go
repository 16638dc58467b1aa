package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"slidesmith/app/internal/deck"
	"slidesmith/app/internal/search"
)

const fullOutlineJSON = `{
	"title": "Renewable Energy",
	"slides": [
		{"slide_number": 1, "title": "Renewable Energy", "type": "title", "subtitle": "Powering the Transition", "key_points": []},
		{"slide_number": 2, "title": "Solar Power", "type": "content", "subtitle": "", "key_points": [" Costs fell 90% ", "Utility scale dominates"]},
		{"slide_number": 3, "title": "Wind Power", "type": "content", "subtitle": "", "key_points": ["Offshore growth"]},
		{"slide_number": 4, "title": "Key Takeaways", "type": "conclusion", "subtitle": "", "key_points": ["Invest early"]}
	]
}`

func newFakeOutlineGenerator(t *testing.T, chat *fakeChatService) *OutlineGenerator {
	t.Helper()

	generator, err := NewOutlineGenerator(OutlineGeneratorOptions{
		Client: newFakeClient(chat, 0),
		Model:  "test-model",
	})
	if err != nil {
		t.Fatalf("NewOutlineGenerator returned error: %v", err)
	}
	return generator
}

func TestGenerateParsesOutline(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{steps: []chatStep{{response: completionWith(fullOutlineJSON)}}}
	generator := newFakeOutlineGenerator(t, chat)

	entries, err := generator.Generate(context.Background(), "Renewable Energy", 4, []search.Result{
		{Title: "IEA report", Snippet: "Solar is the cheapest electricity in history."},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	for i, entry := range entries {
		if entry.Index != i+1 {
			t.Fatalf("expected contiguous indices, entry %d has index %d", i, entry.Index)
		}
	}

	if entries[0].Kind != deck.KindTitle {
		t.Fatalf("expected first entry to be title kind, got %s", entries[0].Kind)
	}
	if entries[0].Subtitle != "Powering the Transition" {
		t.Fatalf("expected subtitle carried over, got %q", entries[0].Subtitle)
	}
	if entries[3].Kind != deck.KindConclusion {
		t.Fatalf("expected last entry to be conclusion kind, got %s", entries[3].Kind)
	}

	expectedKeyPoints := []string{"Costs fell 90%", "Utility scale dominates"}
	if len(entries[1].KeyPoints) != len(expectedKeyPoints) {
		t.Fatalf("expected key points %v, got %v", expectedKeyPoints, entries[1].KeyPoints)
	}
	for i, point := range expectedKeyPoints {
		if entries[1].KeyPoints[i] != point {
			t.Fatalf("expected key point %q, got %q", point, entries[1].KeyPoints[i])
		}
	}

	prompt := chat.lastParams.Messages[1].OfUser.Content.OfString.Value
	if !strings.Contains(prompt, "Renewable Energy") {
		t.Fatalf("expected prompt to mention the topic, got %q", prompt)
	}
	if !strings.Contains(prompt, "Solar is the cheapest electricity in history.") {
		t.Fatalf("expected prompt to include search context, got %q", prompt)
	}

	if chat.lastParams.ResponseFormat.OfJSONSchema == nil {
		t.Fatal("expected a JSON schema response format")
	}
}

func TestGenerateHonorsExplicitZeroTemperature(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{steps: []chatStep{{response: completionWith(fullOutlineJSON)}}}
	generator, err := NewOutlineGenerator(OutlineGeneratorOptions{
		Client:      newFakeClient(chat, 0),
		Model:       "test-model",
		Temperature: floatPtr(0),
	})
	if err != nil {
		t.Fatalf("NewOutlineGenerator returned error: %v", err)
	}

	if _, err := generator.Generate(context.Background(), "Topic", 4, nil); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if !chat.lastParams.Temperature.Valid() || chat.lastParams.Temperature.Value != 0 {
		t.Fatalf("expected temperature 0 in request, got valid=%v value=%g",
			chat.lastParams.Temperature.Valid(), chat.lastParams.Temperature.Value)
	}
}

func TestGenerateDefaultsTemperatureWhenUnset(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{steps: []chatStep{{response: completionWith(fullOutlineJSON)}}}
	generator := newFakeOutlineGenerator(t, chat)

	if _, err := generator.Generate(context.Background(), "Topic", 4, nil); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if chat.lastParams.Temperature.Value != defaultOutlineTemperature {
		t.Fatalf("expected default temperature %g, got %g", defaultOutlineTemperature, chat.lastParams.Temperature.Value)
	}
}

func TestGenerateForcesFirstSlideToTitleKind(t *testing.T) {
	t.Parallel()

	payload := `{"title": "T", "slides": [
		{"slide_number": 1, "title": "Not A Title Slide", "type": "content", "subtitle": "", "key_points": []},
		{"slide_number": 2, "title": "Body", "type": "content", "subtitle": "", "key_points": []}
	]}`

	chat := &fakeChatService{steps: []chatStep{{response: completionWith(payload)}}}
	generator := newFakeOutlineGenerator(t, chat)

	entries, err := generator.Generate(context.Background(), "Topic", 2, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if entries[0].Kind != deck.KindTitle {
		t.Fatalf("first slide must be title kind regardless of declared type, got %s", entries[0].Kind)
	}
}

func TestGeneratePadsShortOutline(t *testing.T) {
	t.Parallel()

	payload := `{"title": "T", "slides": [
		{"slide_number": 1, "title": "Topic", "type": "title", "subtitle": "Sub", "key_points": []},
		{"slide_number": 2, "title": "Only Content Slide", "type": "content", "subtitle": "", "key_points": []}
	]}`

	chat := &fakeChatService{steps: []chatStep{{response: completionWith(payload)}}}
	generator := newFakeOutlineGenerator(t, chat)

	entries, err := generator.Generate(context.Background(), "Topic", 5, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(entries) != 5 {
		t.Fatalf("expected outline padded to 5 entries, got %d", len(entries))
	}

	for i, entry := range entries {
		if entry.Index != i+1 {
			t.Fatalf("expected contiguous indices after padding, entry %d has index %d", i, entry.Index)
		}
	}

	for _, entry := range entries[2:] {
		if !strings.Contains(entry.Title, "Topic") {
			t.Fatalf("expected placeholder titled after the topic, got %q", entry.Title)
		}
	}

	if entries[4].Kind != deck.KindConclusion {
		t.Fatalf("expected padded final slide to be conclusion kind, got %s", entries[4].Kind)
	}
}

func TestGenerateMalformedResponseFallsBackToPlaceholders(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{steps: []chatStep{{response: completionWith("I could not produce JSON, sorry.")}}}
	generator := newFakeOutlineGenerator(t, chat)

	entries, err := generator.Generate(context.Background(), "Quantum Computing", 3, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 placeholder entries, got %d", len(entries))
	}

	if entries[0].Title != "Quantum Computing" || entries[0].Kind != deck.KindTitle {
		t.Fatalf("expected topic title slide placeholder, got %+v", entries[0])
	}
	if entries[2].Kind != deck.KindConclusion {
		t.Fatalf("expected final placeholder to be conclusion kind, got %s", entries[2].Kind)
	}
}

func TestGenerateRecoversJSONWrappedInProse(t *testing.T) {
	t.Parallel()

	wrapped := "Here is your outline:\n\n" + fullOutlineJSON + "\n\nHope this helps!"
	chat := &fakeChatService{steps: []chatStep{{response: completionWith(wrapped)}}}
	generator := newFakeOutlineGenerator(t, chat)

	entries, err := generator.Generate(context.Background(), "Renewable Energy", 4, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if entries[1].Title != "Solar Power" {
		t.Fatalf("expected parsed entry despite surrounding prose, got %q", entries[1].Title)
	}
}

func TestGenerateValidatesArguments(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{steps: []chatStep{{response: completionWith(fullOutlineJSON)}}}
	generator := newFakeOutlineGenerator(t, chat)

	if _, err := generator.Generate(context.Background(), "   ", 4, nil); err == nil {
		t.Fatal("expected error for blank topic")
	}
	if _, err := generator.Generate(context.Background(), "Topic", 0, nil); err == nil {
		t.Fatal("expected error for zero slides")
	}
	if _, err := generator.Generate(context.Background(), "Topic", 51, nil); err == nil {
		t.Fatal("expected error for excessive slides")
	}

	if chat.calls != 0 {
		t.Fatalf("expected no completion calls for invalid arguments, got %d", chat.calls)
	}
}

func TestGeneratePropagatesCompletionFailure(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{steps: []chatStep{{err: apiError(http.StatusBadRequest)}}}
	generator := newFakeOutlineGenerator(t, chat)

	if _, err := generator.Generate(context.Background(), "Topic", 3, nil); err == nil {
		t.Fatal("expected error when completion fails")
	}
}

func TestNewOutlineGeneratorValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewOutlineGenerator(OutlineGeneratorOptions{Model: "test-model"}); err == nil {
		t.Fatal("expected error for missing client")
	}

	client := newFakeClient(&fakeChatService{}, 0)
	if _, err := NewOutlineGenerator(OutlineGeneratorOptions{Client: client}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
