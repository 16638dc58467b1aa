package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"slidesmith/app/internal/deck"
	"slidesmith/app/internal/search"
)

func newFakeExpander(t *testing.T, chat *fakeChatService) *Expander {
	t.Helper()

	expander, err := NewExpander(ExpanderOptions{
		Client: newFakeClient(chat, 0),
		Model:  "test-model",
	})
	if err != nil {
		t.Fatalf("NewExpander returned error: %v", err)
	}
	return expander
}

func contentEntry() deck.OutlineEntry {
	return deck.OutlineEntry{
		Index:     3,
		Title:     "Solar Power",
		Subtitle:  "",
		Kind:      deck.KindContent,
		KeyPoints: []string{"Costs fell 90%", "Utility scale dominates"},
	}
}

func TestExpandParsesBulletsAndTakeaway(t *testing.T) {
	t.Parallel()

	payload := `{"title": "Solar Power", "bullets": [" Module prices fell 90% in a decade ", "Utility scale leads new capacity"], "takeaway": "Solar is now the cheapest new generation."}`
	chat := &fakeChatService{steps: []chatStep{{response: completionWith(payload)}}}
	expander := newFakeExpander(t, chat)

	slide, err := expander.Expand(context.Background(), contentEntry(), []search.Result{
		{Title: "IEA", Snippet: "Record solar deployment in 2024."},
	})
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}

	expected := []string{
		"Module prices fell 90% in a decade",
		"Utility scale leads new capacity",
		"Solar is now the cheapest new generation.",
	}
	if len(slide.Bullets) != len(expected) {
		t.Fatalf("expected bullets %v, got %v", expected, slide.Bullets)
	}
	for i, bullet := range expected {
		if slide.Bullets[i] != bullet {
			t.Fatalf("expected bullet %q at %d, got %q", bullet, i, slide.Bullets[i])
		}
	}

	prompt := chat.lastParams.Messages[1].OfUser.Content.OfString.Value
	if !strings.Contains(prompt, "Solar Power") {
		t.Fatalf("expected prompt to carry the slide title, got %q", prompt)
	}
	if !strings.Contains(prompt, "Costs fell 90%") {
		t.Fatalf("expected prompt to carry the key points, got %q", prompt)
	}
	if !strings.Contains(prompt, "Record solar deployment in 2024.") {
		t.Fatalf("expected prompt to carry research context, got %q", prompt)
	}
}

func TestExpandHonorsExplicitZeroTemperature(t *testing.T) {
	t.Parallel()

	payload := `{"title": "t", "bullets": ["one"], "takeaway": ""}`
	chat := &fakeChatService{steps: []chatStep{{response: completionWith(payload)}}}
	expander, err := NewExpander(ExpanderOptions{
		Client:      newFakeClient(chat, 0),
		Model:       "test-model",
		Temperature: floatPtr(0),
	})
	if err != nil {
		t.Fatalf("NewExpander returned error: %v", err)
	}

	if _, err := expander.Expand(context.Background(), contentEntry(), nil); err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}

	if !chat.lastParams.Temperature.Valid() || chat.lastParams.Temperature.Value != 0 {
		t.Fatalf("expected temperature 0 in request, got valid=%v value=%g",
			chat.lastParams.Temperature.Valid(), chat.lastParams.Temperature.Value)
	}
}

func TestExpandCarriesEntryMetadata(t *testing.T) {
	t.Parallel()

	payload := `{"title": "ignored", "bullets": ["one"], "takeaway": ""}`
	chat := &fakeChatService{steps: []chatStep{{response: completionWith(payload)}}}
	expander := newFakeExpander(t, chat)

	entry := deck.OutlineEntry{Index: 7, Title: "Wrap Up", Subtitle: "Final thoughts", Kind: deck.KindConclusion}
	slide, err := expander.Expand(context.Background(), entry, nil)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}

	if slide.Index != 7 || slide.Title != "Wrap Up" || slide.Subtitle != "Final thoughts" || slide.Kind != deck.KindConclusion {
		t.Fatalf("expected slide to carry outline metadata, got %+v", slide)
	}

	if len(slide.Bullets) != 1 || slide.Bullets[0] != "one" {
		t.Fatalf("expected empty takeaway to be skipped, got %v", slide.Bullets)
	}
}

func TestExpandErrorsOnEmptyBullets(t *testing.T) {
	t.Parallel()

	payload := `{"title": "Solar Power", "bullets": ["  ", ""], "takeaway": "  "}`
	chat := &fakeChatService{steps: []chatStep{{response: completionWith(payload)}}}
	expander := newFakeExpander(t, chat)

	if _, err := expander.Expand(context.Background(), contentEntry(), nil); err == nil {
		t.Fatal("expected error for expansion without bullets")
	}
}

func TestExpandRequiresEntryTitle(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{}
	expander := newFakeExpander(t, chat)

	if _, err := expander.Expand(context.Background(), deck.OutlineEntry{Index: 2}, nil); err == nil {
		t.Fatal("expected error for entry without a title")
	}

	if chat.calls != 0 {
		t.Fatalf("expected no completion calls, got %d", chat.calls)
	}
}

func TestExpandPropagatesCompletionFailure(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{steps: []chatStep{{err: apiError(http.StatusBadRequest)}}}
	expander := newFakeExpander(t, chat)

	if _, err := expander.Expand(context.Background(), contentEntry(), nil); err == nil {
		t.Fatal("expected error when completion fails")
	}
}

func TestNewExpanderValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewExpander(ExpanderOptions{Model: "test-model"}); err == nil {
		t.Fatal("expected error for missing client")
	}

	client := newFakeClient(&fakeChatService{}, 0)
	if _, err := NewExpander(ExpanderOptions{Client: client}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
