package deck

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

var testCapacity = Capacity{MaxBullets: 4, MaxCharsPerBullet: 40}

func TestFitLeavesContentWithinCapacityUnchanged(t *testing.T) {
	t.Parallel()

	slide := Slide{
		Index:   2,
		Title:   "Renewable Energy",
		Kind:    KindContent,
		Bullets: []string{"Solar is cheap", "Wind scales well"},
	}

	fitted := Fit(slide, testCapacity)

	if !reflect.DeepEqual(fitted, slide) {
		t.Fatalf("expected slide unchanged, got %+v", fitted)
	}
}

func TestFitTruncatesAtWordBoundaryWithEllipsis(t *testing.T) {
	t.Parallel()

	slide := Slide{
		Bullets: []string{"Grid scale storage deployments doubled across major markets last year"},
	}

	fitted := Fit(slide, testCapacity)

	bullet := fitted.Bullets[0]
	if utf8.RuneCountInString(bullet) > testCapacity.MaxCharsPerBullet {
		t.Fatalf("fitted bullet exceeds capacity: %q (%d runes)", bullet, utf8.RuneCountInString(bullet))
	}
	if !strings.HasSuffix(bullet, "…") {
		t.Fatalf("expected ellipsis marker, got %q", bullet)
	}
	if strings.HasSuffix(strings.TrimSuffix(bullet, "…"), " ") {
		t.Fatalf("expected no trailing space before ellipsis, got %q", bullet)
	}
	// The cut lands on a word boundary: everything before the marker must be a
	// prefix of the original ending at a complete word.
	prefix := strings.TrimSuffix(bullet, "…")
	if !strings.HasPrefix(slide.Bullets[0], prefix) {
		t.Fatalf("truncated text %q is not a prefix of the original", prefix)
	}
	rest := slide.Bullets[0][len(prefix):]
	if !strings.HasPrefix(rest, " ") {
		t.Fatalf("expected cut at word boundary, remainder starts with %q", rest)
	}
}

func TestFitTruncatesSingleOverlongWordMidWord(t *testing.T) {
	t.Parallel()

	slide := Slide{
		Bullets: []string{strings.Repeat("x", 60)},
	}

	fitted := Fit(slide, testCapacity)

	bullet := fitted.Bullets[0]
	if utf8.RuneCountInString(bullet) != testCapacity.MaxCharsPerBullet {
		t.Fatalf("expected bullet of exactly %d runes, got %d", testCapacity.MaxCharsPerBullet, utf8.RuneCountInString(bullet))
	}
	if !strings.HasSuffix(bullet, "…") {
		t.Fatalf("expected ellipsis marker, got %q", bullet)
	}
	if bullet == "…" {
		t.Fatal("expected truncated content, not a bare ellipsis")
	}
}

func TestFitDropsBulletsBeyondLimitInOrder(t *testing.T) {
	t.Parallel()

	slide := Slide{
		Bullets: []string{"one", "two", "three", "four", "five", "six"},
	}

	fitted := Fit(slide, testCapacity)

	expected := []string{"one", "two", "three", "four"}
	if !reflect.DeepEqual(fitted.Bullets, expected) {
		t.Fatalf("expected first %d bullets kept in order, got %v", testCapacity.MaxBullets, fitted.Bullets)
	}
}

func TestFitEmptyBulletsUnchanged(t *testing.T) {
	t.Parallel()

	slide := Slide{Index: 1, Title: "Title Only", Kind: KindTitle}

	fitted := Fit(slide, testCapacity)

	if len(fitted.Bullets) != 0 {
		t.Fatalf("expected no bullets, got %v", fitted.Bullets)
	}
}

func TestFitIsIdempotent(t *testing.T) {
	t.Parallel()

	slides := []Slide{
		{Bullets: []string{"short"}},
		{Bullets: []string{strings.Repeat("word ", 30)}},
		{Bullets: []string{strings.Repeat("y", 200)}},
		{Bullets: []string{"a", "b", "c", "d", "e", "f", "g"}},
		{Bullets: []string{}},
	}

	for _, slide := range slides {
		once := Fit(slide, testCapacity)
		twice := Fit(once, testCapacity)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("Fit is not idempotent for %+v: first %v, second %v", slide, once.Bullets, twice.Bullets)
		}
	}
}

func TestFitNeverIncreasesCounts(t *testing.T) {
	t.Parallel()

	slide := Slide{
		Bullets: []string{
			strings.Repeat("long bullet text ", 10),
			"tiny",
			strings.Repeat("z", 500),
			"medium sized bullet that fits fine here",
			"another", "and another", "overflow bullet",
		},
	}

	fitted := Fit(slide, testCapacity)

	if len(fitted.Bullets) > testCapacity.MaxBullets {
		t.Fatalf("bullet count %d exceeds capacity %d", len(fitted.Bullets), testCapacity.MaxBullets)
	}
	for i, bullet := range fitted.Bullets {
		if utf8.RuneCountInString(bullet) > testCapacity.MaxCharsPerBullet {
			t.Fatalf("bullet %d exceeds char capacity: %q", i, bullet)
		}
	}
}
