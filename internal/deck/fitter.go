package deck

import "strings"

const ellipsis = "…"

// Fit returns a copy of the slide whose bullets respect the given capacity.
// It is pure and idempotent: fitting already-fitted content changes nothing.
//
// Bullets beyond cap.MaxBullets are dropped from the end; earlier bullets are
// assumed most salient because prompts front-load importance. Overlong bullets
// are cut at the last word boundary that leaves room for an ellipsis marker; a
// single word longer than the budget is cut mid-word rather than dropped.
func Fit(slide Slide, cap Capacity) Slide {
	if len(slide.Bullets) == 0 {
		return slide
	}

	bullets := slide.Bullets
	if cap.MaxBullets > 0 && len(bullets) > cap.MaxBullets {
		bullets = bullets[:cap.MaxBullets]
	}

	fitted := make([]string, len(bullets))
	for i, bullet := range bullets {
		fitted[i] = fitBullet(bullet, cap.MaxCharsPerBullet)
	}

	slide.Bullets = fitted
	return slide
}

func fitBullet(bullet string, maxChars int) string {
	if maxChars <= 0 {
		return bullet
	}

	runes := []rune(bullet)
	if len(runes) <= maxChars {
		return bullet
	}

	// Leave room for the ellipsis so the fitted bullet never exceeds maxChars.
	budget := maxChars - 1
	if budget <= 0 {
		return ellipsis
	}

	cut := budget
	if idx := lastSpaceBefore(runes, budget); idx > 0 {
		cut = idx
	}

	truncated := strings.TrimRight(string(runes[:cut]), " ")
	return truncated + ellipsis
}

// lastSpaceBefore returns the index of the last space at or before limit,
// or -1 when the prefix is a single unbroken word.
func lastSpaceBefore(runes []rune, limit int) int {
	for i := limit; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
