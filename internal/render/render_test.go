package render

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

const testLink = "https://example.com/articles/some-story"

func newTestRenderer(budget int, seed int64) *Renderer {
	return New(budget, rand.New(rand.NewSource(seed)))
}

func TestRenderNeverExceedsBudget(t *testing.T) {
	budget := DefaultBudget
	titles := map[string]string{
		"empty":       "",
		"one_under":   strings.Repeat("a", budget-1),
		"exact":       strings.Repeat("b", budget),
		"far_beyond":  strings.Repeat("c", budget*4),
		"multibyte":   strings.Repeat("ü", budget*2),
		"short_plain": "OpenAI releases a new model",
	}

	for name, title := range titles {
		t.Run(name, func(t *testing.T) {
			// Multiple seeds so every template layout gets exercised.
			for seed := int64(0); seed < 10; seed++ {
				r := newTestRenderer(budget, seed)
				text := r.Render(title, testLink, "ai")
				assert.LessOrEqual(t, utf8.RuneCountInString(text), budget,
					"seed %d produced %d runes", seed, utf8.RuneCountInString(text))
			}
		})
	}
}

func TestRenderTruncationKeepsLinkAndTags(t *testing.T) {
	r := newTestRenderer(DefaultBudget, 1)
	r.CommentProb = 0

	text := r.Render(strings.Repeat("x", 1000), testLink, "ai")
	assert.Contains(t, text, testLink)
	assert.Contains(t, text, "#AI")
	assert.Contains(t, text, "...")
}

func TestRenderDeterministicForSeed(t *testing.T) {
	a := newTestRenderer(DefaultBudget, 42).Render("Some headline", testLink, "ai")
	b := newTestRenderer(DefaultBudget, 42).Render("Some headline", testLink, "ai")
	assert.Equal(t, a, b)
}

func TestRenderUnknownCategoryFallsBack(t *testing.T) {
	r := newTestRenderer(DefaultBudget, 3)
	r.CommentProb = 0

	text := r.Render("Some headline", testLink, "gardening")
	assert.Contains(t, text, genericTags)
}

func TestRenderCommentProbability(t *testing.T) {
	never := newTestRenderer(DefaultBudget, 7)
	never.CommentProb = 0
	withoutComment := never.Render("Some headline", testLink, "ai")
	for _, c := range engagementPool {
		assert.NotContains(t, withoutComment, c)
	}

	always := newTestRenderer(DefaultBudget, 7)
	always.CommentProb = 1
	withComment := always.Render("Some headline", testLink, "ai")
	found := false
	for _, c := range engagementPool {
		if strings.Contains(withComment, c) {
			found = true
		}
	}
	assert.True(t, found, "expected an engagement comment in %q", withComment)
}

func TestRenderTinyBudget(t *testing.T) {
	// Budget barely larger than the link; optional parts must be
	// dropped and the result still fits.
	budget := len(testLink) + 30
	for seed := int64(0); seed < 5; seed++ {
		r := newTestRenderer(budget, seed)
		r.CommentProb = 1
		text := r.Render(strings.Repeat("y", 500), testLink, "cybersecurity")
		assert.LessOrEqual(t, utf8.RuneCountInString(text), budget)
	}
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":            {"Hello world", "Hello world"},
		"trailing_dots":    {"Hello world...", "Hello world"},
		"unicode_ellipsis": {"Hello world…", "Hello world"},
		"dash_suffix":      {"Big breach hits vendor - Krebs on Security", "Big breach hits vendor"},
		"pipe_suffix":      {"Big breach hits vendor | The Hacker News", "Big breach hits vendor"},
		"first_dash_only":  {"A - B - C", "A"},
		"whitespace":       {"  padded  ", "padded"},
		"empty":            {"", ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanTitle(tc.in))
		})
	}
}
