// Package render turns an entry into platform-safe post text within a
// hard character budget. Rendering is a pure function of the entry and
// the injected random source, so tests can pin exact output.
package render

import (
	"math/rand"
	"strings"
	"unicode/utf8"
)

// DefaultBudget is the smallest common platform character limit
// (Bluesky, 300).
const DefaultBudget = 300

// DefaultCommentProbability is the chance of appending one engagement
// phrase to a post.
const DefaultCommentProbability = 0.3

const truncationMark = "..."

// categoryPhrases are the opening lines per configured category.
var categoryPhrases = map[string][]string{
	"ai": {
		"New in AI:",
		"AI update:",
		"Worth watching in AI:",
	},
	"cybersecurity": {
		"Security alert:",
		"Infosec news:",
		"Heads up:",
	},
}

// genericPhrases cover entries from unknown categories.
var genericPhrases = []string{
	"In the news:",
	"Fresh off the wire:",
}

// categoryTags are the hashtag sets per category.
var categoryTags = map[string]string{
	"ai":            "#AI #MachineLearning #Tech",
	"cybersecurity": "#CyberSecurity #InfoSec #Hacking",
}

const genericTags = "#News #Tech"

// engagementPool are shared closing comments, appended with a fixed
// probability regardless of category.
var engagementPool = []string{
	"Thoughts?",
	"Worth a read.",
	"Interesting development.",
	"One to keep an eye on.",
}

// Renderer composes post text from entries.
type Renderer struct {
	Budget      int
	CommentProb float64
	rng         *rand.Rand
}

// New creates a Renderer with the given budget drawing from rng.
func New(budget int, rng *rand.Rand) *Renderer {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Renderer{
		Budget:      budget,
		CommentProb: DefaultCommentProbability,
		rng:         rng,
	}
}

// layout carries one set of rendering decisions; the title is
// substituted last so the truncation math can measure the fixed parts
// alone.
type layout struct {
	phrase  string
	link    string
	comment string
	tags    string
	style   int
}

// Render produces the final post text for an entry. The result never
// exceeds the configured budget, counted in runes.
func (r *Renderer) Render(title, link, category string) string {
	title = CleanTitle(title)

	l := layout{
		link:  link,
		tags:  tagsFor(category),
		style: r.rng.Intn(3),
	}
	l.phrase = r.pickPhrase(category)
	if r.rng.Float64() < r.CommentProb {
		l.comment = engagementPool[r.rng.Intn(len(engagementPool))]
	}

	text := compose(l, title)
	if utf8.RuneCountInString(text) <= r.Budget {
		return text
	}

	// Recompute the room left for the title: budget minus the fixed
	// parts minus a small safety margin, then truncate and recompose.
	fixed := utf8.RuneCountInString(compose(l, ""))
	maxTitle := r.Budget - fixed - len(truncationMark)
	if maxTitle < 1 {
		// Degenerate budget: drop optional parts and try again.
		l.comment = ""
		l.phrase = ""
		fixed = utf8.RuneCountInString(compose(l, ""))
		maxTitle = r.Budget - fixed - len(truncationMark)
	}
	if maxTitle > 0 {
		text = compose(l, truncateRunes(title, maxTitle)+truncationMark)
	}
	if utf8.RuneCountInString(text) > r.Budget {
		text = truncateRunes(text, r.Budget)
	}
	return text
}

// compose assembles one of the fixed layout templates.
func compose(l layout, title string) string {
	var b strings.Builder

	switch l.style {
	case 1:
		b.WriteString(title)
	case 2:
		if l.phrase != "" {
			b.WriteString(l.phrase)
			b.WriteString(" ")
		}
		b.WriteString(title)
	default:
		if l.phrase != "" {
			b.WriteString(l.phrase)
			b.WriteString("\n\n")
		}
		b.WriteString(title)
	}

	b.WriteString("\n\n")
	b.WriteString(l.link)
	if l.comment != "" {
		b.WriteString("\n\n")
		b.WriteString(l.comment)
	}
	b.WriteString("\n\n")
	b.WriteString(l.tags)
	return b.String()
}

func (r *Renderer) pickPhrase(category string) string {
	phrases, ok := categoryPhrases[category]
	if !ok {
		phrases = genericPhrases
	}
	return phrases[r.rng.Intn(len(phrases))]
}

func tagsFor(category string) string {
	if tags, ok := categoryTags[category]; ok {
		return tags
	}
	return genericTags
}

// CleanTitle strips a trailing ellipsis and splits off trailing
// " - Source" / " | Source" suffixes, keeping the left portion.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimSuffix(title, "...")
	title = strings.TrimSuffix(title, "…")

	if i := strings.Index(title, " - "); i > 0 {
		title = title[:i]
	}
	if i := strings.Index(title, " | "); i > 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
