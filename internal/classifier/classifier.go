// Package classifier maps raw prompts to a category using a fixed,
// deterministic table of patterns. Rules are evaluated in priority order and
// the first match wins.
package classifier

import (
	"strings"
)

// Category is the label assigned to a prompt.
type Category string

const (
	Math     Category = "math"
	Language Category = "language"
	Weather  Category = "weather"
	News     Category = "news"
	Greeting Category = "greeting"
	General  Category = "general"
)

// Categories lists every category in classification priority order.
var Categories = []Category{Language, Math, Weather, News, Greeting, General}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// GeneralConfidence is reported when no rule matches.
const GeneralConfidence = 0.86

// Result is the outcome of classifying one prompt.
type Result struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

// Classifier evaluates an ordered rule table. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New creates a classifier over rules. With no rules it uses DefaultRules.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the category of prompt.
func (c *Classifier) Classify(prompt string) Result {
	normalized := Normalize(prompt)
	for _, r := range c.rules {
		if r.Match(normalized) {
			return Result{
				Category:   r.Category,
				Confidence: r.Confidence,
				Keywords:   append([]string{}, r.Keywords...),
			}
		}
	}
	return Result{Category: General, Confidence: GeneralConfidence, Keywords: []string{}}
}

// Normalize lowercases and trims a prompt.
func Normalize(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

var defaultClassifier = New()

// Classify classifies prompt with the default rule table.
func Classify(prompt string) Result {
	return defaultClassifier.Classify(prompt)
}
