package classifier

import (
	"regexp"
	"strings"
)

// Rule maps a prompt to a category. A rule matches when any of its patterns
// matches or any of its substrings is contained in the normalized prompt.
type Rule struct {
	Name       string
	Category   Category
	Confidence float64
	Keywords   []string
	Patterns   []*regexp.Regexp
	Contains   []string
}

// Match reports whether the normalized prompt satisfies the rule.
func (r Rule) Match(normalized string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	for _, s := range r.Contains {
		if strings.Contains(normalized, s) {
			return true
		}
	}
	return false
}

var languageKeywords = []string{
	"synonym", "antonym", "opposite", "translate", "pronounce", "definition", "define", "meaning", "sentence",
	"use in a sentence", "grammar", "past tense", "present tense", "future tense", "conjugate", "adjective", "noun",
	"verb", "preposition", "article", "plural of", "singular of", "idiom", "phrasal verb", "how do you say", "in english",
	"in hindi", "in french", "in spanish", "spelling", "capitalization", "is this sentence correct", "correct my sentence",
	"fix this sentence", "is this correct", "correct the sentence", "is this grammatical", "what's the grammar rule", "grammar rules",
	"give me grammar rules", "english grammar rule", "punctuation", "orthography", "usage", "definition of",
}

var languageRulePatterns = []string{
	`english grammar rules?`, `grammar rules?`, `give me grammar rules`, `list grammar rules`, `what is the grammar rule`,
	`define grammar`, `punctionuation`, `spelling rules?`, `tell me.*grammar`, `.*types of.*tense`, `when to use.*`, `how to use.*`,
	`language learning`, `learn english`, `learn grammar`,
}

// languagePhrasePatterns are written with spaces for readability but are
// compiled with all whitespace removed (see stripSpace), so multi-word
// alternatives only match space-free text. The keyword union above is what
// catches multi-word phrases.
var languagePhrasePatterns = []string{
	`how do you say .+ in .+`,
	`what does .+ mean`,
	`correct the sentence|fix the sentence|is this sentence correct|is this correct|grammar|spell|misspelled|spelling|capitalization|is this grammatical|correct my sentence|correct my grammar|give me grammar rules|grammar rules?|english grammar`,
	`how to pronounce`,
	`translate .+ to .+`,
	`definition of .+`,
}

var mathKeywords = []string{
	"integral", "derivative", "solve", "equation", "roots of", "expand", "differentiate", "simplify", "quadratic",
	"calculate", "value of", "area of", "find the", "evaluate", "factor", "sum of", "product of", "matrix", "mean",
	"median", "variance", "probability", "permutation", "combination", "limit", "logarithm", "tan(", "sin(", "cos(",
	"math", "arithmetic", "geometry", "algebra", "calculus",
}

// ArithmeticPattern matches a two-operand arithmetic expression such as "2 + 2".
const ArithmeticPattern = `\d+\s*[\+\-\*/]\s*\d+`

const variablePattern = `\b[xytz](?:\^\d+)?\b`

var mathPatterns = []string{
	ArithmeticPattern,
	`\b(?:` + quoteAll(mathKeywords) + `)\b`,
	variablePattern,
	`\bpi\b|\btheta\b|\balpha\b|\bbeta\b`,
	`\bintegral\b|\bdifferentiate\b|\bfind\b.*\bderivative\b`,
	`\bsolve\b.*\bfor\b`,
	`\bformula\b`,
	`\bfactorize\b`,
}

// GreetingWords is the greeting vocabulary, also used as the greeting keyword set.
var GreetingWords = []string{"hello", "hi", "hey", "greetings", "good morning", "good evening"}

// DefaultRules returns the built-in rule table in priority order.
func DefaultRules() []Rule {
	languagePhrases := []string{`\b(?:` + quoteAll(languageKeywords) + `)\b`}
	for _, p := range languagePhrasePatterns {
		languagePhrases = append(languagePhrases, stripSpace(p))
	}
	return []Rule{
		{
			Name:       "language-rules",
			Category:   Language,
			Confidence: 0.99,
			Keywords:   []string{"language", "grammar", "rules"},
			Patterns:   compileAll(languageRulePatterns),
		},
		{
			Name:       "language",
			Category:   Language,
			Confidence: 0.98,
			Keywords:   []string{"language", "grammar", "translation", "spelling"},
			Patterns:   compileAll(languagePhrases),
		},
		{
			Name:       "math",
			Category:   Math,
			Confidence: 0.99,
			Keywords:   []string{"math", "arithmetic", "calculus", "formula"},
			Patterns:   compileAll(mathPatterns),
		},
		{
			Name:       "weather",
			Category:   Weather,
			Confidence: 0.96,
			Keywords:   []string{"weather"},
			Contains:   []string{"weather"},
		},
		{
			Name:       "news",
			Category:   News,
			Confidence: 0.96,
			Keywords:   []string{"news"},
			Contains:   []string{"news"},
		},
		{
			Name:       "greeting",
			Category:   Greeting,
			Confidence: 0.95,
			Keywords:   GreetingWords,
			Patterns:   []*regexp.Regexp{greetingPattern},
		},
	}
}

var greetingPattern = regexp.MustCompile(`^(?:` + quoteAll(GreetingWords) + `)(?:\W|$)`)

// stripSpace drops every whitespace character from a pattern.
func stripSpace(pattern string) string {
	return strings.Join(strings.Fields(pattern), "")
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

func quoteAll(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
