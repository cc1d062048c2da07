package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

// The explanation rules overlap with, but are not the same as, the
// classification rules. An explanation can name a different category than
// Classify returns for the same prompt.

var explainLanguageKeywords = []string{
	"translate", "grammar", "correct", "sentence", "spelling", "synonym", "antonym", "tense",
	"pronounce", "definition", "idiom", "phrasal verb", "capitalization", "grammar rule", "rules",
}

var explainMathKeywords = []string{
	"integral", "derivative", "solve", "equation", "expand", "calculate",
	"quadratic", "factor", "sum", "probability", "formula", "arithmetic",
}

var (
	explainGrammarCheck = regexp.MustCompile(`is this sentence correct|correct the sentence|fix the sentence|is this correct|is this grammatical|correct my grammar|correct my sentence|grammar rules?|english grammar|give me grammar rules|what is the grammar rule`)
	explainTranslation  = regexp.MustCompile(`translate|how do you say|in english|in hindi|in french|in spanish`)
	explainSpelling     = regexp.MustCompile(`spell|misspelled|spelling|capitalization`)
	explainArithmetic   = regexp.MustCompile(ArithmeticPattern)
	explainVariable     = regexp.MustCompile(variablePattern)
)

// Explain returns a human readable justification for a classification.
// It is advisory only.
func Explain(prompt string) string {
	p := strings.ToLower(prompt)

	if found := containedWords(p, explainLanguageKeywords); len(found) > 0 {
		return fmt.Sprintf("Classified as Language AI because prompt contains language/grammar keywords: %s.", strings.Join(found, ", "))
	}
	if explainGrammarCheck.MatchString(p) {
		return "Classified as Language AI because prompt asks for language rules or grammar checking."
	}
	if explainTranslation.MatchString(p) {
		return "Classified as Language AI because prompt requests translation."
	}
	if explainSpelling.MatchString(p) {
		return "Classified as Language AI because prompt asks about spelling or capitalization."
	}

	foundMath := containedWords(p, explainMathKeywords)
	hasArithmetic := explainArithmetic.MatchString(p)
	hasVariable := explainVariable.MatchString(p)
	if len(foundMath) > 0 || hasArithmetic || hasVariable {
		var reasons []string
		if len(foundMath) > 0 {
			reasons = append(reasons, "contains math keywords: "+strings.Join(foundMath, ", "))
		}
		if hasArithmetic {
			reasons = append(reasons, "contains arithmetic operations")
		}
		if hasVariable {
			reasons = append(reasons, "contains math variable(s)")
		}
		return fmt.Sprintf("Classified as Math AI because prompt %s.", strings.Join(reasons, " and "))
	}

	if greetingPattern.MatchString(p) {
		return "Classified as Greeting because prompt contains greeting words."
	}
	if strings.Contains(p, "weather") {
		return "Classified as Weather AI because prompt mentions weather."
	}
	if strings.Contains(p, "news") {
		return "Classified as News AI because prompt mentions news."
	}
	return "Classified as General AI because prompt doesn't match specific math, language, weather, news, or greeting patterns."
}

func containedWords(s string, words []string) []string {
	var found []string
	for _, w := range words {
		if strings.Contains(s, w) {
			found = append(found, w)
		}
	}
	return found
}
