package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
)

var expressionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([\+\-\*/])\s*(\d+(?:\.\d+)?)`)

// LocalEchoProvider answers simple two-operand arithmetic locally and
// returns a fixed limited-capability reply for anything else. It needs no
// credential and always produces a response.
type LocalEchoProvider struct {
	desc Descriptor
}

// NewLocalEchoProvider creates the local fallback provider
func NewLocalEchoProvider() *LocalEchoProvider {
	return &LocalEchoProvider{
		desc: Descriptor{
			ID:        "local_echo",
			Name:      "Local Echo (dev)",
			Strengths: []classifier.Category{classifier.Math},
			Quality:   0.5,
		},
	}
}

// Descriptor returns the provider descriptor
func (p *LocalEchoProvider) Descriptor() Descriptor {
	return p.desc
}

// Complete evaluates the first arithmetic expression in prompt
func (p *LocalEchoProvider) Complete(_ context.Context, prompt string) (*Completion, error) {
	m := expressionPattern.FindStringSubmatch(prompt)
	if m == nil {
		return &Completion{
			Text: fmt.Sprintf("I processed your request: '%s...' but I'm limited to math calculations. For other queries, please use OpenAI or Gemini.", truncate(prompt, 100)),
		}, nil
	}

	expr := m[1] + m[2] + m[3]
	result, err := Evaluate(m[1], m[2], m[3])
	if err != nil {
		return &Completion{Text: fmt.Sprintf("The answer to %s is **undefined** (%v).", expr, err)}, nil
	}
	return &Completion{
		Text: fmt.Sprintf("The answer to %s is **%s**.", expr, strconv.FormatFloat(result, 'f', -1, 64)),
	}, nil
}

// ErrDivisionByZero is returned by Evaluate for a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// Evaluate computes a op b for the four basic operators. It accepts nothing
// beyond two decimal operands and one operator.
func Evaluate(a, op, b string) (float64, error) {
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operand %q: %w", a, err)
	}
	y, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operand %q: %w", b, err)
	}

	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		return x / y, nil
	default:
		return 0, fmt.Errorf("unsupported operator %q", op)
	}
}
