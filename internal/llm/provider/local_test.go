package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEchoProvider_Complete(t *testing.T) {
	p := NewLocalEchoProvider()

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"addition", "2 + 2", "The answer to 2+2 is **4**."},
		{"embedded expression", "what is 12*3 exactly?", "The answer to 12*3 is **36**."},
		{"fractional result", "7/2", "The answer to 7/2 is **3.5**."},
		{"decimal operands", "1.5 - 0.5", "The answer to 1.5-0.5 is **1**."},
		{"division by zero", "5 / 0", "The answer to 5/0 is **undefined** (division by zero)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Complete(context.Background(), tt.prompt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Text)
		})
	}
}

func TestLocalEchoProvider_NonMath(t *testing.T) {
	p := NewLocalEchoProvider()

	got, err := p.Complete(context.Background(), "tell me a story")
	require.NoError(t, err)
	assert.Equal(t, "I processed your request: 'tell me a story...' but I'm limited to math calculations. For other queries, please use OpenAI or Gemini.", got.Text)

	long := strings.Repeat("a", 300)
	got, err = p.Complete(context.Background(), long)
	require.NoError(t, err)
	assert.Contains(t, got.Text, "'"+strings.Repeat("a", 100)+"...'")
}

func TestLocalEchoProvider_Descriptor(t *testing.T) {
	d := NewLocalEchoProvider().Descriptor()
	assert.Equal(t, "local_echo", d.ID)
	assert.Equal(t, "Local Echo (dev)", d.Name)
	assert.Equal(t, 0.5, d.Quality)
	assert.True(t, d.HasStrength("math"))
	assert.False(t, d.HasStrength("language"))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		a, op, b string
		want     float64
		wantErr  error
	}{
		{"2", "+", "2", 4, nil},
		{"10", "-", "15", -5, nil},
		{"6", "*", "7", 42, nil},
		{"9", "/", "4", 2.25, nil},
		{"1", "/", "0", 0, ErrDivisionByZero},
	}

	for _, tt := range tests {
		t.Run(tt.a+tt.op+tt.b, func(t *testing.T) {
			got, err := Evaluate(tt.a, tt.op, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Evaluate("2", "^", "3")
	assert.Error(t, err)
	_, err = Evaluate("two", "+", "3")
	assert.Error(t, err)
}
