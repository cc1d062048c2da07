package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverser struct {
	out   *bedrockruntime.ConverseOutput
	err   error
	input *bedrockruntime.ConverseInput
}

func (f *fakeConverser) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestBedrockProvider_Complete(t *testing.T) {
	fake := &fakeConverser{
		out: &bedrockruntime.ConverseOutput{
			Output: &types.ConverseOutputMemberMessage{
				Value: types.Message{
					Role:    types.ConversationRoleAssistant,
					Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "Paris"}},
				},
			},
		},
	}

	p := NewBedrockProviderWithClient(fake, Options{})
	got, err := p.Complete(context.Background(), "capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Text)

	require.NotNil(t, fake.input)
	assert.Equal(t, bedrockModel, aws.ToString(fake.input.ModelId))
	require.Len(t, fake.input.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, fake.input.Messages[0].Role)
}

func TestBedrockProvider_Failures(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeConverser
		wantCode string
	}{
		{
			name:     "throttled",
			fake:     &fakeConverser{err: &types.ThrottlingException{Message: aws.String("slow down")}},
			wantCode: ErrorCodeRateLimit,
		},
		{
			name:     "access denied",
			fake:     &fakeConverser{err: &types.AccessDeniedException{Message: aws.String("no")}},
			wantCode: ErrorCodeNotConfigured,
		},
		{
			name:     "empty output",
			fake:     &fakeConverser{out: &bedrockruntime.ConverseOutput{}},
			wantCode: ErrorCodeEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBedrockProviderWithClient(tt.fake, Options{}).Complete(context.Background(), "Hi")

			var pe *ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantCode, pe.Code)
		})
	}
}

func TestNewBedrockProvider_RequiresRegion(t *testing.T) {
	_, err := NewBedrockProvider(context.Background(), "", Options{})
	assert.Error(t, err)
}
