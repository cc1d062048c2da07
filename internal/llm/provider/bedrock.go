package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	bedrockModel     = "anthropic.claude-3-haiku-20240307-v1:0"
	bedrockMaxTokens = 500
)

// Converser is the subset of the Bedrock runtime client used here.
type Converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements Provider for Amazon Bedrock via the Converse API.
// Credentials come from the standard AWS chain.
type BedrockProvider struct {
	desc   Descriptor
	opts   Options
	model  string
	client Converser
}

// NewBedrockProvider loads the AWS configuration for region and creates a
// Bedrock provider.
func NewBedrockProvider(ctx context.Context, region string, opts Options) (*BedrockProvider, error) {
	if region == "" {
		return nil, errors.New("bedrock region is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewBedrockProviderWithClient(bedrockruntime.NewFromConfig(cfg), opts), nil
}

// NewBedrockProviderWithClient creates a Bedrock provider over an existing client.
func NewBedrockProviderWithClient(client Converser, opts Options) *BedrockProvider {
	model := opts.Model
	if model == "" {
		model = bedrockModel
	}
	return &BedrockProvider{
		desc: opts.apply(Descriptor{
			ID:        "bedrock",
			Name:      "Amazon Bedrock",
			Strengths: []classifier.Category{classifier.General, classifier.Language},
			Quality:   0.88,
		}),
		opts:   opts,
		model:  model,
		client: client,
	}
}

// Descriptor returns the provider descriptor
func (p *BedrockProvider) Descriptor() Descriptor {
	return p.desc
}

// Complete sends the prompt as a single user turn
func (p *BedrockProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.timeout())
	defer cancel()

	out, err := p.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.model),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(bedrockMaxTokens),
		},
	})
	if err != nil {
		return nil, p.wrapError(err)
	}

	text := strings.TrimSpace(converseText(out))
	if text == "" {
		return nil, emptyResponse(p.desc, fmt.Sprintf("%+v", out))
	}
	return &Completion{Text: text, Raw: out}, nil
}

func converseText(out *bedrockruntime.ConverseOutput) string {
	if out == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String()
}

func (p *BedrockProvider) wrapError(err error) *ProviderError {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return statusError(p.desc, 429, "")
	}
	var denied *types.AccessDeniedException
	if errors.As(err, &denied) {
		return NewProviderError(p.desc.ID, ErrorCodeNotConfigured,
			fmt.Sprintf("%s credentials rejected: %s", shortName(p.desc), truncate(denied.ErrorMessage(), 100)), err)
	}
	return transportError(p.desc, p.opts.timeout(), err)
}
