package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
	"github.com/QuenumGerald/snapcloud/internal/config"
)

// AnthropicClient calls the Anthropic Messages API, either directly or
// through AWS Bedrock.
type AnthropicClient struct {
	inner anthropic.Client
	model anthropic.Model
}

func NewAnthropicClient(ctx context.Context, cfg config.AnthropicConfig) (*AnthropicClient, error) {
	var opts []option.RequestOption
	model := anthropic.Model(cfg.Model)

	if cfg.UseBedrock {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))

		if cfg.BedrockModelID != "" {
			model = anthropic.Model(cfg.BedrockModelID)
		}
	} else {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic: ANTHROPIC_API_KEY is not set")
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &AnthropicClient{
		inner: anthropic.NewClient(opts...),
		model: model,
	}, nil
}

func (a *AnthropicClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: API call failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(variant.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("anthropic: response contained no text blocks")
	}
	return out.String(), nil
}

// SplitTasks implements blueprint.TaskSplitter.
func (a *AnthropicClient) SplitTasks(ctx context.Context, requirement string) ([]string, error) {
	content, err := a.complete(ctx, splitSystemPrompt, splitUserPrompt(requirement))
	if err != nil {
		return nil, err
	}

	tasks, err := parseTaskList(content)
	if err != nil {
		return nil, fmt.Errorf("parsing task list: %w", err)
	}
	if len(tasks) == 0 {
		return nil, blueprint.ErrNoTasks
	}
	return tasks, nil
}

// GenerateArtifacts implements blueprint.ArtifactGenerator.
func (a *AnthropicClient) GenerateArtifacts(ctx context.Context, tasks []string) (*blueprint.ArtifactBundle, error) {
	content, err := a.complete(ctx, generateSystemPrompt, generateUserPrompt(tasks))
	if err != nil {
		return nil, err
	}
	return bundleFromText(content)
}

// AuditArtifacts implements blueprint.Auditor.
func (a *AnthropicClient) AuditArtifacts(ctx context.Context, bundle *blueprint.ArtifactBundle) (*blueprint.AuditReport, error) {
	content, err := a.complete(ctx, auditSystemPrompt, auditUserPrompt(bundle))
	if err != nil {
		return nil, err
	}
	return &blueprint.AuditReport{Report: content}, nil
}
