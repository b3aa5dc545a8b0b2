// Package agents implements the generative collaborators behind the
// blueprint capability interfaces. All free-text parsing and prompt shaping
// lives here; the orchestration layer only sees typed results.
package agents

import (
	"context"
	"fmt"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
	"github.com/QuenumGerald/snapcloud/internal/config"
)

// New builds the provider selected by the configuration. One provider serves
// splitting, generation and auditing.
func New(ctx context.Context, cfg *config.Config) (*blueprint.Providers, error) {
	switch cfg.Provider {
	case config.ProviderMinimax:
		c, err := NewMinimaxClient(cfg.Minimax)
		if err != nil {
			return nil, err
		}
		return &blueprint.Providers{Splitter: c, Generator: c, Auditor: c}, nil

	case config.ProviderAnthropic:
		c, err := NewAnthropicClient(ctx, cfg.Anthropic)
		if err != nil {
			return nil, err
		}
		return &blueprint.Providers{Splitter: c, Generator: c, Auditor: c}, nil

	case config.ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return &blueprint.Providers{Splitter: c, Generator: c, Auditor: c}, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

var (
	_ blueprint.TaskSplitter      = (*MinimaxClient)(nil)
	_ blueprint.ArtifactGenerator = (*MinimaxClient)(nil)
	_ blueprint.Auditor           = (*MinimaxClient)(nil)
	_ blueprint.TaskSplitter      = (*AnthropicClient)(nil)
	_ blueprint.ArtifactGenerator = (*AnthropicClient)(nil)
	_ blueprint.Auditor           = (*AnthropicClient)(nil)
	_ blueprint.TaskSplitter      = (*GeminiClient)(nil)
	_ blueprint.ArtifactGenerator = (*GeminiClient)(nil)
	_ blueprint.Auditor           = (*GeminiClient)(nil)
)
