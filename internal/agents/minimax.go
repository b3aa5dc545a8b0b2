package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
	"github.com/QuenumGerald/snapcloud/internal/config"
)

// MinimaxClient calls the MiniMax chat completion API (OpenAI-compatible).
type MinimaxClient struct {
	http   *http.Client
	apiKey string
	apiURL string
	model  string
}

func NewMinimaxClient(cfg config.MinimaxConfig) (*MinimaxClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("minimax: MINIMAX_API_KEY is not set")
	}
	return &MinimaxClient{
		http:   &http.Client{Timeout: 60 * time.Second},
		apiKey: cfg.APIKey,
		apiURL: cfg.APIURL,
		model:  cfg.Model,
	}, nil
}

type minimaxChatReq struct {
	Model             string           `json:"model"`
	Messages          []minimaxMessage `json:"messages"`
	MaxTokens         int              `json:"max_tokens"`
	Temperature       float32          `json:"temperature"`
	TopP              float32          `json:"top_p"`
	MaskSensitiveInfo bool             `json:"mask_sensitive_info"`
}

type minimaxMessage struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

type minimaxChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete sends one prompt pair and returns the generated text. Transport
// failures are retried with exponential backoff; the engine's activity retry
// policy sits above this.
func (m *MinimaxClient) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := minimaxChatReq{
		Model: m.model,
		Messages: []minimaxMessage{
			{Role: "system", Name: "MiniMax AI", Content: system},
			{Role: "user", Name: "user", Content: user},
		},
		MaxTokens:         2048,
		Temperature:       0.2,
		TopP:              0.95,
		MaskSensitiveInfo: false,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("minimax: encoding request: %w", err)
	}

	var content string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+m.apiKey)

		resp, err := m.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("minimax: API error: %s %s", resp.Status, body)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}

		var out minimaxChatResp
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("minimax: decoding response: %w", err)
		}
		if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
			return fmt.Errorf("minimax: response contained no choices")
		}

		content = out.Choices[0].Message.Content
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", err
	}
	return content, nil
}

// SplitTasks implements blueprint.TaskSplitter.
func (m *MinimaxClient) SplitTasks(ctx context.Context, requirement string) ([]string, error) {
	content, err := m.complete(ctx, splitSystemPrompt, splitUserPrompt(requirement))
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
func (m *MinimaxClient) GenerateArtifacts(ctx context.Context, tasks []string) (*blueprint.ArtifactBundle, error) {
	content, err := m.complete(ctx, generateSystemPrompt, generateUserPrompt(tasks))
	if err != nil {
		return nil, err
	}
	return bundleFromText(content)
}

// AuditArtifacts implements blueprint.Auditor.
func (m *MinimaxClient) AuditArtifacts(ctx context.Context, bundle *blueprint.ArtifactBundle) (*blueprint.AuditReport, error) {
	content, err := m.complete(ctx, auditSystemPrompt, auditUserPrompt(bundle))
	if err != nil {
		return nil, err
	}
	return &blueprint.AuditReport{Report: content}, nil
}
