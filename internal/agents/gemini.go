package agents

import (
	"context"
	"encoding/json"
	"fmt"

	genai "google.golang.org/genai"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
	"github.com/QuenumGerald/snapcloud/internal/config"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: GEMINI_API_KEY is not set")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: cfg.Model}, nil
}

func (g *GeminiClient) generate(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if wantJSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: response contained no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// SplitTasks implements blueprint.TaskSplitter.
func (g *GeminiClient) SplitTasks(ctx context.Context, requirement string) ([]string, error) {
	content, err := g.generate(ctx, splitSystemPrompt+"\n\n"+splitUserPrompt(requirement), true)
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

// geminiBundle is the JSON shape requested from the model.
type geminiBundle struct {
	DiagramMermaid string `json:"diagramMermaid"`
	CfnTemplate    string `json:"cfnTemplate"`
	CostEstimation struct {
		JSON  map[string]any `json:"json"`
		Table string         `json:"table"`
	} `json:"costEstimation"`
}

const geminiGeneratePrompt = `You are SnapCloud AI, an expert AWS solutions architect. ` +
	`Given an ordered list of infrastructure tasks, respond with a JSON object with ` +
	`exactly these fields: "diagramMermaid" (AWS architecture diagram as a mermaid ` +
	`flowchart TD), "cfnTemplate" (complete CloudFormation template in YAML), and ` +
	`"costEstimation" with "json" (object with a numeric "totalMonthlyCost", ` +
	`"currency", "region" and a "breakdown" array) and "table" (markdown cost table).`

// GenerateArtifacts implements blueprint.ArtifactGenerator.
func (g *GeminiClient) GenerateArtifacts(ctx context.Context, tasks []string) (*blueprint.ArtifactBundle, error) {
	content, err := g.generate(ctx, geminiGeneratePrompt+"\n\n"+generateUserPrompt(tasks), true)
	if err != nil {
		return nil, err
	}

	var parsed geminiBundle
	degraded := false
	if err := json.Unmarshal([]byte(cleanJSONPayload(content)), &parsed); err != nil {
		return nil, fmt.Errorf("gemini: parsing bundle: %w", err)
	}

	bundle := &blueprint.ArtifactBundle{
		DiagramMermaid: parsed.DiagramMermaid,
		CfnTemplate:    parsed.CfnTemplate,
		Cost: blueprint.CostEstimation{
			JSON:  parsed.CostEstimation.JSON,
			Table: parsed.CostEstimation.Table,
		},
	}
	if bundle.Cost.JSON == nil {
		bundle.Cost.JSON = map[string]any{}
		degraded = true
	}
	bundle.CostDegraded = degraded

	if bundle.DiagramMermaid == "" {
		return nil, blueprint.ErrNoDiagram
	}
	if bundle.CfnTemplate == "" {
		return nil, blueprint.ErrNoTemplate
	}
	return bundle, nil
}

// AuditArtifacts implements blueprint.Auditor.
func (g *GeminiClient) AuditArtifacts(ctx context.Context, bundle *blueprint.ArtifactBundle) (*blueprint.AuditReport, error) {
	content, err := g.generate(ctx, auditSystemPrompt+"\n\n"+auditUserPrompt(bundle), false)
	if err != nil {
		return nil, err
	}
	return &blueprint.AuditReport{Report: content}, nil
}
