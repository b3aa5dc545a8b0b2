package agents

import (
	"fmt"
	"strings"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
)

const splitSystemPrompt = `You are SnapCloud AI, an expert AWS solutions architect. ` +
	`Given a client requirement, split it into a short ordered list of atomic ` +
	`infrastructure tasks. Respond with a JSON array of strings only, no prose, ` +
	`no markdown fences.`

const generateSystemPrompt = `You are SnapCloud AI, an expert AWS solutions architect. ` +
	`Given an ordered list of infrastructure tasks, produce exactly four outputs, ` +
	`each in its own markdown code block, in this order:

1. ` + "```mermaid" + `
<AWS architecture diagram as a flowchart TD>
` + "```" + `
2. ` + "```yaml" + `
<complete CloudFormation template>
` + "```" + `
3. ` + "```json" + `
<monthly cost estimation object with a numeric "totalMonthlyCost", "currency", "region" and a "breakdown" array>
` + "```" + `
4. A markdown table summarizing the cost breakdown per service.`

const auditSystemPrompt = `You are SnapCloud AI performing a security review. ` +
	`Given a CloudFormation template, report security findings and hardening ` +
	`recommendations as concise plain text.`

func splitUserPrompt(requirement string) string {
	return "Client requirement:\n" + requirement
}

func generateUserPrompt(tasks []string) string {
	var b strings.Builder
	b.WriteString("Infrastructure tasks, in order:\n")
	for i, t := range tasks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return b.String()
}

func auditUserPrompt(bundle *blueprint.ArtifactBundle) string {
	return "CloudFormation template:\n```yaml\n" + bundle.CfnTemplate + "\n```"
}

// bundleFromText assembles an artifact bundle from a free-text model
// response holding fenced mermaid/yaml/json blocks plus a cost table. A
// missing diagram or template fails the bundle; malformed cost JSON degrades
// to an empty breakdown while keeping whatever table was extracted.
func bundleFromText(content string) (*blueprint.ArtifactBundle, error) {
	diagram := extractFencedBlock(content, "mermaid")
	if diagram == "" {
		return nil, blueprint.ErrNoDiagram
	}

	template := extractFencedBlock(content, "yaml")
	if template == "" {
		template = extractFencedBlock(content, "yml")
	}
	if template == "" {
		return nil, blueprint.ErrNoTemplate
	}

	costJSON, ok := parseCostJSON(extractFencedBlock(content, "json"))

	return &blueprint.ArtifactBundle{
		DiagramMermaid: diagram,
		CfnTemplate:    template,
		Cost: blueprint.CostEstimation{
			JSON:  costJSON,
			Table: extractMarkdownTable(content),
		},
		CostDegraded: !ok,
	}, nil
}
