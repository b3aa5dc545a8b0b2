// Package blueprint holds the domain types produced by a SnapCloud run and
// the capability interfaces for the generative collaborators. The workflow
// layer only ever sees these types, never raw model output.
package blueprint

import "context"

// CostEstimation is the monthly cost breakdown for a generated architecture.
// JSON carries the structured breakdown, Table a human-readable markdown
// table. JSON may be empty on a degraded parse but must never be nil in a
// valid bundle.
type CostEstimation struct {
	JSON  map[string]any `json:"json"`
	Table string         `json:"table"`
}

// ArtifactBundle is the set of deliverables generated from a task list.
type ArtifactBundle struct {
	DiagramMermaid string         `json:"diagramMermaid"`
	CfnTemplate    string         `json:"cfnTemplate"`
	Cost           CostEstimation `json:"costEstimation"`

	// CostDegraded is set when the structured cost breakdown could not be
	// parsed and was replaced with an empty object.
	CostDegraded bool `json:"costDegraded,omitempty"`
}

// AuditReport is the result of the optional security audit step.
type AuditReport struct {
	Report string `json:"report"`
}

// Result is the final outcome of one blueprint workflow execution.
type Result struct {
	Tasks  []string       `json:"tasks"`
	Bundle ArtifactBundle `json:"bundle"`

	// Audit is nil when auditing is disabled or the audit step failed.
	// AuditFailed distinguishes the two.
	Audit       *AuditReport `json:"audit,omitempty"`
	AuditFailed bool         `json:"auditFailed,omitempty"`

	// SplitDegraded is set when task splitting fell back to the raw
	// requirement. DegradedReason names the cause.
	SplitDegraded  bool   `json:"splitDegraded,omitempty"`
	DegradedReason string `json:"degradedReason,omitempty"`
}

// Validate reports whether the bundle contains all required artifacts. A
// bundle without a diagram or template is a failed generation, never a
// partial success. An empty cost JSON object is legal, a nil one is not.
func (b *ArtifactBundle) Validate() error {
	if b == nil {
		return ErrNoBundle
	}
	if b.DiagramMermaid == "" {
		return ErrNoDiagram
	}
	if b.CfnTemplate == "" {
		return ErrNoTemplate
	}
	if b.Cost.JSON == nil {
		return ErrNoCost
	}
	return nil
}

// TaskSplitter turns one free-text requirement into an ordered list of
// atomic task descriptions. Implementations must be safe to invoke more than
// once with the same input.
type TaskSplitter interface {
	SplitTasks(ctx context.Context, requirement string) ([]string, error)
}

// ArtifactGenerator turns an ordered task list into an artifact bundle. Task
// order is significant and must be passed through unchanged.
type ArtifactGenerator interface {
	GenerateArtifacts(ctx context.Context, tasks []string) (*ArtifactBundle, error)
}

// Auditor runs a best-effort security review of a generated template.
type Auditor interface {
	AuditArtifacts(ctx context.Context, bundle *ArtifactBundle) (*AuditReport, error)
}

// Providers groups the collaborator capabilities a single backing provider
// exposes.
type Providers struct {
	Splitter  TaskSplitter
	Generator ArtifactGenerator
	Auditor   Auditor
}
