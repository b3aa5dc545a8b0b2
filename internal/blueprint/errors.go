package blueprint

import "errors"

var (
	// ErrNoTasks indicates the splitter returned no usable tasks.
	ErrNoTasks = errors.New("splitter returned no tasks")

	// ErrNoBundle indicates the generator returned no bundle at all.
	ErrNoBundle = errors.New("no artifact bundle")

	// ErrNoDiagram indicates the generator output contained no extractable
	// mermaid diagram.
	ErrNoDiagram = errors.New("bundle is missing the mermaid diagram")

	// ErrNoTemplate indicates the generator output contained no extractable
	// CloudFormation template.
	ErrNoTemplate = errors.New("bundle is missing the CloudFormation template")

	// ErrNoCost indicates the structured cost breakdown is absent. A
	// degraded parse still yields an empty object, so nil means the
	// generator implementation misbehaved.
	ErrNoCost = errors.New("bundle is missing the cost breakdown")
)
