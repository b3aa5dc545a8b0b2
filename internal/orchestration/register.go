package orchestration

import (
	"fmt"

	"github.com/cschleiden/go-workflows/worker"
	"github.com/google/uuid"
)

// instanceIDPrefix namespaces workflow instance identifiers. The suffix is
// random, never derived from the requirement, so identical requests get
// distinct executions.
const instanceIDPrefix = "snapcloud"

// NewInstanceID returns a globally unique workflow instance identifier.
func NewInstanceID() string {
	return fmt.Sprintf("%s-%s", instanceIDPrefix, uuid.NewString())
}

// Register wires the blueprint workflow and its activities into a worker.
func Register(w *worker.Worker, acts *Activities) error {
	if err := w.RegisterWorkflow(Blueprint); err != nil {
		return fmt.Errorf("registering blueprint workflow: %w", err)
	}
	if err := w.RegisterActivity(acts); err != nil {
		return fmt.Errorf("registering activities: %w", err)
	}
	return nil
}
