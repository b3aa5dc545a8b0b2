package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBundle() *ArtifactBundle {
	return &ArtifactBundle{
		DiagramMermaid: "flowchart TD\n  A --> B",
		CfnTemplate:    "Resources: {}",
		Cost:           CostEstimation{JSON: map[string]any{"totalMonthlyCost": 1.0}},
	}
}

func Test_ArtifactBundle_Validate(t *testing.T) {
	require.NoError(t, validBundle().Validate())

	var nilBundle *ArtifactBundle
	assert.ErrorIs(t, nilBundle.Validate(), ErrNoBundle)

	b := validBundle()
	b.DiagramMermaid = ""
	assert.ErrorIs(t, b.Validate(), ErrNoDiagram)

	b = validBundle()
	b.CfnTemplate = ""
	assert.ErrorIs(t, b.Validate(), ErrNoTemplate)

	b = validBundle()
	b.Cost.JSON = nil
	assert.ErrorIs(t, b.Validate(), ErrNoCost)
}

func Test_ArtifactBundle_Validate_EmptyCostObjectIsLegal(t *testing.T) {
	b := validBundle()
	b.Cost.JSON = map[string]any{}
	b.CostDegraded = true
	require.NoError(t, b.Validate())
}
