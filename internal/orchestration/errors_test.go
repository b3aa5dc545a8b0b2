package orchestration

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Errorf_Classify(t *testing.T) {
	err := Errorf(KindSplit, "splitter unreachable: %s", "connection refused")
	require.Equal(t, "SplitError: splitter unreachable: connection refused", err.Error())
	require.Equal(t, KindSplit, Classify(err))
}

func Test_Classify_SurvivesWrapping(t *testing.T) {
	// The engine flattens errors to strings during history serialization;
	// classification must work on the reconstructed message alone.
	inner := Errorf(KindGeneration, "bundle missing diagram")
	rehydrated := errors.New(inner.Error())
	require.Equal(t, KindGeneration, Classify(rehydrated))

	wrapped := fmt.Errorf("workflow failed: %w", inner)
	require.Equal(t, KindGeneration, Classify(wrapped))
}

func Test_Classify_Unclassified(t *testing.T) {
	require.Equal(t, Kind(""), Classify(nil))
	require.Equal(t, Kind(""), Classify(errors.New("something else broke")))
}
