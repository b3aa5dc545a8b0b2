package orchestration

import (
	"fmt"
	"strings"
)

// Kind classifies a terminal workflow failure. Kinds survive the engine's
// error serialization as a message prefix, so the facade can recover them
// from a replayed execution history.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindSplit      Kind = "SplitError"
	KindGeneration Kind = "GenerationError"
	KindAudit      Kind = "AuditError"
	KindDeadline   Kind = "DeadlineExceeded"
	KindEngine     Kind = "EngineUnavailable"
)

var kinds = []Kind{
	KindValidation,
	KindSplit,
	KindGeneration,
	KindAudit,
	KindDeadline,
	KindEngine,
}

// Errorf builds a classified error carrying the kind as a message prefix.
func Errorf(kind Kind, format string, args ...any) error {
	return fmt.Errorf(string(kind)+": "+format, args...)
}

// Classify recovers the failure kind from an error that has round-tripped
// through the engine. Returns "" for unclassified errors.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, k := range kinds {
		if strings.Contains(msg, string(k)+":") {
			return k
		}
	}
	return ""
}
