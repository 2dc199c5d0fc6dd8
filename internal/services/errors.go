package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound = errors.New("input not found")
	ErrEngineTimeout = errors.New("transcription timed out")
	ErrEngineFailed  = errors.New("engine execution failed")
	ErrOutputMissing = errors.New("engine produced no output")
	ErrOutputParse   = errors.New("output parse error")
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrExternalTool  = errors.New("external tool error")
)

// FailureKind names one entry of the transcription error taxonomy.
type FailureKind string

const (
	KindInputNotFound         FailureKind = "input_not_found"
	KindEngineTimeout         FailureKind = "engine_timeout"
	KindEngineExecutionFailed FailureKind = "engine_execution_failed"
	KindOutputMissing         FailureKind = "output_missing"
	KindOutputParseError      FailureKind = "output_parse_error"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps a wrapped error onto the taxonomy. Errors carrying no
// recognised marker are reported as engine execution failures, since every
// other stage tags its errors explicitly.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrInputNotFound):
		return KindInputNotFound
	case errors.Is(err, ErrEngineTimeout):
		return KindEngineTimeout
	case errors.Is(err, ErrOutputMissing):
		return KindOutputMissing
	case errors.Is(err, ErrOutputParse):
		return KindOutputParseError
	default:
		return KindEngineExecutionFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
