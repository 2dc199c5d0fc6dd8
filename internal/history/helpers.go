package history

import (
	"strings"

	"voicescribe/internal/services"
)

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var likeEscaper = strings.NewReplacer(`%`, `\%`, `_`, `\_`, `\`, `\\`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func failureKind(value string) services.FailureKind {
	if value == "" {
		return services.KindEngineExecutionFailed
	}
	return services.FailureKind(value)
}
