// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"log/slog"
)

// LogError logs err at error level. A coded error contributes its code and
// context as separate attributes.
func LogError(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, errorAttrs(err)...)
}

func errorAttrs(err error) []any {
	if err == nil {
		return []any{"error", nil}
	}
	attrs := []any{"error", err.Error()}
	if code := CodeOf(err); code != "" {
		attrs = append(attrs, "code", code)
	}
	if ctx := ContextOf(err); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}
