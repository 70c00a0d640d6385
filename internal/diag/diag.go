// Package diag is the append-only channel for non-fatal conversion
// warnings: unsupported features and per-resource conversion failures.
// Fatal structural errors never pass through here; they unwind as error
// returns.
package diag

import (
	"fmt"

	"go.uber.org/zap"
)

// Warning is one accumulated diagnostic.
type Warning struct {
	Category string
	Message  string
}

// Reporter accumulates warnings and mirrors them to the logger. The core
// pipeline is single-threaded, so no locking is needed.
type Reporter struct {
	log      *zap.Logger
	warnings []Warning
}

func NewReporter(log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{log: log}
}

// Warnf records a non-fatal diagnostic under a category ("joint", "mesh",
// "material", "transmission", ...).
func (r *Reporter) Warnf(category, format string, args ...any) {
	w := Warning{Category: category, Message: fmt.Sprintf(format, args...)}
	r.warnings = append(r.warnings, w)
	r.log.Warn(w.Message, zap.String("category", category))
}

// Warnings returns everything accumulated so far, in emission order.
func (r *Reporter) Warnings() []Warning {
	return r.warnings
}
