package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReporterAccumulatesInOrder(t *testing.T) {
	r := NewReporter(nil)
	r.Warnf("joint", "joint %q skipped", "j1")
	r.Warnf("mesh", "mesh %s unsupported", "a.dae")

	warnings := r.Warnings()
	assert.Equal(t, []Warning{
		{Category: "joint", Message: `joint "j1" skipped`},
		{Category: "mesh", Message: "mesh a.dae unsupported"},
	}, warnings)
}

func TestReporterMirrorsToLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewReporter(zap.New(core))
	r.Warnf("material", "material %q missing", "red")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, `material "red" missing`, entries[0].Message)
	assert.Equal(t, "material", entries[0].ContextMap()["category"])
}

func TestReporterNilLogger(t *testing.T) {
	r := NewReporter(nil)
	r.Warnf("joint", "quiet")
	assert.Len(t, r.Warnings(), 1)
}
