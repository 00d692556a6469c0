package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMigration_Applied(t *testing.T) {
	at := time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)

	applied := &Migration{Version: "001", Status: MigrationStatusApplied, AppliedAt: &at}
	pending := &Migration{Version: "002", Status: MigrationStatusPending}

	assert.True(t, applied.Applied())
	assert.Equal(t, "2026-04-01 12:30:00", applied.AppliedAtString())

	assert.False(t, pending.Applied())
	assert.Equal(t, "-", pending.AppliedAtString())
}
