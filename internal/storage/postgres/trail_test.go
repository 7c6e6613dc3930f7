package postgres

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"trail_catalog/internal/domain"
)

func TestBuildTrailUpsert(t *testing.T) {
	runID := uuid.New()
	rows := []domain.TrailRow{
		{ID: "a", Title: "Loop A", ActivityKey: "hiking", Length: 3500, LengthKm: 3.5},
		{ID: "b", Title: "Loop B"},
	}

	query, args := buildTrailUpsert(runID, rows)

	assert.Len(t, args, 2*trailColumns)
	assert.Contains(t, query, "($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10)")
	assert.Contains(t, query, "($11, $12, $13, NULLIF($14, ''), $15, $16, $17, $18, $19, $20)")
	assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE SET")
	assert.Equal(t, "a", args[0])
	assert.Equal(t, runID, args[9])
	assert.Equal(t, "b", args[10])
	assert.Equal(t, 1, strings.Count(query, "INSERT INTO trails"))
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "9", itoa(9))
	assert.Equal(t, "10", itoa(10))
	assert.Equal(t, "5000", itoa(5000))
}
