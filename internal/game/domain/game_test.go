package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchQuery_Normalize(t *testing.T) {
	q := SearchQuery{Text: "zelda"}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, 0, q.Skip())

	q = SearchQuery{Page: 3, PageSize: 500}.Normalize()
	assert.Equal(t, MaxLimit, q.PageSize)
	assert.Equal(t, 200, q.Skip())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(-4))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
}

func TestProcessedType(t *testing.T) {
	assert.Equal(t, "GameStartedProcessed", ProcessedType(GameStarted))
}
