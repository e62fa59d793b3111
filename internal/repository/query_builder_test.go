package repository

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
)

func TestQueryBuilderSkipsEmptyFilters(t *testing.T) {
	requester := 7
	var noLocation *int

	qb := NewQueryBuilder()
	qb.AddCondition("status", "approved")
	qb.AddCondition("type", "")
	qb.AddCondition("requester_id", &requester)
	qb.AddCondition("location_id", noLocation)

	conditions := qb.BuildConditions(map[string]string{"type": "request_type"})

	assert.Equal(t, goqu.Ex{"status": "approved", "requester_id": 7}, conditions)
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		offset   int
		expected Page
	}{
		{"defaults", 0, -3, Page{Limit: DefaultPageSize, Offset: 0}},
		{"capped", 1000, 10, Page{Limit: MaxPageSize, Offset: 10}},
		{"as given", 20, 40, Page{Limit: 20, Offset: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewPage(tt.limit, tt.offset))
		})
	}
}
