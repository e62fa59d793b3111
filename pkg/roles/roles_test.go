package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required Role
		expected bool
	}{
		{"admin over manager", Admin, Manager, true},
		{"manager over employee", Manager, Employee, true},
		{"employee below manager", Employee, Manager, false},
		{"unknown role treated as employee", Role("guest"), Employee, true},
		{"unknown role below admin", Role("guest"), Admin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.HasPermission(tt.required))
		})
	}
}

func TestApproverRoles(t *testing.T) {
	assert.ElementsMatch(t, []Role{Manager, Admin}, ApproverRoles())
	assert.False(t, Employee.CanApprove())
	assert.False(t, Role("guest").CanApprove())
}
