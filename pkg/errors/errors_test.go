package custom_error

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWrapDBError(t *testing.T) {
	assert.True(t, IsUniqueViolation(WrapDBError("duplicate tag", "23505")))
	assert.True(t, IsIntegrityViolation(WrapDBError("ledger", "23001")))

	var fk *ForeignKeyViolationError
	assert.True(t, errors.As(WrapDBError("category", "23503"), &fk))

	other := WrapDBError("boom", "42P01")
	assert.Contains(t, other.Error(), "uncategorized error occurred with code 42P01")
}

func TestFromPQ(t *testing.T) {
	err := FromPQ(fmt.Errorf("exec: %w", &pq.Error{Code: "23001", Message: "append-only"}), "failed to update movement")
	assert.True(t, IsIntegrityViolation(err))

	plain := FromPQ(errors.New("connection reset"), "failed to insert asset")
	assert.EqualError(t, plain, "failed to insert asset: connection reset")
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := NewInvalidTransition("assign asset", "assigned", "in_stock")
	assert.EqualError(t, err, "cannot assign asset: current status is assigned, required in_stock")

	wrapped := fmt.Errorf("fulfill request: %w", err)
	assert.True(t, IsInvalidTransition(wrapped))
	assert.False(t, IsUnauthorized(wrapped))
}

func TestUnauthorizedMessage(t *testing.T) {
	err := NewUnauthorized("approve request REQ-2026-000001", "no pending approval assigned to user 7")
	assert.EqualError(t, err, "not allowed to approve request REQ-2026-000001: no pending approval assigned to user 7")
}
