package common

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateUUID(t *testing.T) {
	id := uuid.New()

	got, err := ValidateUUID(id.String(), "plan id")
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = ValidateUUID("  "+id.String()+" ", "plan id")
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ValidateUUID("", "plan id")
	assert.EqualError(t, err, "plan id is required")

	_, err = ValidateUUID("not-a-uuid", "coupon id")
	assert.ErrorContains(t, err, "coupon id has invalid UUID format")
}

func TestValidatePaginationParams(t *testing.T) {
	limit, offset, err := ValidatePaginationParams(0, -3)
	assert.NoError(t, err)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	limit, offset, err = ValidatePaginationParams(5000, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1000, limit)
	assert.Equal(t, 10, offset)

	_, _, err = ValidatePaginationParams(10, 2000000)
	assert.Error(t, err)
}

func TestGetUserIDFromContext(t *testing.T) {
	userID := uuid.New()

	ctx := context.WithValue(context.Background(), UserIDKey, userID)
	got, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, userID, got)

	_, ok = GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}
