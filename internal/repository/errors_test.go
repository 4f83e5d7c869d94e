package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("failed to create ticket: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "tickets_flight_row_seat_active_key",
	})

	assert.True(t, isUniqueViolation(err, ""))
	assert.True(t, isUniqueViolation(err, "tickets_flight_row_seat_active_key"))
	assert.False(t, isUniqueViolation(err, "orders_request_id_key"))
	assert.False(t, isForeignKeyViolation(err, ""))
	assert.False(t, isUniqueViolation(errors.New("boom"), ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "orders_user_id_fkey"}

	assert.True(t, isForeignKeyViolation(err, "orders_user_id_fkey"))
	assert.False(t, isUniqueViolation(err, ""))
}
