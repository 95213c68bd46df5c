package repository

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsInvalidUUID(t *testing.T) {
	assert.True(t, isInvalidUUID(fmt.Errorf("scan: %w", &pgconn.PgError{Code: "22P02"})))
	assert.False(t, isInvalidUUID(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isInvalidUUID(fmt.Errorf("timeout")))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	if got := nullable("x"); assert.NotNil(t, got) {
		assert.Equal(t, "x", *got)
	}
}
