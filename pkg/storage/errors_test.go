package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("webhook", "abc")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "webhook not found: abc", err.Error())
	assert.Equal(t, "tenant not found", (&NotFoundError{Resource: "tenant"}).Error())
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("url %q is not absolute", "/x")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), `url "/x" is not absolute`)
}

func TestTranslatePQError(t *testing.T) {
	unique := &pq.Error{Code: "23505", Detail: "Key (name)=(x) already exists."}
	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, errors.Is(TranslatePQError(unique), ErrConflict))

	fk := &pq.Error{Code: "23503"}
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, errors.Is(TranslatePQError(fk), ErrInvalidInput))

	other := errors.New("boom")
	assert.Same(t, other, TranslatePQError(other))

	syntax := &pq.Error{Code: "42601"}
	assert.Equal(t, error(syntax), TranslatePQError(syntax))
}
