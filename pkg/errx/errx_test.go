package errx_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRegistry = errx.NewRegistry("TEST")

	codeMissing = testRegistry.Register("MISSING", errx.TypeNotFound, http.StatusNotFound, "thing not found")
	codeBroken  = testRegistry.Register("BROKEN", errx.TypeUnavailable, 0, "backend down")
)

func TestRegistryNew(t *testing.T) {
	err := testRegistry.New(codeMissing)

	assert.Equal(t, "TEST.MISSING", err.Code)
	assert.Equal(t, errx.TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "thing not found", err.Message)
}

func TestRegisterDefaultsStatusFromType(t *testing.T) {
	err := testRegistry.New(codeBroken)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus)
}

func TestRegisterTwicePanics(t *testing.T) {
	r := errx.NewRegistry("DUP")
	r.Register("X", errx.TypeInternal, 0, "x")
	assert.Panics(t, func() { r.Register("X", errx.TypeInternal, 0, "x") })
}

func TestUnregisteredCode(t *testing.T) {
	err := testRegistry.New("TEST.NOPE")
	assert.Equal(t, errx.TypeInternal, err.Type)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}

func TestInstancesAreIndependent(t *testing.T) {
	a := testRegistry.New(codeMissing).WithDetail("id", "a")
	b := testRegistry.New(codeMissing)

	assert.Equal(t, "a", a.Details["id"])
	assert.Nil(t, b.Details)
}

func TestIsMatchesByCode(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("lookup: %w", testRegistry.New(codeBroken).WithCause(cause))

	assert.True(t, errors.Is(err, testRegistry.New(codeBroken)))
	assert.False(t, errors.Is(err, testRegistry.New(codeMissing)))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errx.IsCode(err, codeBroken))
}

func TestWrapPlainError(t *testing.T) {
	cause := errors.New("boom")
	err := errx.Wrap(cause, "failed to save", errx.TypeInternal)

	require.NotNil(t, err)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to save")
}

func TestWrapKeepsRegisteredCode(t *testing.T) {
	inner := testRegistry.New(codeMissing).WithDetail("user_id", "u1")
	err := errx.Wrap(inner, "memory read", errx.TypeInternal)

	assert.Equal(t, codeMissing, err.Code)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "u1", err.Details["user_id"])
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, errx.Wrap(nil, "nothing", errx.TypeInternal))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, errx.HTTPStatus(errors.New("plain")))
	assert.Equal(t, http.StatusNotFound, errx.HTTPStatus(testRegistry.New(codeMissing)))
}
