package core

import (
	"errors"
	"fmt"
	"io"
	"testing"

	perrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("asset 'chair.obj': %w", ErrNotFound)
	err := error(&ParseError{Origin: "asset:chair.obj", Cause: cause})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), "asset:chair.obj")

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, cause, pe.Cause)
}

func TestFormatKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrShortRead, ErrFormat))
	assert.True(t, errors.Is(ErrStringTooLong, ErrFormat))
	assert.False(t, errors.Is(ErrIO, ErrFormat))
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want perrors.ErrorCode
	}{
		{"nil", nil, ""},
		{"not found", &ParseError{Cause: ErrNotFound}, perrors.CodeNotFound},
		{"unsupported", ErrUnsupportedOrigin, perrors.CodeInvalidInput},
		{"short read", fmt.Errorf("vertex: %w: %w", ErrShortRead, io.ErrUnexpectedEOF), perrors.CodeInvalidInput},
		{"io", fmt.Errorf("%w: disk", ErrIO), perrors.CodeExecutionFailed},
		{"plain", errors.New("boom"), perrors.CodeInternal},
		{"platform", perrors.New(perrors.CodeTimeout, "slow"), perrors.CodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestReport(t *testing.T) {
	assert.Nil(t, Report(nil, "x"))

	err := Report(&ParseError{Origin: "raw:7", Cause: ErrNotFound}, "raw:7")
	require.NotNil(t, err)
	assert.Equal(t, perrors.CodeNotFound, err.Code())
	assert.Equal(t, "raw:7", err.Context()["origin"])
	assert.True(t, errors.Is(err, ErrNotFound))
}
