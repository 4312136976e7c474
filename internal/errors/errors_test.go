package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysisError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AnalysisError
		want string
	}{
		{
			name: "without cause",
			err:  New(InputError, "code_content is required"),
			want: "[INPUT_ERROR] code_content is required",
		},
		{
			name: "with cause",
			err:  Wrap(FormatError, "content is neither JSON nor YAML", errors.New("bad indent")),
			want: "[FORMAT_ERROR] content is neither JSON nor YAML: bad indent",
		},
		{
			name: "formatted",
			err:  Newf(Timeout, "analysis exceeded %s", "10s"),
			want: "[TIMEOUT] analysis exceeded 10s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", New(FormatError, "bad"))
	assert.Equal(t, FormatError, CodeOf(wrapped))
	assert.Equal(t, InternalError, CodeOf(errors.New("plain")))
	assert.True(t, Is(wrapped, FormatError))
	assert.False(t, Is(nil, FormatError))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(InternalError, "failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "bad input", MessageOf(New(InputError, "bad input")))
	assert.Equal(t, "invalid body: EOF", MessageOf(fmt.Errorf("x: %w", Wrap(InputError, "invalid body", errors.New("EOF")))))
	assert.Equal(t, "plain", MessageOf(errors.New("plain")))
}
