package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewNotFoundError("template nav", 404).
		WithComponent("lc-header").
		WithURL("https://u.lucidpages.dev/myrepo/shared/partials/templates/nav.html")

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_NOT_FOUND]")
	assert.Contains(t, msg, "component:lc-header")
	assert.Contains(t, msg, "url:https://u.lucidpages.dev")
	assert.Contains(t, msg, "template nav not found (status 404)")
}

func TestErrorCauseChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewNetworkError("template nav", cause)

	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestErrorIsByTypeAndCode(t *testing.T) {
	a := NewInvalidNameError("../x")
	b := NewInvalidNameError("other")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, NewParseError("alias map", nil)))
}

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		err     error
		invalid bool
		missing bool
		parse   bool
		network bool
	}{
		{err: NewInvalidNameError("bad/name"), invalid: true},
		{err: NewNotFoundError("template x", 404), missing: true},
		{err: NewParseError("alias map", nil), parse: true},
		{err: NewNetworkError("template x", nil), network: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.invalid, IsInvalidName(tt.err))
		assert.Equal(t, tt.missing, IsNotFound(tt.err))
		assert.Equal(t, tt.parse, IsParse(tt.err))
		assert.Equal(t, tt.network, IsNetwork(tt.err))
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading failed: %w", NewNotFoundError("template nav", 404))

	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsRecoverable(wrapped))
	assert.False(t, IsNetwork(wrapped))
}

func TestRecoverability(t *testing.T) {
	assert.True(t, IsRecoverable(NewInvalidNameError("x")))
	assert.True(t, IsRecoverable(NewNotFoundError("x", 500)))
	assert.True(t, IsRecoverable(NewParseError("x", nil)))
	assert.True(t, IsRecoverable(NewNetworkError("x", nil)))

	assert.False(t, IsRecoverable(NewInternalError(ErrCodeInternalError, "x", nil)))
	assert.False(t, IsRecoverable(NewConfigError(ErrCodeConfigInvalid, "x")))
	assert.False(t, IsRecoverable(stderrors.New("plain")))
}

func TestWithLocation(t *testing.T) {
	err := NewNetworkError("template nav", nil).WithLocation("/myrepo", "/myrepo/pages/about/index.html")

	require.NotNil(t, err.Context)
	assert.Equal(t, "/myrepo", err.Context["base_path"])
	assert.Equal(t, "/myrepo/pages/about/index.html", err.Context["page_path"])
}
