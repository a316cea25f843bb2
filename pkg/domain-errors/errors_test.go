package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeForbidden, "nope")
		assert.True(t, HasCode(err, CodeForbidden))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches code buried in chain", func(t *testing.T) {
		inner := New(CodeNotFound, "missing user")
		outer := Wrap(inner, CodePartialConfirmation, "designator update failed")
		assert.True(t, HasCode(outer, CodePartialConfirmation))
		assert.True(t, HasCode(outer, CodeNotFound))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrapPreservesChain(t *testing.T) {
	root := errors.New("disk full")
	wrapped := Wrap(fmt.Errorf("update user: %w", root), CodeInternal, "failed to persist user")

	require.ErrorIs(t, wrapped, root)
	assert.Equal(t, CodeInternal, CodeOf(wrapped))
	assert.Equal(t, "failed to persist user", MessageOf(wrapped))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("untyped")))
}
