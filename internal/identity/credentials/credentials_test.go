package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	v := BcryptVerifier{}

	t.Run("accepts the matching password", func(t *testing.T) {
		assert.NoError(t, v.Verify(hash, "correct horse battery staple"))
	})

	t.Run("rejects a wrong password with ErrMismatch", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify(hash, "wrong"), ErrMismatch)
	})

	t.Run("reports malformed hashes as infrastructure errors", func(t *testing.T) {
		err := v.Verify("not-a-bcrypt-hash", "anything")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMismatch)
	})
}
