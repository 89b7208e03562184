package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecrypt(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		sealed, err := Encrypt(testKey, "Kozhikode")
		require.NoError(t, err)
		assert.NotContains(t, sealed, "Kozhikode")

		plain, err := Decrypt(testKey, sealed)
		require.NoError(t, err)
		assert.Equal(t, "Kozhikode", plain)
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := Encrypt("abcd", "x")
		assert.Error(t, err)
	})

	t.Run("rejects tampered ciphertext", func(t *testing.T) {
		_, err := Decrypt(testKey, "AAAA")
		assert.Error(t, err)
	})
}

func TestFieldCipher(t *testing.T) {
	t.Run("pass-through without key", func(t *testing.T) {
		c := NewFieldCipher("")
		sealed, err := c.Seal("1990-05-01")
		require.NoError(t, err)
		assert.Equal(t, "1990-05-01", sealed)
	})

	t.Run("prefixes sealed values", func(t *testing.T) {
		c := NewFieldCipher(testKey)
		sealed, err := c.Seal("1990-05-01")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sealed, sealedPrefix))

		plain, err := c.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, "1990-05-01", plain)
	})

	t.Run("reads legacy plaintext", func(t *testing.T) {
		c := NewFieldCipher(testKey)
		plain, err := c.Open("10:30")
		require.NoError(t, err)
		assert.Equal(t, "10:30", plain)
	})

	t.Run("sealed value without key fails", func(t *testing.T) {
		sealed, _ := NewFieldCipher(testKey).Seal("x")
		_, err := NewFieldCipher("").Open(sealed)
		assert.Error(t, err)
	})
}
