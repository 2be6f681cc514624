package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

const testHexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestVault(t *testing.T) (*SecretVaultService, storage.SecretStore) {
	t.Helper()
	store := storage.NewMemorySecretStore()
	vault, err := NewSecretVaultService(store, testHexKey)
	require.NoError(t, err)
	return vault, store
}

func TestSecretVaultRoundTrip(t *testing.T) {
	vault, store := newTestVault(t)

	require.NoError(t, vault.Set("flow-1", "STRIPE_KEY", "sk_test_123"))

	value, err := vault.Get("flow-1", "STRIPE_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", value)

	// Storage only ever sees ciphertext.
	raw, err := store.GetSecret("flow-1", "STRIPE_KEY")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk_test_123")
}

func TestSecretVaultRejectsBadKey(t *testing.T) {
	store := storage.NewMemorySecretStore()

	_, err := NewSecretVaultService(store, "not-hex")
	assert.Error(t, err)

	_, err = NewSecretVaultService(store, "abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestSecretVaultListAndDelete(t *testing.T) {
	vault, _ := newTestVault(t)

	require.NoError(t, vault.Set("flow-1", "A", "1"))
	require.NoError(t, vault.Set("flow-1", "B", "2"))

	keys, err := vault.List("flow-1")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	require.NoError(t, vault.Delete("flow-1", "A"))
	_, err = vault.Get("flow-1", "A")
	assert.ErrorIs(t, err, storage.ErrSecretNotFound)
}

func TestEnvironmentForSecretsOverrideVariables(t *testing.T) {
	vault, _ := newTestVault(t)
	flow := models.Flow{
		ID: "flow-1",
		Variables: map[string]string{
			"API_URL": "https://api.example.com",
			"API_KEY": "plain-default",
		},
	}

	require.NoError(t, vault.Set("flow-1", "API_KEY", "vault-value"))

	env, err := vault.EnvironmentFor(flow)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", env["API_URL"])
	assert.Equal(t, "vault-value", env["API_KEY"])
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	vault, store := newTestVault(t)
	require.NoError(t, vault.Set("flow-1", "TOKEN", "secret"))

	raw, err := store.GetSecret("flow-1", "TOKEN")
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, store.SaveSecret("flow-1", "TOKEN", raw))

	_, err = vault.Get("flow-1", "TOKEN")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decrypt"))
}
