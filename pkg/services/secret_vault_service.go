// Package services provides application services for the flow engine.
package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

// SecretVaultService stores per-flow secrets encrypted with AES-256-GCM.
// Values are encrypted before they reach the storage layer, so storage
// backends only ever see ciphertext.
type SecretVaultService struct {
	store storage.SecretStore
	gcm   cipher.AEAD
}

// NewSecretVaultService creates a new secret vault service with encryption.
// The key must be a 64-character hex string decoding to 32 bytes.
func NewSecretVaultService(store storage.SecretStore, hexKey string) (*SecretVaultService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes (256 bits)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &SecretVaultService{store: store, gcm: gcm}, nil
}

// Set stores an encrypted secret for a flow.
func (s *SecretVaultService) Set(flowID, key, value string) error {
	if flowID == "" {
		return fmt.Errorf("flow ID is required")
	}
	if key == "" {
		return fmt.Errorf("secret key is required")
	}

	ciphertext, err := s.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return s.store.SaveSecret(flowID, key, ciphertext)
}

// Get retrieves and decrypts a secret for a flow.
func (s *SecretVaultService) Get(flowID, key string) (string, error) {
	if flowID == "" {
		return "", fmt.Errorf("flow ID is required")
	}
	if key == "" {
		return "", fmt.Errorf("secret key is required")
	}

	ciphertext, err := s.store.GetSecret(flowID, key)
	if err != nil {
		return "", err
	}
	return s.decrypt(ciphertext)
}

// List returns the secret keys of a flow without values.
func (s *SecretVaultService) List(flowID string) ([]string, error) {
	if flowID == "" {
		return nil, fmt.Errorf("flow ID is required")
	}

	secrets, err := s.store.ListSecrets(flowID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(secrets))
	for key := range secrets {
		keys = append(keys, key)
	}
	return keys, nil
}

// Delete removes a secret.
func (s *SecretVaultService) Delete(flowID, key string) error {
	if flowID == "" {
		return fmt.Errorf("flow ID is required")
	}
	if key == "" {
		return fmt.Errorf("secret key is required")
	}
	return s.store.DeleteSecret(flowID, key)
}

// EnvironmentFor builds the variable bag a flow execution sees. Plain
// flow variables come first, vault secrets override on key collisions.
func (s *SecretVaultService) EnvironmentFor(flow models.Flow) (map[string]interface{}, error) {
	env := make(map[string]interface{}, len(flow.Variables))
	for key, value := range flow.Variables {
		env[key] = value
	}

	secrets, err := s.store.ListSecrets(flow.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	for key, ciphertext := range secrets {
		value, err := s.decrypt(ciphertext)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt secret %s: %w", key, err)
		}
		env[key] = value
	}
	return env, nil
}

// encrypt seals a value with a random nonce prepended to the ciphertext.
func (s *SecretVaultService) encrypt(value string) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, []byte(value), nil), nil
}

// decrypt opens a nonce-prefixed ciphertext.
func (s *SecretVaultService) decrypt(ciphertext []byte) (string, error) {
	nonceSize := s.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}
	return string(plaintext), nil
}
