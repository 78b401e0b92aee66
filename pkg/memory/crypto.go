package memory

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// sessionKey derives a deterministic 32-byte key from the session id, so
// the same session can always decrypt its own history without key storage.
func sessionKey(sessionID string) []byte {
	digest := sha256.Sum256([]byte("lumir_agentic_session_" + sessionID))
	return digest[:]
}

// encryptMessage seals plaintext with a per-session key. Output is base64
// of nonce followed by ciphertext.
func encryptMessage(sessionID, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(sessionKey(sessionID))
	if err != nil {
		return "", fmt.Errorf("build cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decryptMessage reverses encryptMessage.
func decryptMessage(sessionID, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	aead, err := chacha20poly1305.NewX(sessionKey(sessionID))
	if err != nil {
		return "", fmt.Errorf("build cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt message: %w", err)
	}
	return string(plain), nil
}
