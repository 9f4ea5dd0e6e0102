package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// MessageBox encrypts chat messages at rest with AES-256-GCM. Ciphertext and
// the 96-bit IV are stored base64-encoded alongside the message record.
type MessageBox struct {
	aead cipher.AEAD
}

var ErrInvalidKeyLength = errors.New("encryption key must be 32 bytes")

// NewMessageBox builds a box from a base64-encoded 32-byte key.
func NewMessageBox(keyBase64 string) (*MessageBox, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &MessageBox{aead: aead}, nil
}

// Encrypt returns base64 ciphertext and IV for a plaintext message.
func (b *MessageBox) Encrypt(message string) (ciphertext, iv string, err error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", err
	}

	sealed := b.aead.Seal(nil, nonce, []byte(message), nil)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt reverses Encrypt. Tampered ciphertext fails GCM authentication.
func (b *MessageBox) Decrypt(ciphertext, iv string) (string, error) {
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != b.aead.NonceSize() {
		return "", errors.New("invalid iv length")
	}

	plain, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt message: %w", err)
	}
	return string(plain), nil
}
