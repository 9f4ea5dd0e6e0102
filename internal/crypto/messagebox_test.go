package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestMessageBox_RoundTrip(t *testing.T) {
	box, err := NewMessageBox(testKey(t))
	if err != nil {
		t.Fatal(err)
	}

	messages := []string{
		"",
		"hello",
		"a longer message with spaces and punctuation!?",
		strings.Repeat("x", 4096),
		"unicode: ключ 鍵 🔑",
	}

	for _, msg := range messages {
		ct, iv, err := box.Encrypt(msg)
		if err != nil {
			t.Fatalf("encrypt %q: %v", msg, err)
		}
		got, err := box.Decrypt(ct, iv)
		if err != nil {
			t.Fatalf("decrypt %q: %v", msg, err)
		}
		if got != msg {
			t.Errorf("round trip mismatch: got %q, want %q", got, msg)
		}
	}
}

func TestMessageBox_UniqueIVs(t *testing.T) {
	box, err := NewMessageBox(testKey(t))
	if err != nil {
		t.Fatal(err)
	}

	_, iv1, _ := box.Encrypt("same message")
	_, iv2, _ := box.Encrypt("same message")
	if iv1 == iv2 {
		t.Fatal("IVs must be random per encryption")
	}
}

func TestMessageBox_TamperFails(t *testing.T) {
	box, err := NewMessageBox(testKey(t))
	if err != nil {
		t.Fatal(err)
	}

	ct, iv, err := box.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}

	raw, _ := base64.StdEncoding.DecodeString(ct)
	raw[0] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := box.Decrypt(tampered, iv); err == nil {
		t.Fatal("tampered ciphertext must fail authentication")
	}
}

func TestMessageBox_WrongKey(t *testing.T) {
	box1, _ := NewMessageBox(testKey(t))
	box2, _ := NewMessageBox(testKey(t))

	ct, iv, err := box1.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := box2.Decrypt(ct, iv); err == nil {
		t.Fatal("decryption with a different key must fail")
	}
}

func TestNewMessageBox_BadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 16))},
		{"too long", base64.StdEncoding.EncodeToString(make([]byte, 64))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMessageBox(tt.key); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
