package services

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
)

func signDelivery(t *testing.T, key string, body []byte, url string) string {
	t.Helper()
	sum := sha256.Sum256(body)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":  "Upstash",
		"sub":  url,
		"exp":  time.Now().Add(time.Minute).Unix(),
		"iat":  time.Now().Unix(),
		"body": base64.URLEncoding.EncodeToString(sum[:]),
	})
	signed, err := token.SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign delivery: %v", err)
	}
	return signed
}

func queueFixture() *QueueClient {
	return NewQueueClient(&config.Config{
		QStashURL:            "https://qstash.example.com",
		QStashCurrentSignKey: "current-key",
		QStashNextSignKey:    "next-key",
	}, zap.NewNop())
}

func TestVerifySignature(t *testing.T) {
	c := queueFixture()
	body := []byte(`{"walletAddress":"0xabc"}`)
	url := "https://api.example.com/webhook"

	if err := c.VerifySignature(signDelivery(t, "current-key", body, url), body, url); err != nil {
		t.Fatalf("current key: %v", err)
	}
	if err := c.VerifySignature(signDelivery(t, "next-key", body, url), body, url); err != nil {
		t.Fatalf("next key after rotation: %v", err)
	}
	if err := c.VerifySignature(signDelivery(t, "wrong-key", body, url), body, url); err == nil {
		t.Fatal("foreign key accepted")
	}
}

func TestVerifySignature_BodyMismatch(t *testing.T) {
	c := queueFixture()
	url := "https://api.example.com/webhook"
	sig := signDelivery(t, "current-key", []byte("original"), url)

	if err := c.VerifySignature(sig, []byte("tampered"), url); err == nil {
		t.Fatal("tampered body accepted")
	}
}

func TestVerifySignature_SubjectMismatch(t *testing.T) {
	c := queueFixture()
	body := []byte("{}")
	sig := signDelivery(t, "current-key", body, "https://elsewhere.example.com/hook")

	if err := c.VerifySignature(sig, body, "https://api.example.com/webhook"); err == nil {
		t.Fatal("wrong subject accepted")
	}
	// No expected URL skips the subject check.
	if err := c.VerifySignature(sig, body, ""); err != nil {
		t.Fatalf("empty expected url: %v", err)
	}
}
