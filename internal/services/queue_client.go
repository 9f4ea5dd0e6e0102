package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
)

// QueueClient publishes to a QStash-compatible queue and verifies incoming
// webhook deliveries. Deliveries carry an Upstash-Signature JWT whose body
// claim is the base64url sha256 of the request body; the current and next
// signing keys are both accepted so key rotation does not drop messages.
type QueueClient struct {
	baseURL    string
	token      string
	queue      string
	currentKey string
	nextKey    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewQueueClient(cfg *config.Config, log *zap.Logger) *QueueClient {
	return &QueueClient{
		baseURL:    strings.TrimSuffix(cfg.QStashURL, "/"),
		token:      cfg.QStashToken,
		queue:      cfg.QStashQueue,
		currentKey: cfg.QStashCurrentSignKey,
		nextKey:    cfg.QStashNextSignKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Enqueue publishes a JSON payload for delivery to the webhook URL.
func (c *QueueClient) Enqueue(ctx context.Context, webhookURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v2/enqueue/%s/%s", c.baseURL, c.queue, webhookURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Upstash-Retries", "2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enqueue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("enqueue status %d: %s", resp.StatusCode, string(data))
	}

	c.log.Info("claim enqueued", zap.String("destination", webhookURL))
	return nil
}

// VerifySignature authenticates a webhook delivery. expectedURL is matched
// against the JWT sub claim when non-empty.
func (c *QueueClient) VerifySignature(signature string, body []byte, expectedURL string) error {
	if err := c.verifyWithKey(c.currentKey, signature, body, expectedURL); err == nil {
		return nil
	}
	return c.verifyWithKey(c.nextKey, signature, body, expectedURL)
}

func (c *QueueClient) verifyWithKey(key, signature string, body []byte, expectedURL string) error {
	if key == "" {
		return fmt.Errorf("signing key not configured")
	}

	token, err := jwt.Parse(signature, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(key), nil
	}, jwt.WithIssuer("Upstash"), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("unexpected claims type")
	}

	if expectedURL != "" {
		sub, _ := claims["sub"].(string)
		if sub != expectedURL {
			return fmt.Errorf("subject mismatch: %s", sub)
		}
	}

	bodyClaim, _ := claims["body"].(string)
	sum := sha256.Sum256(body)
	digest := base64.URLEncoding.EncodeToString(sum[:])
	if strings.TrimRight(bodyClaim, "=") != strings.TrimRight(digest, "=") {
		return fmt.Errorf("body hash mismatch")
	}
	return nil
}
