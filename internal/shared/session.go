package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionManager issues bearer tokens for bridge clients and keeps the
// session payload in Redis.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
	secret []byte
}

// Session is the payload stored behind a token.
type Session struct {
	Actor     Actor     `json:"actor"`
	StoreIDs  []string  `json:"storeIds"`
	CreatedAt time.Time `json:"createdAt"`
	Token     string    `json:"-"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, ttl: ttl, secret: []byte(secret)}
}

// Issue stores sess and returns the signed token the client presents on later calls.
func (sm *SessionManager) Issue(ctx context.Context, sess Session) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session: random id: %w", err)
	}
	id := base64.RawURLEncoding.EncodeToString(raw)
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := sm.client.Set(ctx, sm.redisKey(id), payload, sm.ttl).Err(); err != nil {
		return "", err
	}
	return id + "." + sm.sign(id), nil
}

// Load resolves a token into its session. Unknown, expired or tampered
// tokens yield ErrUnauthorized.
func (sm *SessionManager) Load(ctx context.Context, token string) (*Session, error) {
	id, err := sm.verify(token)
	if err != nil {
		return nil, err
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	return &sess, nil
}

// Revoke deletes the session behind token.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	id, err := sm.verify(token)
	if err != nil {
		return err
	}
	if err := sm.client.Del(ctx, sm.redisKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

func (sm *SessionManager) verify(token string) (string, error) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" || sig == "" {
		return "", ErrUnauthorized
	}
	if !hmac.Equal([]byte(sig), []byte(sm.sign(id))) {
		return "", ErrUnauthorized
	}
	return id, nil
}

func (sm *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}
