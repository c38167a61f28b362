package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/shared"
)

// Claims is the JWT payload carried by both token kinds.
type Claims struct {
	AdminID int64  `json:"adminId"`
	LoginID string `json:"loginId"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the HS256 session tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager constructs a manager. A nil clock falls back to time.Now.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// RefreshTTL exposes the refresh token lifetime for the store.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue returns a fresh access/refresh pair for the admin. The refresh
// token's jti is returned so it can be registered in the store.
func (m *TokenManager) Issue(a Admin) (TokenPair, string, error) {
	access, _, err := m.sign(a, m.accessTTL)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, jti, err := m.sign(a, m.refreshTTL)
	if err != nil {
		return TokenPair{}, "", err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, jti, nil
}

func (m *TokenManager) sign(a Admin, ttl time.Duration) (string, string, error) {
	now := m.now()
	jti := uuid.NewString()
	claims := Claims{
		AdminID: a.ID,
		LoginID: a.LoginID,
		Role:    a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, jti, nil
}

// Parse verifies a token and returns the identity it carries plus its jti.
func (m *TokenManager) Parse(token string) (shared.Identity, string, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return shared.Identity{}, "", fmt.Errorf("auth: invalid token: %w", httpx.ErrUnauthorized)
	}
	return shared.Identity{
		AdminID: claims.AdminID,
		LoginID: claims.LoginID,
		Role:    claims.Role,
	}, claims.ID, nil
}

// TokenStore tracks live refresh tokens in Redis so they can be revoked
// before expiry.
type TokenStore struct {
	rdb *redis.Client
}

// NewTokenStore constructs a store.
func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func refreshKey(jti string) string {
	return "auth:refresh:" + jti
}

// SaveRefresh registers a refresh token jti until its expiry.
func (s *TokenStore) SaveRefresh(ctx context.Context, jti string, adminID int64, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, refreshKey(jti), adminID, ttl).Err(); err != nil {
		return fmt.Errorf("auth: save refresh token: %w", err)
	}
	return nil
}

// ValidRefresh reports whether the jti is still live.
func (s *TokenStore) ValidRefresh(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, refreshKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check refresh token: %w", err)
	}
	return n > 0, nil
}

// Revoke drops a refresh token jti.
func (s *TokenStore) Revoke(ctx context.Context, jti string) error {
	if err := s.rdb.Del(ctx, refreshKey(jti)).Err(); err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return nil
}
