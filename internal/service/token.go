package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"giftlist-api/internal/cache"
	"giftlist-api/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	// TokenPrefix is the prefix for all owner session tokens.
	TokenPrefix = "glt_"

	// tokenKeyPrefix namespaces sessions in the cache.
	tokenKeyPrefix = "session:"
)

// TokenService issues and validates opaque owner session tokens.
type TokenService struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
	log   logrus.FieldLogger
}

// NewTokenService creates a token service storing sessions in c.
func NewTokenService(c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *TokenService {
	return &TokenService{
		cache: c,
		ttl:   ttl,
		now:   time.Now,
		log:   log.WithField("component", "tokens"),
	}
}

// TTL returns the session lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// GenerateToken creates a session for userID.
func (s *TokenService) GenerateToken(ctx context.Context, userID string) (string, *model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	token := TokenPrefix + hex.EncodeToString(tokenBytes)

	now := s.now()
	session := &model.Session{UserID: userID, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}

	data, err := json.Marshal(session)
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := s.cache.Set(ctx, tokenKeyPrefix+token, data, s.ttl); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "expires": session.ExpiresAt}).Debug("Session created")
	return token, session, nil
}

// ValidateToken returns the session of a live token.
func (s *TokenService) ValidateToken(ctx context.Context, token string) (*model.Session, error) {
	if !strings.HasPrefix(token, TokenPrefix) || len(token) != len(TokenPrefix)+64 {
		return nil, ErrInvalidToken
	}

	key := tokenKeyPrefix + token
	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.cache.Delete(ctx, key)
		return nil, ErrInvalidToken
	}
	return &session, nil
}

// RevokeToken deletes a session.
func (s *TokenService) RevokeToken(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, tokenKeyPrefix+token)
}
