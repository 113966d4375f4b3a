// Package linktoken issues short-lived one-time tokens that link a web
// account to a LINE chat account. The user requests a token on the web,
// sends it to the bot, and the bot redeems it for the user ID.
package linktoken

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenLength = 8
	tokenChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// TTL matches the validity communicated to the user.
	TokenTTL = 24 * time.Hour
)

// TokenPattern matches a well-formed link token.
var TokenPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// ErrNotFound is returned when a token is unknown, expired or already
// redeemed.
var ErrNotFound = errors.New("link token not found")

// Store issues and redeems link tokens.
type Store interface {
	// Generate mints a fresh token for the user, invalidating any token
	// issued to them earlier.
	Generate(ctx context.Context, userID uint) (string, error)
	// Redeem consumes a token and returns the owning user ID. A token can
	// be redeemed at most once.
	Redeem(ctx context.Context, token string) (uint, error)
	// Invalidate drops the user's outstanding token, if any.
	Invalidate(ctx context.Context, userID uint) error
}

// RedisStore keeps tokens in Redis with a TTL, plus a reverse index per
// user so a regenerated token supersedes the previous one.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(token string) string {
	return "linktoken:" + token
}

func userKey(userID uint) string {
	return fmt.Sprintf("linktoken:user:%d", userID)
}

func (s *RedisStore) Generate(ctx context.Context, userID uint) (string, error) {
	if err := s.Invalidate(ctx, userID); err != nil {
		return "", err
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKey(token), strconv.FormatUint(uint64(userID), 10), TokenTTL)
	pipe.Set(ctx, userKey(userID), token, TokenTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("storing link token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Redeem(ctx context.Context, token string) (uint, error) {
	if !TokenPattern.MatchString(token) {
		return 0, ErrNotFound
	}

	// GETDEL makes redemption single-use even under concurrent attempts.
	value, err := s.client.GetDel(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redeeming link token: %w", err)
	}

	userID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt link token value %q: %w", value, err)
	}
	s.client.Del(ctx, userKey(uint(userID)))
	return uint(userID), nil
}

func (s *RedisStore) Invalidate(ctx context.Context, userID uint) error {
	previous, err := s.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up previous link token: %w", err)
	}
	return s.client.Del(ctx, tokenKey(previous), userKey(userID)).Err()
}

func newToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating link token: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenChars[int(b)%len(tokenChars)]
	}
	return string(buf), nil
}
