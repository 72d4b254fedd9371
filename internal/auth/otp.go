package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps one-time verification codes with a TTL. Codes are consumed
// on successful verification.
type OTPStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Consume(ctx context.Context, email, code string) (bool, error)
}

// RedisOTPStore backs the OTP store with Redis expiring keys.
type RedisOTPStore struct {
	client *redis.Client
	prefix string
}

// NewRedisOTPStore creates an OTP store on the given Redis client.
func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	if client == nil {
		panic("auth: redis client required")
	}
	return &RedisOTPStore{client: client, prefix: "otp:"}
}

func (s *RedisOTPStore) key(email string) string {
	return s.prefix + strings.ToLower(strings.TrimSpace(email))
}

// Put stores the code under the recipient's address, replacing any earlier
// unconsumed code.
func (s *RedisOTPStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("auth: store otp: %w", err)
	}
	return nil
}

// Consume checks the code and deletes it when it matches. A missing or
// mismatched code returns false with no error.
func (s *RedisOTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	key := s.key(email)
	stored, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: load otp: %w", err)
	}
	if stored != code {
		return false, nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("auth: consume otp: %w", err)
	}
	return true, nil
}

// GenerateOTP returns a 6-digit numeric code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("auth: generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

const tempPasswordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateTempPassword returns a random temporary password. Ambiguous
// characters (0/O, 1/l/I) are excluded because the value is retyped from an
// email.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		length = 12
	}
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
		if err != nil {
			return "", fmt.Errorf("auth: generate temp password: %w", err)
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}

// Ensure interface compliance
var _ OTPStore = (*RedisOTPStore)(nil)
