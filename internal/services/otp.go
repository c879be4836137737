package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/monitoring"
)

const (
	otpKeyPrefix      = "otp:code:"
	otpAttemptsPrefix = "otp:attempts:"
	maxOTPAttempts    = 5

	lookupPurpose = "ticket_lookup"
)

// OTPStore keeps issued one-time codes until they expire or are used.
type OTPStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	Consume(ctx context.Context, email, code string) error
}

// OTPSender delivers a code to its owner.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string, minutes int) error
}

// RedisOTPStore stores one code per email with a TTL. A code is deleted on
// first successful use or after too many wrong guesses.
type RedisOTPStore struct {
	client redis.Cmdable
}

func NewRedisOTPStore(client redis.Cmdable) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKeyPrefix+email, code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	if err := s.client.Del(ctx, otpAttemptsPrefix+email).Err(); err != nil {
		return fmt.Errorf("failed to reset otp attempts: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Consume(ctx context.Context, email, code string) error {
	key := otpKeyPrefix + email

	stored, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return models.ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("failed to load otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, err := s.client.Incr(ctx, otpAttemptsPrefix+email).Result()
		if err != nil {
			return fmt.Errorf("failed to count otp attempts: %w", err)
		}
		if attempts == 1 {
			s.client.Expire(ctx, otpAttemptsPrefix+email, 10*time.Minute)
		}
		if attempts >= maxOTPAttempts {
			s.client.Del(ctx, key)
		}
		return models.ErrInvalidOTP
	}

	// Only the caller whose DEL removed the key wins the code.
	deleted, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if deleted != 1 {
		return models.ErrInvalidOTP
	}
	return nil
}

type lookupClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// OTPService gates ticket lookup by email behind a one-time code.
type OTPService struct {
	store    OTPStore
	sender   OTPSender
	secret   []byte
	codeTTL  time.Duration
	tokenTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewOTPService(store OTPStore, sender OTPSender, secret string, codeTTL, tokenTTL time.Duration, logger *slog.Logger) *OTPService {
	return &OTPService{
		store:    store,
		sender:   sender,
		secret:   []byte(secret),
		codeTTL:  codeTTL,
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Request generates a code for email and sends it.
func (s *OTPService) Request(ctx context.Context, req *models.OTPRequest) error {
	req.Email = models.NormalizeEmail(req.Email)
	if err := models.Validate(req); err != nil {
		return err
	}
	email := req.Email

	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, email, code, s.codeTTL); err != nil {
		monitoring.TrackOTP("store_failed")
		return err
	}
	if err := s.sender.SendOTP(ctx, email, code, int(s.codeTTL.Minutes())); err != nil {
		monitoring.TrackOTP("send_failed")
		return err
	}

	monitoring.TrackOTP("sent")
	s.logger.InfoContext(ctx, "otp sent", "email", email)
	return nil
}

// Verify consumes a code and returns a short-lived lookup token for email.
func (s *OTPService) Verify(ctx context.Context, req *models.OTPVerifyRequest) (string, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := models.Validate(req); err != nil {
		return "", err
	}
	email := req.Email

	if err := s.store.Consume(ctx, email, req.Code); err != nil {
		if errors.Is(err, models.ErrInvalidOTP) {
			monitoring.TrackOTP("invalid")
		}
		return "", err
	}

	monitoring.TrackOTP("verified")
	return s.IssueToken(email)
}

// IssueToken signs an HS256 token whose subject is email.
func (s *OTPService) IssueToken(email string) (string, error) {
	now := s.now()
	claims := lookupClaims{
		Purpose: lookupPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   models.NormalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign otp token: %w", err)
	}
	return token, nil
}

// ParseToken returns the email a lookup token was issued for.
func (s *OTPService) ParseToken(token string) (string, error) {
	if token == "" {
		return "", models.ErrUnauthorized
	}

	var claims lookupClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", models.ErrOTPExpired
		}
		return "", models.ErrUnauthorized
	}
	if claims.Purpose != lookupPurpose || claims.Subject == "" {
		return "", models.ErrUnauthorized
	}
	return claims.Subject, nil
}

// Authorize checks that token was issued for email.
func (s *OTPService) Authorize(token, email string) error {
	subject, err := s.ParseToken(token)
	if err != nil {
		return err
	}
	if subject != models.NormalizeEmail(email) {
		return models.ErrForbidden
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
