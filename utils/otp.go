package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"

	"thelocals/config"
)

const otpDigits = 4

func bookingOTPKey(bookingID string) string {
	return fmt.Sprintf("booking_otp:%s", bookingID)
}

func generateNumericOTP(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random OTP: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// FetchOrGenerateBookingOTP returns the live OTP for a booking, creating
// one on first call. SETNX makes generation idempotent: concurrent callers
// and repeated hook fires all land on the same code.
func FetchOrGenerateBookingOTP(ctx context.Context, bookingID string) (string, error) {
	client := GetOTPCacheClient()
	key := bookingOTPKey(bookingID)

	code, err := generateNumericOTP(otpDigits)
	if err != nil {
		return "", err
	}
	ttl := time.Duration(config.AppConfig.OTPTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	created, err := client.SetNX(ctx, key, code, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store booking OTP: %w", err)
	}
	if created {
		return code, nil
	}
	existing, err := client.Get(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read existing booking OTP: %w", err)
	}
	return existing, nil
}

// GetBookingOTP returns the live OTP without generating one. An empty
// string means no OTP exists yet.
func GetBookingOTP(ctx context.Context, bookingID string) (string, error) {
	code, err := GetOTPCacheClient().Get(ctx, bookingOTPKey(bookingID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read booking OTP: %w", err)
	}
	return code, nil
}

// VerifyBookingOTP compares the provided code against the stored one and
// deletes it on success so a code can only start a service once.
func VerifyBookingOTP(ctx context.Context, bookingID, provided string) error {
	client := GetOTPCacheClient()
	key := bookingOTPKey(bookingID)

	stored, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("OTP not found or expired")
	}
	if err != nil {
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}
	if stored != provided {
		return fmt.Errorf("OTP does not match")
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		GetLogger().Sugar().Warnf("failed to delete OTP for booking %s after verification: %v", bookingID, err)
	}
	return nil
}
