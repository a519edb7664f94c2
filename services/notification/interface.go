package notification

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"thelocals/models"
	"thelocals/utils"
)

// NotificationService defines methods for sending FCM pushes around the
// booking lifecycle.
type NotificationService interface {
	// BroadcastRequest fans a new live request out to the matched
	// providers. Best-effort: providers without a token are skipped.
	BroadcastRequest(ctx context.Context, providers []models.Provider, b *models.Booking)

	// NotifyBookingUpdate pushes a lifecycle change to a single client or
	// provider account.
	NotifyBookingUpdate(ctx context.Context, recipientID string, b *models.Booking, title, body string)

	// RegisterToken stores the device token an app instance reports after
	// login, so pushes can reach that account.
	RegisterToken(ctx context.Context, accountID, token string) error
}

// FCMNotificationService is the production implementation. Provider
// tokens ride on the matched provider records; client tokens are looked
// up from the token cache populated by RegisterToken.
type FCMNotificationService struct {
	tokens *redis.Client
	logger *zap.Logger
}

func NewFCMNotificationService(tokens *redis.Client, logger *zap.Logger) *FCMNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCMNotificationService{tokens: tokens, logger: logger}
}

const tokenTTL = 60 * 24 * time.Hour

func tokenKey(accountID string) string {
	return "fcm_token:" + accountID
}

func (s *FCMNotificationService) RegisterToken(ctx context.Context, accountID, token string) error {
	if accountID == "" || token == "" {
		return fmt.Errorf("accountID and token are required")
	}
	return s.tokens.Set(ctx, tokenKey(accountID), token, tokenTTL).Err()
}

func (s *FCMNotificationService) BroadcastRequest(ctx context.Context, providers []models.Provider, b *models.Booking) {
	var tokens []string
	for _, p := range providers {
		if p.FCMToken != "" {
			tokens = append(tokens, p.FCMToken)
		}
	}
	if len(tokens) == 0 {
		s.logger.Debug("no push targets for request broadcast", zap.String("bookingId", b.ID))
		return
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: "New job nearby",
			Body:  fmt.Sprintf("A client needs %s near you.", b.ServiceCategory),
		},
		Data: map[string]string{
			"type":            "request_broadcast",
			"bookingId":       b.ID,
			"serviceCategory": b.ServiceCategory,
			"estimatedCost":   fmt.Sprintf("%.2f", b.EstimatedCost),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "new_requests",
				Sound:     "default",
			},
		},
	}

	resp, err := utils.FCMClient.SendEachForMulticast(ctx, msg)
	if err != nil {
		s.logger.Warn("request broadcast failed",
			zap.String("bookingId", b.ID), zap.Error(err))
		return
	}
	s.logger.Info("broadcast new request",
		zap.String("bookingId", b.ID),
		zap.Int("sent", resp.SuccessCount), zap.Int("failed", resp.FailureCount))
}

func (s *FCMNotificationService) NotifyBookingUpdate(ctx context.Context, recipientID string, b *models.Booking, title, body string) {
	token, err := s.tokens.Get(ctx, tokenKey(recipientID)).Result()
	if err != nil || token == "" {
		s.logger.Debug("no device token for recipient",
			zap.String("recipientId", recipientID), zap.String("bookingId", b.ID))
		return
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":      "booking_update",
			"bookingId": b.ID,
			"status":    string(b.Status),
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		s.logger.Warn("booking update push failed",
			zap.String("recipientId", recipientID),
			zap.String("bookingId", b.ID), zap.Error(err))
	}
}
