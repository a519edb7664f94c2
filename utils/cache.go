package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"thelocals/config"
)

var (
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
	// OTPCacheClient holds booking OTP codes.
	OTPCacheClient *redis.Client
	// FeedClient carries the booking change-feed pub/sub traffic.
	FeedClient *redis.Client
)

// InitRedis initializes every Redis client the service uses. Each purpose
// gets its own logical DB so flushes and key scans stay contained.
func InitRedis() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB)
	OTPCacheClient = newRedisClient(config.AppConfig.RedisOTPDB)
	FeedClient = newRedisClient(config.AppConfig.RedisFeedDB)
}

func newRedisClient(db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (db %d): %v", db, err)
	}
	return client
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitRedis()
	}
	return CacheClient
}

// GetOTPCacheClient returns the OTP store client.
func GetOTPCacheClient() *redis.Client {
	if OTPCacheClient == nil {
		InitRedis()
	}
	return OTPCacheClient
}

// GetFeedClient returns the change-feed pub/sub client.
func GetFeedClient() *redis.Client {
	if FeedClient == nil {
		InitRedis()
	}
	return FeedClient
}
