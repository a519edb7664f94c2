package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DatabaseDB  string `mapstructure:"DATABASE_DB"`

	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration. Separate logical DBs per purpose.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`
	RedisFeedDB   int    `mapstructure:"REDIS_FEED_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	StripeKey               string `mapstructure:"STRIPE_KEY"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Live request dispatch.
	NearbyRadiusKm       float64 `mapstructure:"NEARBY_RADIUS_KM"`
	NearbyProviderLimit  int     `mapstructure:"NEARBY_PROVIDER_LIMIT"`
	RequestExpiryMinutes int     `mapstructure:"REQUEST_EXPIRY_MINUTES"`
	OTPTTLHours          int     `mapstructure:"OTP_TTL_HOURS"`
}

var AppConfig Config

// LoadConfig reads config.yaml (current dir or ./config) and the
// environment, environment winning.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_DB", "thelocals")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_OTP_DB", 1)
	viper.SetDefault("REDIS_FEED_DB", 2)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("NEARBY_RADIUS_KM", 8.0)
	viper.SetDefault("NEARBY_PROVIDER_LIMIT", 15)
	viper.SetDefault("REQUEST_EXPIRY_MINUTES", 10)
	viper.SetDefault("OTP_TTL_HOURS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
