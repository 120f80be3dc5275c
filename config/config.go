package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	ClientURL         string `mapstructure:"CLIENT_URL"`
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL"`

	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// File storage.
	StorageDriver       string `mapstructure:"STORAGE_DRIVER"`
	UploadDir           string `mapstructure:"UPLOAD_DIR"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`

	// Outbound notifications.
	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       string `mapstructure:"SMTP_PORT"`
	SMTPUsername   string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom       string `mapstructure:"SMTP_FROM"`
	WhatsAppAPIURL string `mapstructure:"WHATSAPP_API_URL"`
	WhatsAppToken  string `mapstructure:"WHATSAPP_TOKEN"`
	WhatsAppSender string `mapstructure:"WHATSAPP_SENDER"`

	// Payments.
	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	PaymentCurrency string `mapstructure:"PAYMENT_CURRENCY"`

	// OAuth identity providers.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	FacebookAppID      string `mapstructure:"FACEBOOK_APP_ID"`
	FacebookAppSecret  string `mapstructure:"FACEBOOK_APP_SECRET"`
	OAuthRedirectBase  string `mapstructure:"OAUTH_REDIRECT_BASE"`

	// Business rules.
	LoyaltyPointsPerBooking int    `mapstructure:"LOYALTY_POINTS_PER_BOOKING"`
	ReferralPoints          int    `mapstructure:"REFERRAL_POINTS"`
	FreeServiceLimit        int    `mapstructure:"FREE_SERVICE_LIMIT"`
	ReminderDaysBefore      int    `mapstructure:"REMINDER_DAYS_BEFORE"`
	MaintenanceCron         string `mapstructure:"MAINTENANCE_CRON"`
}

var AppConfig Config

func LoadConfig() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing with process environment")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("CLIENT_URL", "http://localhost:5173")
	viper.SetDefault("PUBLIC_BASE_URL", "")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "homehub")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_TTL_HOURS", 168)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("CLOUDINARY_FOLDER", "homehub")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM", "")
	viper.SetDefault("WHATSAPP_API_URL", "")
	viper.SetDefault("WHATSAPP_TOKEN", "")
	viper.SetDefault("WHATSAPP_SENDER", "")
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("PAYMENT_CURRENCY", "etb")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("FACEBOOK_APP_ID", "")
	viper.SetDefault("FACEBOOK_APP_SECRET", "")
	viper.SetDefault("OAUTH_REDIRECT_BASE", "http://localhost:8080")
	viper.SetDefault("LOYALTY_POINTS_PER_BOOKING", 10)
	viper.SetDefault("REFERRAL_POINTS", 50)
	viper.SetDefault("FREE_SERVICE_LIMIT", 3)
	viper.SetDefault("REMINDER_DAYS_BEFORE", 3)
	viper.SetDefault("MAINTENANCE_CRON", "@daily")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
