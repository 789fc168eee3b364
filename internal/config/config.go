package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiryDays     int

	SMS SMSConfig
	OTP OTPConfig

	LockoutMaxAttempts int
	LockoutWindow      time.Duration
	AllowedOrigins     []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users string
	OTPs  string
}

// SMSConfig selects and configures the delivery providers.
// Provider picks an exclusive primary; when empty the dispatcher runs the
// fallback chain generic -> msg91 -> fast2sms -> twilio.
type SMSConfig struct {
	Provider string // "" | "generic" | "msg91" | "fast2sms" | "twilio" | "sns"

	// Generic configured HTTP vendor.
	GatewayURL    string
	GatewayKey    string
	GatewayMethod string // "GET" | "POST"
	FieldNumber   string // gateway field name for the destination number
	FieldMessage  string // gateway field name for the message text
	CountryCode   string // prepended to the 10-digit number when set, e.g. "91"
	Template      string // message template; {otp} and {minutes} are substituted

	MSG91AuthKey    string
	MSG91TemplateID string
	MSG91SenderID   string

	Fast2SMSKey string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	SNSRegion string
}

// OTPConfig controls issuance and verification behavior.
type OTPConfig struct {
	TTLMinutes   int               // clamped to [1, 30] at point of use
	DevMode      bool              // store the code and echo it back, send nothing
	OverrideCode string            // when set, every number gets this code (test environments)
	TestNumbers  map[string]string // fixed phone -> fixed code
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users: getEnv("DYNAMO_TABLE_USERS", "users"),
			OTPs:  getEnv("DYNAMO_TABLE_OTPS", "otps"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryDays:     getEnvInt("JWT_EXPIRY_DAYS", 7),

		SMS: SMSConfig{
			Provider:      strings.ToLower(getEnv("SMS_PROVIDER", "")),
			GatewayURL:    getEnv("SMS_GATEWAY_URL", ""),
			GatewayKey:    getEnv("SMS_GATEWAY_KEY", ""),
			GatewayMethod: strings.ToUpper(getEnv("SMS_GATEWAY_METHOD", "GET")),
			FieldNumber:   getEnv("SMS_FIELD_NUMBER", "mobiles"),
			FieldMessage:  getEnv("SMS_FIELD_MESSAGE", "message"),
			CountryCode:   getEnv("SMS_COUNTRY_CODE", ""),
			Template:      getEnv("SMS_TEMPLATE", "Your OTP is {otp}. It is valid for {minutes} minutes."),

			MSG91AuthKey:    getEnv("MSG91_AUTH_KEY", ""),
			MSG91TemplateID: getEnv("MSG91_TEMPLATE_ID", ""),
			MSG91SenderID:   getEnv("MSG91_SENDER_ID", ""),

			Fast2SMSKey: getEnv("FAST2SMS_API_KEY", ""),

			TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFrom:       getEnv("TWILIO_FROM", ""),

			SNSRegion: getEnv("SNS_REGION", "ap-south-1"),
		},
		OTP: OTPConfig{
			TTLMinutes:   getEnvInt("OTP_TTL_MINUTES", 5),
			DevMode:      getEnvBool("OTP_DEV_MODE", false),
			OverrideCode: getEnv("OTP_OVERRIDE_CODE", ""),
			TestNumbers:  parseTestNumbers(getEnv("OTP_TEST_NUMBERS", "")),
		},

		LockoutMaxAttempts: getEnvInt("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutWindow:      time.Duration(getEnvInt("LOCKOUT_WINDOW_MINUTES", 15)) * time.Minute,
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// parseTestNumbers parses "9999999999:1234,8888888888:4321" into a map.
// Malformed pairs are skipped.
func parseTestNumbers(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
