package config

import (
	"crypto/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/yeremiapane/fantasteak-pos/receipt"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	// AppRole pins this console to one screen. Empty allows any screen.
	AppRole string

	DBDriver     string
	DBDSN        string
	FeedInterval time.Duration
	FeedBatch    int
	FeedRetain   time.Duration

	CashierPasscode string
	AdminPasscode   string
	SessionSecret   []byte
	SessionTTL      time.Duration

	PrinterTransport   string
	PrinterAddr        string
	PrinterName        string
	PrinterServiceUUID string
	PrinterCharUUID    string
	PrinterScanTimeout time.Duration
	PrinterChunk       int

	CORSOrigin string
	Business   receipt.Business
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		AppRole:  strings.ToLower(os.Getenv("APP_ROLE")),

		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBDSN:        getEnv("DB_DSN", "fantasteak.db"),
		FeedInterval: getDuration("FEED_INTERVAL", 500*time.Millisecond),
		FeedBatch:    getInt("FEED_BATCH", 100),
		FeedRetain:   getDuration("FEED_RETENTION", 24*time.Hour),

		CashierPasscode: getEnv("CASHIER_PASSCODE", "kasirqu"),
		AdminPasscode:   getEnv("ADMIN_PASSCODE", "adminqu"),
		SessionSecret:   []byte(os.Getenv("SESSION_SECRET")),
		SessionTTL:      getDuration("SESSION_TTL", 12*time.Hour),

		PrinterTransport:   strings.ToLower(getEnv("PRINTER_TRANSPORT", "ble")),
		PrinterAddr:        os.Getenv("PRINTER_ADDR"),
		PrinterName:        os.Getenv("PRINTER_NAME"),
		PrinterServiceUUID: getEnv("PRINTER_SERVICE_UUID", "0x18F0"),
		PrinterCharUUID:    getEnv("PRINTER_CHAR_UUID", "0x2AF1"),
		PrinterScanTimeout: getDuration("PRINTER_SCAN_TIMEOUT", 10*time.Second),
		PrinterChunk:       getInt("PRINTER_CHUNK", 180),

		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		Business:   loadBusiness(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.SessionSecret) == 0 {
		utils.ErrorLogger.Warn("SESSION_SECRET is not set, using a random per-process secret")
		cfg.SessionSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.SessionSecret); err != nil {
			return nil, errors.Wrap(err, "generate session secret")
		}
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return errors.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	switch c.PrinterTransport {
	case "ble", "tcp", "none":
	default:
		return errors.Errorf("PRINTER_TRANSPORT must be ble, tcp or none, got %q", c.PrinterTransport)
	}
	if c.PrinterTransport == "tcp" && c.PrinterAddr == "" {
		return errors.New("PRINTER_ADDR is required for the tcp printer transport")
	}
	switch c.AppRole {
	case "", "customer", "cashier", "admin":
	default:
		return errors.Errorf("APP_ROLE must be customer, cashier or admin, got %q", c.AppRole)
	}
	if c.FeedInterval <= 0 {
		return errors.New("FEED_INTERVAL must be positive")
	}
	return nil
}

func loadBusiness() receipt.Business {
	b := receipt.DefaultBusiness()
	b.Name = getEnv("BUSINESS_NAME", b.Name)
	b.Tagline = getEnv("BUSINESS_TAGLINE", b.Tagline)
	if addr := os.Getenv("BUSINESS_ADDRESS"); addr != "" {
		b.Address = strings.Split(addr, "|")
	}
	b.Contact = getEnv("BUSINESS_CONTACT", b.Contact)
	b.WhatsApp = getEnv("BUSINESS_WHATSAPP", b.WhatsApp)
	return b
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.ErrorLogger.Warnf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.ErrorLogger.Warnf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
