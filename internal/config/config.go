package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath         string
	RawMailDir     string
	AttachmentsDir string
	OutputDir      string
	RulesPath      string

	MailProvider     string
	MailLabel        string
	MailFetchMax     int
	MailLookbackDays int

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	SenderName      string
	CompanyName     string
	SupervisorEmail string
	ContactEmail    string
	ContactPhone    string
	CCRecipients    []string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout int

	DeliveryAddress string
	TaxRate         float64
	Currency        string
	ValidatedBy     string

	ListenerIntervalSec int
	ListenerBatch       int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:         getEnv("DB_PATH", filepath.Join(cwd, "data", "poflow.db")),
		RawMailDir:     getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		AttachmentsDir: getEnv("ATTACHMENTS_DIR", filepath.Join(cwd, "data", "attachments")),
		OutputDir:      getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		RulesPath:      getEnv("RULES_PATH", filepath.Join(cwd, "rules.yaml")),

		MailProvider:     getEnv("MAIL_PROVIDER", "imap"),
		MailLabel:        getEnv("MAIL_LABEL", "INBOX"),
		MailFetchMax:     getEnvInt("MAIL_FETCH_MAX", 50),
		MailLookbackDays: getEnvInt("MAIL_LOOKBACK_DAYS", 0),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getEnvInt("SMTP_PORT", 587),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderName:      getEnv("SENDER_NAME", "Procurement Department"),
		CompanyName:     getEnv("COMPANY_NAME", "Buyer Corp"),
		SupervisorEmail: getEnv("SUPERVISOR_EMAIL", ""),
		ContactEmail:    getEnv("CONTACT_EMAIL", ""),
		ContactPhone:    getEnv("CONTACT_PHONE", ""),
		CCRecipients:    splitList(getEnv("CC_RECIPIENTS", "")),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTimeout: getEnvInt("GEMINI_TIMEOUT_MS", 30000),

		DeliveryAddress: getEnv("DELIVERY_ADDRESS", "Main Warehouse, Loading Dock B"),
		TaxRate:         getEnvFloat("TAX_RATE", 0.18),
		Currency:        getEnv("CURRENCY", "USD"),
		ValidatedBy:     getEnv("VALIDATED_BY", "purchase_validation"),

		ListenerIntervalSec: getEnvInt("LISTENER_INTERVAL_SEC", 30),
		ListenerBatch:       getEnvInt("LISTENER_BATCH", 20),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// MailerConfigured reports whether outbound email can be attempted at all.
// Absent SMTP credentials degrade notification stages to "skipped".
func (c Config) MailerConfigured() bool {
	return strings.TrimSpace(c.SMTPUser) != "" && strings.TrimSpace(c.SMTPPassword) != ""
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
