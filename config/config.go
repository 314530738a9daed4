package config

import (
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	// DataDir is the root for everything the tool writes: artifact files,
	// reports, the pending-changes file.
	DataDir string
	// Browser
	ChromePath      string
	BrowserStartURL string
	// Legal settings RBAC (opt-in; when disabled everyone can edit)
	RBACEnabled bool
	AdminFlag   bool
	AdminUsers  []string
	// Email (Resend) for report-export notices
	ResendAPIKey  string
	EmailFrom     string
	EmailTo       string
	EmailTestMode bool // When true, emails are logged to console instead of sent
	// Cloudflare R2 evidence archive mirror (optional)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dataDir := getEnv("DATA_DIR", "data")

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8477"),
		DBPath:            getEnv("DB_PATH", filepath.Join(dataDir, "db", "osint.sqlite")),
		Environment:       getEnv("ENVIRONMENT", "development"),
		DataDir:           dataDir,
		ChromePath:        getEnv("CHROME_PATH", ""),
		BrowserStartURL:   getEnv("BROWSER_START_URL", "https://news.google.com/topstories?hl=ru&gl=RU&ceid=RU:ru"),
		RBACEnabled:       getEnvBool("OSINT_RBAC", false),
		AdminFlag:         getEnvBool("OSINT_ADMIN", false),
		AdminUsers:        splitList(os.Getenv("OSINT_ADMIN_USERS")),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		EmailFrom:         getEnv("EMAIL_FROM", "noreply@osint-casework.local"),
		EmailTo:           getEnv("EMAIL_TO", ""),
		EmailTestMode:     getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
	}
}

// ArtifactsDir is where capture files live, one subdirectory per case.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.DataDir, "screenshots")
}

// ReportsDir is where exported case reports live.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.DataDir, "reports")
}

// PendingSettingsPath is the local fallback file for legal-settings edits
// attempted while the store was unreachable.
func (c *Config) PendingSettingsPath() string {
	return filepath.Join(c.DataDir, "pending-legal-settings.json")
}

// CurrentUser resolves the OS user for audit attribution.
func CurrentUser() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
