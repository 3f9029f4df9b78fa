package browser

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls the Chromium driver.
type Config struct {
	// Headless runs the browser without a window. Douyin renders comment
	// panels more reliably in headed mode, so the default is false.
	Headless bool

	// UserDataDir persists the browser profile (login state) between runs.
	UserDataDir string

	// NavWait is the settle time after opening a search or profile page.
	NavWait time.Duration

	// VideoWait is the settle time after opening a video page, which loads
	// noticeably slower than search pages.
	VideoWait time.Duration

	// CallTimeout bounds every individual driver call.
	CallTimeout time.Duration

	Logger *logrus.Logger
}

// NewConfig builds a Config from environment variables with sane defaults.
func NewConfig(logger *logrus.Logger) Config {
	return Config{
		Headless:    getEnvBool("BROWSER_HEADLESS", false),
		UserDataDir: os.Getenv("BROWSER_USER_DATA_DIR"),
		NavWait:     getEnvDuration("BROWSER_NAV_WAIT", 5*time.Second),
		VideoWait:   getEnvDuration("BROWSER_VIDEO_WAIT", 8*time.Second),
		CallTimeout: getEnvDuration("BROWSER_CALL_TIMEOUT", 45*time.Second),
		Logger:      logger,
	}
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
