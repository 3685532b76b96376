package utils

import (
	"os"
	"regexp"
	"strings"

	"earlyjobs/api/models"
)

var (
	androidPattern = regexp.MustCompile(`(?i)android`)
	iosPattern     = regexp.MustCompile(`iPad|iPhone|iPod`)
)

// DetectPlatform classifies a user-agent string as android, ios or web.
// Apple devices running the legacy non-WebKit engine (MSStream marker) are
// treated as web. Unrecognized agents fall through to web.
func DetectPlatform(userAgent string) string {
	if androidPattern.MatchString(userAgent) {
		return models.PlatformAndroid
	}
	if iosPattern.MatchString(userAgent) && !strings.Contains(userAgent, "MSStream") {
		return models.PlatformIOS
	}
	return models.PlatformWeb
}

const (
	defaultAndroidStoreURL = "https://play.google.com/store/apps/details?id=com.victaman.earlyjobs&hl=en_IN"
	defaultIOSStoreURL     = "https://apps.apple.com/in/app/earlyjobs-ai/id6754554572"
	defaultWebAppURL       = "https://earlyjobs.ai"
)

// DownloadURLForPlatform returns the store URL matching the platform.
// Overridable via ANDROID_STORE_URL, IOS_STORE_URL and WEB_APP_URL.
func DownloadURLForPlatform(platform string) string {
	switch platform {
	case models.PlatformAndroid:
		if url := os.Getenv("ANDROID_STORE_URL"); url != "" {
			return url
		}
		return defaultAndroidStoreURL
	case models.PlatformIOS:
		if url := os.Getenv("IOS_STORE_URL"); url != "" {
			return url
		}
		return defaultIOSStoreURL
	default:
		if url := os.Getenv("WEB_APP_URL"); url != "" {
			return url
		}
		return defaultWebAppURL
	}
}
