package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"earlyjobs/api/models"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{
			name:      "android phone",
			userAgent: "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36",
			want:      models.PlatformAndroid,
		},
		{
			name:      "android case insensitive",
			userAgent: "something ANDROID something",
			want:      models.PlatformAndroid,
		},
		{
			name:      "iphone",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1",
			want:      models.PlatformIOS,
		},
		{
			name:      "ipad",
			userAgent: "Mozilla/5.0 (iPad; CPU OS 16_5 like Mac OS X) AppleWebKit/605.1.15",
			want:      models.PlatformIOS,
		},
		{
			name:      "ipod",
			userAgent: "Mozilla/5.0 (iPod touch; CPU iPhone OS 15_0 like Mac OS X)",
			want:      models.PlatformIOS,
		},
		{
			name:      "apple device with legacy engine marker",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 10_0) MSStream",
			want:      models.PlatformWeb,
		},
		{
			name:      "desktop chrome",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
			want:      models.PlatformWeb,
		},
		{
			name:      "empty string",
			userAgent: "",
			want:      models.PlatformWeb,
		},
		{
			name:      "garbage",
			userAgent: "curl/8.1.2",
			want:      models.PlatformWeb,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.userAgent))
		})
	}
}

func TestDownloadURLForPlatform(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, defaultAndroidStoreURL, DownloadURLForPlatform(models.PlatformAndroid))
		assert.Equal(t, defaultIOSStoreURL, DownloadURLForPlatform(models.PlatformIOS))
		assert.Equal(t, defaultWebAppURL, DownloadURLForPlatform(models.PlatformWeb))
	})

	t.Run("unknown platform falls back to web", func(t *testing.T) {
		assert.Equal(t, defaultWebAppURL, DownloadURLForPlatform("windows-phone"))
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ANDROID_STORE_URL", "https://example.com/android")
		t.Setenv("IOS_STORE_URL", "https://example.com/ios")
		t.Setenv("WEB_APP_URL", "https://example.com/web")

		assert.Equal(t, "https://example.com/android", DownloadURLForPlatform(models.PlatformAndroid))
		assert.Equal(t, "https://example.com/ios", DownloadURLForPlatform(models.PlatformIOS))
		assert.Equal(t, "https://example.com/web", DownloadURLForPlatform(models.PlatformWeb))
	})
}

func TestIsValidPlatform(t *testing.T) {
	assert.True(t, IsValidPlatform(models.PlatformAndroid))
	assert.True(t, IsValidPlatform(models.PlatformIOS))
	assert.True(t, IsValidPlatform(models.PlatformWeb))
	assert.False(t, IsValidPlatform(""))
	assert.False(t, IsValidPlatform("Android"))
	assert.False(t, IsValidPlatform("desktop"))
}
