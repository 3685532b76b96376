package utils

import "earlyjobs/api/models"

func IsValidPlatform(platform string) bool {
	switch platform {
	case models.PlatformAndroid, models.PlatformIOS, models.PlatformWeb:
		return true
	default:
		return false
	}
}
