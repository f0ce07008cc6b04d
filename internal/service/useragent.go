package service

import (
	"strings"

	"github.com/coinvo/funnel-api/internal/constants"
)

// parseUserAgent 从 User-Agent 推断设备类型、浏览器与操作系统。
// 粗粒度匹配即可满足看板聚合需求，不追求精确识别。
func parseUserAgent(userAgent string) (deviceType, browser, os string) {
	ua := strings.ToLower(userAgent)

	deviceType = detectDeviceType(ua)
	browser = detectBrowser(ua)
	os = detectOS(ua)
	return deviceType, browser, os
}

// 移动端特征优先于平板特征
func detectDeviceType(ua string) string {
	switch {
	case strings.Contains(ua, "mobile"),
		strings.Contains(ua, "iphone"):
		return constants.DeviceTypeMobile
	case strings.Contains(ua, "ipad"),
		strings.Contains(ua, "tablet"),
		strings.Contains(ua, "kindle"),
		strings.Contains(ua, "android"):
		return constants.DeviceTypeTablet
	default:
		return constants.DeviceTypeDesktop
	}
}

func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/"), strings.Contains(ua, "edge/"):
		return "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "firefox/"):
		return "Firefox"
	case strings.Contains(ua, "chrome/"), strings.Contains(ua, "crios/"):
		return "Chrome"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident/"):
		return "IE"
	default:
		return "Other"
	}
}

func detectOS(ua string) string {
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ios"):
		return "iOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac os"), strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Other"
	}
}
