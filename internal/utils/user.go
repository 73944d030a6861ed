package utils

import (
	"time"
)

// TrustBand 신뢰도 점수에 따른 등급 이름과 아이콘
func TrustBand(score int) (name string, icon string) {
	switch {
	case score >= 80:
		return "매우 신뢰", "🌟"
	case score >= 60:
		return "신뢰", "😊"
	case score >= 40:
		return "보통", "🙂"
	case score >= 20:
		return "주의", "⚠️"
	default:
		return "위험", "🚫"
	}
}

// DaysSince counts whole days between createdAt and now.
func DaysSince(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Hours() / 24)
}
