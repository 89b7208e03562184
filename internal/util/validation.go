package util

import (
	"regexp"
	"time"
)

var (
	uuidRegex   = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	mobileRegex = regexp.MustCompile(`^\d{10}$`)
	otpRegex    = regexp.MustCompile(`^\d{4}$`)
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var (
	Genders     = []string{"Male", "Female"}
	ChartStyles = []string{"South Indian", "North Indian", "East Indian", "Kerala"}
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

func IsValidMobile(s string) bool {
	return mobileRegex.MatchString(s)
}

func IsValidOTP(s string) bool {
	return otpRegex.MatchString(s)
}

// IsValidEmail accepts the empty string; email is optional.
func IsValidEmail(s string) bool {
	return s == "" || emailRegex.MatchString(s)
}

// IsValidDate checks YYYY-MM-DD.
func IsValidDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// IsValidClock checks 24-hour HH:MM.
func IsValidClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
