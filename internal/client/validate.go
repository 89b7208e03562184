package client

import (
	"regexp"
	"strings"
)

var (
	mobilePattern = regexp.MustCompile(`^\d{10}$`)
	otpPattern    = regexp.MustCompile(`^\d{4}$`)
)

func ValidateMobile(mobile string) error {
	if !mobilePattern.MatchString(mobile) {
		return &ValidationError{Field: "mobile", Message: "Please enter a valid 10-digit mobile number"}
	}
	return nil
}

func ValidateOTP(code string) error {
	if !otpPattern.MatchString(code) {
		return &ValidationError{Field: "otp", Message: "Please enter the 4-digit code"}
	}
	return nil
}

func ValidateAmount(amount float64) error {
	if !(amount > 0) {
		return &ValidationError{Field: "amount", Message: "Please enter a positive amount"}
	}
	return nil
}

func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Field: "rating", Message: "Please select a rating from 1 to 5"}
	}
	return nil
}

func requireText(field, value, message string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: message}
	}
	return nil
}
