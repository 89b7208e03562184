package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidMobile(t *testing.T) {
	assert.True(t, IsValidMobile("9876543210"))
	assert.False(t, IsValidMobile("987654321"))
	assert.False(t, IsValidMobile("98765432100"))
	assert.False(t, IsValidMobile("98765x3210"))
	assert.False(t, IsValidMobile(""))
}

func TestIsValidOTP(t *testing.T) {
	assert.True(t, IsValidOTP("0420"))
	assert.False(t, IsValidOTP("123"))
	assert.False(t, IsValidOTP("12a4"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail(""))
	assert.True(t, IsValidEmail("asha@example.com"))
	assert.False(t, IsValidEmail("asha@"))
}

func TestIsValidDateAndClock(t *testing.T) {
	assert.True(t, IsValidDate("1990-05-01"))
	assert.False(t, IsValidDate("01-05-1990"))
	assert.True(t, IsValidClock("23:59"))
	assert.False(t, IsValidClock("24:10"))
}

func TestIsValidEnum(t *testing.T) {
	assert.True(t, IsValidEnum("Kerala", ChartStyles))
	assert.False(t, IsValidEnum("Western", ChartStyles))
	assert.True(t, IsValidEnum("", Genders))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("0190f3c4-8c7a-7b3e-9a51-1f2d3c4b5a69"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
}
