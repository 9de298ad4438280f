package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(strings.Repeat("a", 73)))
	assert.Error(t, ValidatePassword("mypassword1"))
	assert.NoError(t, ValidatePassword("correct horse"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@x.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.com"))
	assert.Error(t, ValidateEmail("Rahim <rahim@x.com>"))
	assert.Error(t, ValidateEmail("rahim@localhost"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "rahim@x.com", NormalizeEmail("  Rahim@X.com "))
}

func TestValidateName(t *testing.T) {
	assert.Error(t, ValidateName("   "))
	assert.NoError(t, ValidateName("রহিম"))
	assert.NoError(t, ValidateName(strings.Repeat("র", 100)))
	assert.Error(t, ValidateName(strings.Repeat("র", 101)))
	assert.Error(t, ValidateName("Rahim\x00"))
}

func TestValidateStudentFields(t *testing.T) {
	assert.NoError(t, ValidateRollNumber("12"))
	assert.Error(t, ValidateRollNumber(""))
	assert.Error(t, ValidateRollNumber("12a"))

	assert.NoError(t, ValidateRegistrationNumber("1502345"))
	assert.Error(t, ValidateRegistrationNumber("R-1"))

	assert.NoError(t, ValidatePhone(""))
	assert.NoError(t, ValidatePhone("01712345678"))
	assert.NoError(t, ValidatePhone("+8801712345678"))
	assert.Error(t, ValidatePhone("0121234567"))
}
