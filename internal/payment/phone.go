package payment

import (
	"regexp"
	"strings"
)

const DefaultCountryPrefix = "254"

var nonDigits = regexp.MustCompile(`[^0-9]`)

// NormalizePhone turns a user-entered mobile number into prefix-led digits.
// It is total: garbage in yields a string ValidCanonical rejects.
func NormalizePhone(raw, countryPrefix string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if strings.HasPrefix(digits, "0") {
		digits = countryPrefix + digits[1:]
	}
	if !strings.HasPrefix(digits, countryPrefix) {
		digits = countryPrefix + digits
	}
	return digits
}

// ValidCanonical accepts prefix followed by a nine digit mobile subscriber
// number starting with 7, 10 or 11.
func ValidCanonical(phone, countryPrefix string) bool {
	if !strings.HasPrefix(phone, countryPrefix) {
		return false
	}
	return subscriber.MatchString(strings.TrimPrefix(phone, countryPrefix))
}

var subscriber = regexp.MustCompile(`^(?:7[0-9]|1[0-1])[0-9]{7}$`)
