// Package phone validates phone numbers and normalises them to E.164.
package phone

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// Normalize parses number, using region for numbers written without a
// country code, and returns it in E.164 form.
func Normalize(number, region string) (string, error) {
	number = strings.TrimSpace(number)
	p, err := libphonenumber.Parse(number, region)
	if err != nil {
		return "", fmt.Errorf("phone number %q is not valid: %w", number, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number %q is not valid", number)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
