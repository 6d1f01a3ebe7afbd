// Package phone holds phone number helpers. No business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "US"

var ErrInvalidNumber = errors.New("phone: invalid number")

// NormalizeE164 parses input in region and formats it as E.164.
// Unlike a best-effort formatter it reports unparseable or invalid numbers.
func NormalizeE164(input, region string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrInvalidNumber
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return "", ErrInvalidNumber
	}
	if !phonenumbers.IsValidNumber(number) {
		return "", ErrInvalidNumber
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// Display formats an E.164 number for humans, e.g. in notification text.
// It returns the input unchanged if it cannot be parsed.
func Display(e164 string) string {
	number, err := phonenumbers.Parse(e164, DefaultRegion)
	if err != nil {
		return e164
	}
	return phonenumbers.Format(number, phonenumbers.NATIONAL)
}
