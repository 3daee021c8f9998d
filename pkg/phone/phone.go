// Package phone normalizes citizen contact numbers into a canonical
// +<country><subscriber> form.
package phone

import (
	"fmt"
	"strings"
)

var countryCodes = map[string]string{
	"IN": "91",
	"US": "1",
	"GB": "44",
	"RS": "381",
}

// ErrFormat reports a contact string that cannot be normalized.
type ErrFormat struct {
	Raw string
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("invalid contact number %q", e.Raw)
}

// Normalize returns the canonical form of a raw contact string using the
// region hint for numbers given without a country prefix.
func Normalize(raw, region string) (string, error) {
	digits := strings.Builder{}
	hasPlus := strings.HasPrefix(strings.TrimSpace(raw), "+")
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()

	if hasPlus {
		if len(number) < 8 || len(number) > 15 {
			return "", &ErrFormat{Raw: raw}
		}
		return "+" + number, nil
	}

	code, ok := countryCodes[strings.ToUpper(region)]
	if !ok {
		return "", fmt.Errorf("unknown region %q", region)
	}

	number = strings.TrimPrefix(number, "0")
	if len(number) < 7 || len(number) > 12 {
		return "", &ErrFormat{Raw: raw}
	}
	return "+" + code + number, nil
}
