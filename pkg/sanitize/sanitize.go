// Package sanitize normalizes raw extracted fields into canonical forms:
// national IDs with checksum validation (CPF/CNPJ), dates to ISO-8601, and
// monetary amounts to a plain decimal representation.
package sanitize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidID is returned for IDs with a wrong length or checksum.
	ErrInvalidID = errors.New("invalid identification number")
	// ErrInvalidDate is returned for unrecognized date formats.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidAmount is returned for unparseable monetary amounts.
	ErrInvalidAmount = errors.New("invalid monetary amount")
)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// CPF validates an individual taxpayer number and returns it formatted as
// XXX.XXX.XXX-XX.
func CPF(raw string) (string, error) {
	d := digitsOnly(raw)
	if len(d) != 11 || allSame(d) {
		return "", ErrInvalidID
	}

	check := func(n, multiplier int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (multiplier - i)
		}
		rest := sum % 11
		if rest < 2 {
			return 0
		}
		return 11 - rest
	}

	if check(9, 10) != int(d[9]-'0') || check(10, 11) != int(d[10]-'0') {
		return "", ErrInvalidID
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:]), nil
}

// CNPJ validates a company registration number and returns it formatted as
// XX.XXX.XXX/XXXX-XX.
func CNPJ(raw string) (string, error) {
	d := digitsOnly(raw)
	if len(d) != 14 || allSame(d) {
		return "", ErrInvalidID
	}

	check := func(weights []int) int {
		sum := 0
		for i, w := range weights {
			sum += int(d[i]-'0') * w
		}
		rest := sum % 11
		if rest < 2 {
			return 0
		}
		return 11 - rest
	}

	first := check([]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})
	second := check([]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})
	if first != int(d[12]-'0') || second != int(d[13]-'0') {
		return "", ErrInvalidID
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:]), nil
}

// dateLayouts covers the formats documents commonly carry.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/06",
	"02.01.2006",
}

// Date parses a date in common local formats and returns it as YYYY-MM-DD.
func Date(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", ErrInvalidDate
}

// Amount parses a monetary amount ("R$ 1.234,56", "1234.56", "1.234,56") and
// returns the numeric value. Negative amounts are rejected.
func Amount(raw string) (float64, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "R$", ""), " ", ""))
	if clean == "" {
		return 0, ErrInvalidAmount
	}

	switch {
	case strings.Contains(clean, ",") && strings.Contains(clean, "."):
		// Local format: dots are thousands, comma is the decimal mark.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil || value < 0 {
		return 0, ErrInvalidAmount
	}
	return value, nil
}

// FormatAmount renders a parsed amount in the canonical two-decimal form
// used everywhere a field map stores money.
func FormatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// Fields normalizes a raw extracted field map. Field kinds are detected by
// key name: keys containing "cpf" get CPF validation, "cnpj"/"company_id"
// get CNPJ validation, keys containing "date" get date normalization, and
// keys containing "amount" or "value" get monetary normalization. Values
// that fail validation are kept as-is so a human reviewer can still see
// what the gateway returned; empty values are dropped.
func Fields(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		lower := strings.ToLower(key)
		switch {
		case strings.Contains(lower, "cpf") || lower == "national_id":
			if clean, err := CPF(value); err == nil {
				out[key] = clean
				continue
			}
		case strings.Contains(lower, "cnpj") || lower == "company_id":
			if clean, err := CNPJ(value); err == nil {
				out[key] = clean
				continue
			}
		case strings.Contains(lower, "date"):
			if clean, err := Date(value); err == nil {
				out[key] = clean
				continue
			}
		case strings.Contains(lower, "amount") || strings.Contains(lower, "value"):
			if amount, err := Amount(value); err == nil {
				out[key] = FormatAmount(amount)
				continue
			}
		}
		out[key] = value
	}
	return out
}
