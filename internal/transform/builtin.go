package transform

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

func init() {
	Register("uppercase", func(_ map[string]any, raw string) (string, error) {
		return strings.ToUpper(raw), nil
	})
	Register("lowercase", func(_ map[string]any, raw string) (string, error) {
		return strings.ToLower(raw), nil
	})
	Register("trim", func(_ map[string]any, raw string) (string, error) {
		return strings.TrimSpace(raw), nil
	})
	Register("remove_accents", func(_ map[string]any, raw string) (string, error) {
		return stripDiacritics(raw), nil
	})
	Register("format_date", formatDate)
	Register("format_cpf", formatCPF)
}

// datePatternReplacer converts the date-pattern dialect used in layout
// documents (dd/MM/yyyy etc.) to Go reference-time layouts.
var datePatternReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// formatDate reparses a date value from the "from" pattern and renders
// it in the "to" pattern, e.g. {from: dd/MM/yyyy, to: yyyy-MM-dd}.
func formatDate(params map[string]any, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return raw, nil
	}
	from, err := stringParam(params, "from", "format_date")
	if err != nil {
		return "", err
	}
	to, err := stringParam(params, "to", "format_date")
	if err != nil {
		return "", err
	}

	t, err := time.Parse(datePatternReplacer.Replace(from), strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("format_date: %q does not match pattern %q", raw, from)
	}
	return t.Format(datePatternReplacer.Replace(to)), nil
}

// formatCPF renders an 11-digit CPF as ###.###.###-##, stripping any
// existing punctuation first. Values without exactly 11 digits are
// rejected rather than silently passed through.
func formatCPF(_ map[string]any, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return raw, nil
	}
	var digits []byte
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r))
		}
	}
	if len(digits) != 11 {
		return "", fmt.Errorf("format_cpf: %q does not contain 11 digits", raw)
	}
	d := string(digits)
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11], nil
}

// stripDiacritics removes combining marks after NFD decomposition, so
// "José" becomes "Jose".
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var out strings.Builder
	out.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		out.WriteRune(r)
	}
	return norm.NFC.String(out.String())
}
