package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reEmail    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reUnsafe   = regexp.MustCompile(`[^\w\-.]`)
	rePONumber = regexp.MustCompile(`(?i)(?:PO|P\.O\.|Purchase\s+Order)[\s#:\-]*([A-Z0-9][A-Z0-9\-]+)`)
)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// NormalizeSupplier produces the grouping key for supplier names:
// case-insensitive, trimmed, inner whitespace collapsed.
func NormalizeSupplier(name string) string {
	return strings.ToLower(NormalizeSpaces(name))
}

// ExtractEmail returns the first email address found in the input, which may
// be a bare address or a "Name <addr>" header.
func ExtractEmail(input string) string {
	return reEmail.FindString(input)
}

// ExtractPONumber finds a PO-number hint like "PO-2025-001" in subject or
// body text. Empty when nothing matches.
func ExtractPONumber(input string) string {
	m := rePONumber.FindStringSubmatch(input)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimRight(m[1], "-")
}

// SanitizeFilename strips characters unsafe for local attachment storage.
func SanitizeFilename(name string) string {
	out := reUnsafe.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(out) > 120 {
		out = out[:120]
	}
	if out == "" {
		out = "attachment"
	}
	return out
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
