// Package format renders human-readable document numbers from a template
// and a running counter.
//
// Rendering is PURE:
// - No side effects
// - No DB access
// - Fully deterministic for a given (template, count, effectiveAt)
//
// The counter itself (how many documents exist in the current reset
// window) is state owned by the storage layer and passed in explicitly.
package format

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultTemplate is used when a numbering system does not set its own.
const DefaultTemplate = "INV-{yyyy}-{nnnn}"

var (
	tokenRe = regexp.MustCompile(`\{([^{}]*)\}`)
	seqRe   = regexp.MustCompile(`^n{1,9}$`)
)

// Render substitutes the recognized placeholders against effectiveAt and
// the zero-based count. Unknown tokens pass through literally; templates
// are validated at edit time, not at render time.
func Render(template string, count int64, effectiveAt time.Time) string {
	effectiveAt = effectiveAt.UTC()

	return tokenRe.ReplaceAllStringFunc(template, func(match string) string {
		token := match[1 : len(match)-1]
		switch token {
		case "yyyy":
			return effectiveAt.Format("2006")
		case "yy":
			return effectiveAt.Format("06")
		case "q":
			return strconv.Itoa((int(effectiveAt.Month())-1)/3 + 1)
		case "mm":
			return effectiveAt.Format("01")
		case "m":
			return strconv.Itoa(int(effectiveAt.Month()))
		}
		if seqRe.MatchString(token) {
			// The run length sets the minimum width; the value is
			// never truncated when it outgrows the padding.
			return fmt.Sprintf("%0*d", len(token), count+1)
		}
		return match
	})
}

// ValidateTemplate reports every unknown placeholder by name, plus any
// unmatched or stray brace. Meant for template create/update paths.
func ValidateTemplate(template string) error {
	unknown := map[string]struct{}{}
	for _, match := range tokenRe.FindAllStringSubmatch(template, -1) {
		token := match[1]
		switch token {
		case "yyyy", "yy", "q", "mm", "m":
			continue
		}
		if seqRe.MatchString(token) {
			continue
		}
		unknown[match[0]] = struct{}{}
	}
	if len(unknown) > 0 {
		tokens := make([]string, 0, len(unknown))
		for token := range unknown {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)
		return fmt.Errorf("unknown placeholder(s): %s", strings.Join(tokens, ", "))
	}

	stripped := tokenRe.ReplaceAllString(template, "")
	if strings.ContainsAny(stripped, "{}") {
		return fmt.Errorf("unmatched or stray braces in template %q", template)
	}

	return nil
}
