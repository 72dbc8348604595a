// ABOUTME: Pure text normalization and candidate generation for scanned payloads
// ABOUTME: Tolerates formatting drift between configured door codes and QR renderings

package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// unicodeDashes maps common unicode dash variants to ASCII hyphen.
var unicodeDashes = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
)

var (
	numericRe   = regexp.MustCompile(`^\d+$`)
	dashRunRe   = regexp.MustCompile(`\s*-\s*`)
	doorTokenRe = regexp.MustCompile(`DOOR[\s-]*([A-Z0-9]+)`)
	tailRunRe   = regexp.MustCompile(`([A-Z0-9]+)$`)
	gateFirstRe = regexp.MustCompile(`^GATE\s*([A-Z0-9]+)$`)
	codeTokenRe = regexp.MustCompile(`\b[A-Z]{1,6}\d[A-Z0-9]*\b`)
	gateAnyRe   = regexp.MustCompile(`\bGATE\s*[- ]*\s*([A-Z0-9]+)\b`)
	shortCodeRe = regexp.MustCompile(`^[A-Z]{1,6}\d[A-Z0-9]*$`)
)

// Normalize collapses whitespace runs to single spaces, uppercases, and maps
// unicode dash variants to ASCII hyphen. Idempotent; empty input stays empty.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	return unicodeDashes.Replace(strings.ToUpper(collapsed))
}

// Candidates returns every plausible equivalent form of a scanned value that an
// operator might have configured as a door number: dash-compacted and padded
// variants, individual dash segments, zero-padded numeric forms, DOOR-prefixed
// forms, the trailing alphanumeric run, and space-stripped versions of all of
// the above. The result is deduplicated and sorted; empty input yields nil.
func Candidates(text string) []string {
	base := Normalize(text)
	if base == "" {
		return nil
	}

	forms := map[string]struct{}{base: {}}
	add := func(s string) {
		forms[s] = struct{}{}
	}
	addNumericVariants := func(token string) {
		n := Normalize(token)
		if n == "" || !numericRe.MatchString(n) {
			return
		}
		canonical := trimLeadingZeros(n)
		add(canonical)
		add(padLeft(canonical, 2))
		add(padLeft(canonical, 3))
	}

	compact := dashRunRe.ReplaceAllString(base, "-")
	add(compact)
	add(strings.ReplaceAll(compact, "-", " - "))

	if strings.Contains(base, "-") {
		var parts []string
		for _, part := range strings.Split(base, "-") {
			if p := strings.TrimSpace(part); p != "" {
				parts = append(parts, p)
			}
		}
		for _, p := range parts {
			add(p)
			addNumericVariants(p)
		}
		if len(parts) >= 2 {
			add(parts[len(parts)-1])
		}
	}

	if m := doorTokenRe.FindStringSubmatch(base); m != nil {
		token := m[1]
		add("DOOR " + token)
		add("DOOR" + token)
		add(token)
		if numericRe.MatchString(token) {
			canonical := trimLeadingZeros(token)
			for _, variant := range []string{canonical, padLeft(canonical, 2), padLeft(canonical, 3)} {
				add(variant)
				add("DOOR " + variant)
				add("DOOR" + variant)
			}
		}
	}

	if m := tailRunRe.FindStringSubmatch(base); m != nil {
		add(m[1])
		addNumericVariants(m[1])
	}

	expanded := make(map[string]struct{}, len(forms)*2)
	for form := range forms {
		n := Normalize(form)
		if n == "" {
			continue
		}
		expanded[n] = struct{}{}
		expanded[strings.ReplaceAll(n, " ", "")] = struct{}{}
	}

	return sortedKeys(expanded)
}

// GateHints extracts tokens that look like gate identifiers from a scanned
// value, used to narrow door matching when several gates share a door label.
// Returns nil when nothing in the text resembles a gate code; callers must
// then treat the door search as gate-agnostic.
func GateHints(text string) []string {
	base := Normalize(text)
	if base == "" {
		return nil
	}

	hints := make(map[string]struct{})
	addGateSuffix := func(raw string) {
		suffix := strings.ReplaceAll(Normalize(raw), " ", "")
		if suffix == "" {
			return
		}
		hints["G"+suffix] = struct{}{}
		hints["GATE"+suffix] = struct{}{}
		hints["GATE "+suffix] = struct{}{}
		hints[suffix] = struct{}{}
	}

	var parts []string
	for _, part := range dashRunRe.Split(base, -1) {
		if p := Normalize(part); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		first := parts[0]
		if !strings.HasPrefix(first, "DOOR") {
			if m := gateFirstRe.FindStringSubmatch(first); m != nil {
				addGateSuffix(m[1])
			} else if shortCodeRe.MatchString(first) {
				hints[first] = struct{}{}
			}
		}
	}

	for _, token := range codeTokenRe.FindAllString(base, -1) {
		n := Normalize(token)
		if strings.HasPrefix(n, "DOOR") {
			continue
		}
		hints[n] = struct{}{}
	}

	for _, m := range gateAnyRe.FindAllStringSubmatch(base, -1) {
		addGateSuffix(m[1])
	}

	if len(hints) == 0 {
		return nil
	}
	return sortedKeys(hints)
}

// trimLeadingZeros canonicalizes a digit string: "007" -> "7", "000" -> "0".
func trimLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
