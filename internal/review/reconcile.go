package review

import (
	"regexp"
	"strings"
)

// checkedItemRegex matches a checked Markdown checklist line. The x is
// case-insensitive because GitHub renders both, and humans type both.
var checkedItemRegex = regexp.MustCompile(`(?im)^\s*[-*]\s+\[[xX]\]\s+(.+)$`)

// ExtractChecked collects the scenario texts a human checked off in prior
// review bodies. Only bodies containing the marker are considered ours: a
// human reviewer's independent review must never be reinterpreted as
// carrying checklist state. The extracted strings are kept verbatim
// (trimmed only) — normalization is the matcher's job, so extraction stays
// a lossless record of what was literally checked.
func ExtractChecked(priorBodies []string, marker string) map[string]struct{} {
	checked := make(map[string]struct{})
	if marker == "" {
		return checked
	}

	for _, body := range priorBodies {
		if !strings.Contains(body, marker) {
			continue
		}
		for _, m := range checkedItemRegex.FindAllStringSubmatch(body, -1) {
			text := strings.TrimSpace(m[1])
			// Strip the backtick wrapping the composer emits around
			// scenario text; older runs may not have it.
			text = strings.Trim(text, "`")
			if text != "" {
				checked[text] = struct{}{}
			}
		}
	}
	return checked
}
