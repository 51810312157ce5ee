package registration

import "strings"

// ParseTargets splits whitespace or comma separated class ids, keeping the
// first occurrence of each id in input order.
func ParseTargets(raw ...string) ([]Target, error) {
	seen := make(map[Target]struct{})
	var out []Target
	for _, r := range raw {
		fields := strings.FieldsFunc(r, func(c rune) bool {
			return c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r'
		})
		for _, f := range fields {
			t := Target(f)
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoTargets
	}
	return out, nil
}

// Unique drops repeated targets, preserving order.
func Unique(ts []Target) []Target {
	seen := make(map[Target]struct{}, len(ts))
	out := make([]Target, 0, len(ts))
	for _, t := range ts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
