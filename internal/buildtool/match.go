package buildtool

import "regexp"

// CompareResults reports whether every value in expected appears in
// obtained, as a whole word (no alphanumeric/underscore immediately
// before or after), case-insensitively, and in order. Each match is
// consumed before the next expected value is searched, so the same
// occurrence can't satisfy two expectations. Output between and around
// matches is ignored; the matcher is deliberately lenient about
// everything except order and word-boundary containment.
func CompareResults(obtained string, expected []string) bool {
	remaining := obtained
	for _, want := range expected {
		re, err := regexp.Compile(`(?i)(?:^|[^A-Za-z0-9_])(` + regexp.QuoteMeta(want) + `)(?:[^A-Za-z0-9_]|$)`)
		if err != nil {
			return false
		}
		loc := re.FindStringSubmatchIndex(remaining)
		if loc == nil {
			return false
		}
		// Cut at the end of the captured value, so this consumes exactly
		// the matched word; the boundary character after it remains
		// available for the next expected value's own search.
		remaining = remaining[loc[3]:]
	}
	return true
}

// StripAntPrefix keeps only lines beginning with "[java]" and removes
// that prefix, matching Ant's forwarding of a child process's console
// output.
func StripAntPrefix(lines []string) []string {
	const prefix = "[java]"
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) >= len(prefix) && line[:len(prefix)] == prefix {
			out = append(out, line[len(prefix):])
		}
	}
	return out
}
