package reconcile

import "strings"

// parseSerial extracts a leading hierarchical numeral from an item name,
// e.g. "6.1.2 GI Pipe 80mm" yields "6.1.2". The numeral must start the
// name and consist only of digits separated by single dots.
func parseSerial(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	end := 0
	lastDigit := false
	for end < len(trimmed) {
		ch := trimmed[end]
		switch {
		case ch >= '0' && ch <= '9':
			lastDigit = true
			end++
		case ch == '.' && lastDigit:
			lastDigit = false
			end++
		default:
			goto done
		}
	}
done:
	// A trailing dot belongs to punctuation, not the serial ("1. Pumps").
	serial := strings.TrimSuffix(trimmed[:end], ".")
	if serial == "" {
		return "", false
	}
	// The numeral must be delimited from the rest of the name.
	if end < len(trimmed) && trimmed[end] != ' ' && trimmed[end-1] != '.' {
		return "", false
	}
	return serial, true
}

// isDescendantSerial reports whether child is a strict dotted descendant of
// parent: "6.1" and "6.1.2" descend from "6", but "61" does not.
func isDescendantSerial(child, parent string) bool {
	return strings.HasPrefix(child, parent+".")
}
