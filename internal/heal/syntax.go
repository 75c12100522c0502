package heal

import "strings"

// PatchSyntax repairs common missing-colon mistakes on block-opening
// statements (try, except, finally, def, class) and normalizes the
// malformed \"\"\" escape back to a real triple quote.
//
// The repair is line-oriented and deliberately conservative: a line it
// cannot confidently fix passes through unchanged, and running the patch
// twice yields the same output as running it once.
func PatchSyntax(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))

	for i, line := range lines {
		stripped := strings.TrimLeft(line, " \t")
		corrected := line

		switch {
		case isBareKeyword(stripped, "try") && !strings.HasSuffix(stripped, ":"):
			corrected = line + ":"

		case isBareKeyword(stripped, "except") && !strings.HasSuffix(stripped, ":"):
			parts := strings.Fields(stripped)
			last := parts[len(parts)-1]
			if len(parts) == 1 || !strings.HasSuffix(last, ":") {
				corrected = line + ":"
			}

		case stripped == "finally":
			corrected = line + ":"

		case strings.HasPrefix(stripped, "def ") && strings.HasSuffix(stripped, ")"):
			corrected = line + ":"

		case strings.HasPrefix(stripped, "class "):
			// Trailing comments don't count against the colon check.
			head := strings.TrimRight(strings.SplitN(stripped, "#", 2)[0], " \t")
			if !strings.HasSuffix(head, ":") {
				corrected = line + ":"
			}
		}

		out[i] = strings.ReplaceAll(corrected, `\"\"\"`, `"""`)
	}

	return strings.Join(out, "\n")
}

// isBareKeyword reports whether the stripped line starts with the keyword
// as its own word.
func isBareKeyword(stripped, kw string) bool {
	if stripped == kw {
		return true
	}
	return strings.HasPrefix(stripped, kw+" ") || strings.HasPrefix(stripped, kw+"\t")
}
