package condition

import "strings"

// Split cuts text on colons not preceded by a backslash and unescapes "\:".
func Split(text string) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) && text[i+1] == ':' {
			cur.WriteByte(':')
			i++
			continue
		}
		if c == ':' {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return append(parts, cur.String())
}

// Branches splits two-branch text "true:false". ok is false when text has no
// unescaped colon, in which case trueText is the whole unescaped text.
func Branches(text string) (trueText, falseText string, ok bool) {
	parts := Split(text)
	if len(parts) < 2 {
		return parts[0], "", false
	}
	return parts[0], strings.Join(parts[1:], ":"), true
}

// ResolveBranch turns a chosen branch into display text. A branch starting with
// "_" is a policy path up to the first space; the rest of the branch, space
// included, is appended as a literal suffix. An unresolved or empty path yields "".
func ResolveBranch(branch string, lookup Lookup) string {
	if !strings.HasPrefix(branch, "_") {
		return branch
	}
	path, suffix := branch[1:], ""
	if i := strings.IndexByte(path, ' '); i >= 0 {
		path, suffix = path[:i], path[i:]
	}
	if lookup == nil {
		return ""
	}
	v, ok := lookup(path)
	if !ok || v == "" {
		return ""
	}
	return v + suffix
}
