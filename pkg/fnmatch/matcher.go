package fnmatch

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const magicChars = "*?["

var (
	// matches nothing, used for sets whose ranges are all empty
	emptySet = `[^\x00-\x{10FFFF}]`

	// any single character, slashes included
	anyChar = "."

	// any single character other than /
	qmark = "[^/]"
)

// HasMagic reports whether s contains any wildcard character.
func HasMagic(s string) bool {
	return strings.ContainsAny(s, magicChars)
}

// IsHidden reports whether name starts with a dot.
func IsHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// Translate converts a single segment pattern to a regular expression source.
func Translate(pattern string) string {
	return "^(?s:" + translate(pattern, false) + `)\z`
}

// Compile returns the regular expression for a segment pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(Translate(pattern))
}

// Match reports whether name matches the shell pattern.
func Match(name, pattern string) (bool, error) {
	re, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(name), nil
}

// Filter returns the names that match pattern, in their original order.
func Filter(names []string, pattern string) ([]string, error) {
	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	result := []string{}
	for _, name := range names {
		if re.MatchString(name) {
			result = append(result, name)
		}
	}
	return result, nil
}

// translate walks the pattern once. * and ? never match a slash. With paths
// set, a run of two or more stars spans any characters, slashes included.
func translate(pattern string, paths bool) string {
	var re strings.Builder
	for i := 0; i < len(pattern); {
		c, size := utf8.DecodeRuneInString(pattern[i:])
		i += size

		switch c {
		case '*':
			if paths && i < len(pattern) && pattern[i] == '*' {
				for i < len(pattern) && pattern[i] == '*' {
					i++
				}
				re.WriteString(anyChar + "*")
				continue
			}
			re.WriteString(qmark + "*")
		case '?':
			re.WriteString(qmark)
		case '[':
			class, next, ok := parseClass(pattern, i)
			if !ok {
				// an unterminated class is a literal [
				re.WriteString(`\[`)
				continue
			}
			re.WriteString(class)
			i = next
		default:
			re.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	return re.String()
}

// parseClass translates the set that starts just after the '[' at pattern[start-1].
// It returns the class, the index following the closing ']', and false when the
// set is never closed.
func parseClass(pattern string, start int) (string, int, bool) {
	j := start
	if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
		j++
	}
	//  a right bracket shall lose its special
	//  meaning and represent itself in
	//  a bracket expression if it occurs
	//  first in the list.  -- POSIX.2 2.8.3.2
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for j < len(pattern) && pattern[j] != ']' {
		j++
	}
	if j >= len(pattern) {
		return "", start, false
	}

	body := []rune(pattern[start:j])
	negate := false
	if body[0] == '!' || body[0] == '^' {
		negate = true
		body = body[1:]
	}

	var items strings.Builder
	for k := 0; k < len(body); k++ {
		if k+2 < len(body) && body[k+1] == '-' {
			lo, hi := body[k], body[k+2]
			k += 2
			if lo > hi {
				// reversed ranges are empty
				continue
			}
			items.WriteString(regexp.QuoteMeta(string(lo)) + "-" + regexp.QuoteMeta(string(hi)))
			continue
		}
		if body[k] == '-' {
			items.WriteString(`\-`)
			continue
		}
		items.WriteString(regexp.QuoteMeta(string(body[k])))
	}

	switch {
	case negate:
		return "[^" + items.String() + "/]", j + 1, true
	case items.Len() == 0:
		return emptySet, j + 1, true
	}
	return "[" + items.String() + "]", j + 1, true
}
