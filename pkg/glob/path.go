package glob

import (
	"regexp"
	"strings"
)

var magicCheck = regexp.MustCompile(`([*?[])`)

// Escape returns a pattern that matches path literally, wrapping every
// wildcard character in a one-character set.
func Escape(path string) string {
	return magicCheck.ReplaceAllString(path, "[$1]")
}

// split separates the final segment from the rest of the path. Trailing
// slashes are removed from the head unless it consists only of slashes.
func split(p string) (head, tail string) {
	i := strings.LastIndexByte(p, '/') + 1
	head, tail = p[:i], p[i:]
	if head != "" && strings.Trim(head, "/") != "" {
		head = strings.TrimRight(head, "/")
	}
	return head, tail
}

// join appends name to dir with a single slash. An empty name leaves a
// trailing slash on dir.
func join(dir, name string) string {
	switch {
	case strings.HasPrefix(name, "/"):
		return name
	case dir == "" || strings.HasSuffix(dir, "/"):
		return dir + name
	}
	return dir + "/" + name
}
