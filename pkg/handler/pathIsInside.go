package handler

import (
	"strings"
)

// pathIsInside reports whether thePath is potentialParent or lies below it.
// Backend paths always use "/" whatever the host OS.
func pathIsInside(thePath, potentialParent string) bool {
	// For inside-directory checking, we want to allow trailing slashes, so normalize.
	thePath = stripTrailingSep(thePath)
	potentialParent = stripTrailingSep(potentialParent)

	if potentialParent == "" {
		// Only the root itself remains, everything absolute is inside it.
		return strings.HasPrefix(thePath, "/") || thePath == ""
	}

	// They are either the same or the path has subdirectories from here
	plen := len(potentialParent)
	return strings.HasPrefix(thePath, potentialParent) && (len(thePath) == plen || thePath[plen] == '/')
}

func stripTrailingSep(thePath string) string {
	return strings.TrimRight(thePath, "/")
}

// escapesParent reports whether any segment of p climbs with "..".
func escapesParent(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
