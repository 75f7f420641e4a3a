package fnmatch

import "regexp"

// TranslatePath converts a slash-separated path pattern to a regular
// expression source. * and ? never match a slash, while ** matches any run of
// characters including slashes, so "**/*.csv" needs at least one directory.
func TranslatePath(pattern string) string {
	return "^(?s:" + translate(pattern, true) + `)\z`
}

func CompilePath(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(TranslatePath(pattern))
}

// MatchPath reports whether a whole path matches a path pattern.
func MatchPath(path, pattern string) (bool, error) {
	re, err := CompilePath(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(path), nil
}

// FilterPaths returns the paths that match pattern, in their original order.
func FilterPaths(paths []string, pattern string) ([]string, error) {
	re, err := CompilePath(pattern)
	if err != nil {
		return nil, err
	}

	result := []string{}
	for _, p := range paths {
		if re.MatchString(p) {
			result = append(result, p)
		}
	}
	return result, nil
}
