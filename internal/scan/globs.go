package scan

import "github.com/bmatcuk/doublestar/v4"

// doublestarMatch matches a skip glob against a candidate path, mirroring
// the teacher's use of doublestar for config-driven path matching.
func doublestarMatch(pattern, path string) (bool, error) {
	return doublestar.Match(pattern, path)
}
