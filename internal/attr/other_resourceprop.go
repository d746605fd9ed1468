//go:build !darwin

package attr

// setResourceProperty is a no-op off Darwin; only the xattr half of the
// dual toggle has meaning on other platforms.
func setResourceProperty(path string, excluded bool) {}
