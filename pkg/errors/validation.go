package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds package names; install dirs are hashed, but the
// catalog stores one document per name.
const maxNameLength = 256

// ValidatePackageName validates a package name for safety and correctness.
// Names key catalog documents on disk, so anything that could escape the
// catalog directory is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - No "=" (the manifest separator)
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name %q contains whitespace or control characters", name)
		}
	}

	if name == "." || strings.HasPrefix(name, "..") {
		return New(ErrCodeInvalidPackage, "package name %q is not allowed", name)
	}

	for _, pattern := range []string{"/", "\\", "=", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name %q contains invalid characters: %q", name, pattern)
		}
	}

	return nil
}

// ValidateVersion validates a version tag. Versions are matched as exact
// strings against catalog tags and passed to git as a branch name.
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidInput, "version cannot be empty")
	}
	if strings.HasPrefix(version, "-") {
		return New(ErrCodeInvalidInput, "version %q cannot start with '-'", version)
	}
	for _, r := range version {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "version %q contains whitespace or control characters", version)
		}
	}
	return nil
}

// ValidateURL validates a repository URL before it is handed to git.
// Accepted forms are http(s), ssh, git, file and scp-like "user@host:path".
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if strings.HasPrefix(rawURL, "-") {
		return New(ErrCodeInvalidInput, "URL %q cannot start with '-'", rawURL)
	}

	for _, scheme := range []string{"https://", "http://", "ssh://", "git://", "file://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	if at := strings.Index(rawURL, "@"); at > 0 && strings.Contains(rawURL[at:], ":") {
		return nil
	}

	return New(ErrCodeInvalidInput, "unsupported repository URL %q", rawURL)
}
