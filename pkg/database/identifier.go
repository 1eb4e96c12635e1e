package database

import (
	"fmt"
	"regexp"
)

var validIdentifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier reports whether name is a safe bare identifier.
// Identifiers are whitelisted rather than escaped: anything outside
// [A-Za-z0-9_] is rejected.
func ValidateIdentifier(name string) error {
	if !validIdentifierPattern.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier: %q", name)
	}
	return nil
}
