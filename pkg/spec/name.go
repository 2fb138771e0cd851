package spec

import (
	"strings"

	"github.com/matzehuels/npmmeta/pkg/errors"
)

var reservedNames = map[string]bool{
	"node_modules": true,
	"favicon.ico":  true,
}

// ValidateName checks a package name against the npm naming rules that apply
// to existing packages. Uppercase letters and long names are accepted since
// the registry still serves packages published before those rules.
func ValidateName(name string) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}

	invalid := func(reason string) error {
		return errors.New(errors.ErrCodeInvalidSpecifier, "Invalid package name %q: %s", name, reason)
	}

	switch {
	case strings.HasPrefix(name, "."):
		return invalid("name cannot start with a period")
	case strings.HasPrefix(name, "_"):
		return invalid("name cannot start with an underscore")
	case strings.TrimSpace(name) != name:
		return invalid("name cannot contain leading or trailing spaces")
	case reservedNames[strings.ToLower(name)]:
		return invalid(name + " is not a valid package name")
	}

	if isURISafe(name) {
		return nil
	}

	if scope, pkg, ok := strings.Cut(name, "/"); ok && strings.HasPrefix(scope, "@") {
		scope = strings.TrimPrefix(scope, "@")
		if scope != "" && pkg != "" && isURISafe(scope) && isURISafe(pkg) {
			return nil
		}
	}

	return invalid("name can only contain URL-friendly characters")
}

// isURISafe reports whether encodeURIComponent would leave s unchanged.
func isURISafe(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case strings.IndexByte("-_.!~*'()", c) >= 0:
		default:
			return false
		}
	}
	return true
}
