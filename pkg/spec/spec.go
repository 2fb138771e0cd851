package spec

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/npmmeta/pkg/errors"
)

// Type classifies what follows the package name in a specifier.
type Type string

const (
	TypeTag       Type = "tag"
	TypeRange     Type = "range"
	TypeVersion   Type = "version"
	TypeAlias     Type = "alias"
	TypeFile      Type = "file"
	TypeDirectory Type = "directory"
	TypeGit       Type = "git"
	TypeRemote    Type = "remote"
)

// Registry reports whether the type resolves against registry metadata.
func (t Type) Registry() bool {
	return t == TypeTag || t == TypeRange || t == TypeVersion
}

// Parsed is a parsed package specifier.
type Parsed struct {
	Raw       string // The segment as supplied
	Name      string // Package name, possibly scoped; empty for nameless git/file specs
	Type      Type
	FetchSpec string // Tag, range or version; "*" when omitted
}

// String renders the specifier back in name@fetchSpec form.
func (p Parsed) String() string {
	if p.Name == "" {
		return p.Raw
	}
	return p.Name + "@" + p.FetchSpec
}

var gitPrefixes = []string{
	"git+", "git://", "github:", "gitlab:", "bitbucket:", "gist:",
}

// Parse parses a single specifier. It fails with an INVALID_SPECIFIER error
// when the input is malformed or names no package.
func Parse(raw string) (Parsed, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Parsed{}, errors.InvalidSpecifier(raw, "empty specifier")
	}

	if t, ok := nameless(s); ok {
		return Parsed{}, errors.New(errors.ErrCodeInvalidSpecifier, "Invalid package specifier: %s (%s specifiers need a package name)", raw, t)
	}

	name, rest, hasAt := splitName(s)
	if err := ValidateName(name); err != nil {
		return Parsed{}, err
	}

	p := Parsed{Raw: raw, Name: name}
	if !hasAt || strings.TrimSpace(rest) == "" {
		p.Type, p.FetchSpec = TypeRange, "*"
		return p, nil
	}

	rest = strings.TrimSpace(rest)
	p.FetchSpec = rest

	switch {
	case strings.HasPrefix(rest, "npm:"):
		p.Type = TypeAlias
		return p, nil
	case strings.HasPrefix(rest, "file:") || isPath(rest):
		if strings.HasSuffix(rest, ".tgz") || strings.HasSuffix(rest, ".tar.gz") || strings.HasSuffix(rest, ".tar") {
			p.Type = TypeFile
		} else {
			p.Type = TypeDirectory
		}
		return p, nil
	case hasAnyPrefix(rest, gitPrefixes) || isHostedShorthand(rest):
		p.Type = TypeGit
		return p, nil
	case strings.HasPrefix(rest, "http://") || strings.HasPrefix(rest, "https://"):
		p.Type = TypeRemote
		return p, nil
	}

	switch {
	case IsVersion(rest):
		p.Type, p.FetchSpec = TypeVersion, CleanVersion(rest)
	case IsRange(rest):
		p.Type = TypeRange
	case isURISafe(rest):
		p.Type = TypeTag
	default:
		return Parsed{}, errors.New(errors.ErrCodeInvalidSpecifier, "Invalid tag name %q of package %q: Tags may not have any characters that encodeURIComponent encodes.", rest, name)
	}
	return p, nil
}

// nameless detects specifiers that carry no package name at all, such as
// local paths, git URLs and tarball URLs.
func nameless(s string) (Type, bool) {
	switch {
	case strings.HasPrefix(s, "file:") || isPath(s):
		return TypeDirectory, true
	case hasAnyPrefix(s, gitPrefixes):
		return TypeGit, true
	case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
		return TypeRemote, true
	case !strings.HasPrefix(s, "@") && isHostedShorthand(s):
		return TypeGit, true
	}
	return "", false
}

// splitName separates the package name from the rest of the specifier.
// The "@" that introduces a scope is not a separator.
func splitName(s string) (name, rest string, hasAt bool) {
	start := 0
	if strings.HasPrefix(s, "@") {
		start = 1
	}
	i := strings.Index(s[start:], "@")
	if i < 0 {
		return s, "", false
	}
	i += start
	return s[:i], s[i+1:], true
}

func isPath(s string) bool {
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		strings.HasPrefix(s, "/") || strings.HasPrefix(s, "~/") ||
		s == "." || s == ".." ||
		(len(s) > 2 && s[1] == ':' && (s[2] == '\\' || s[2] == '/'))
}

// isHostedShorthand matches "user/repo" and "user/repo#ref". The part before
// "#" never contains "@", so "name@user/repo#ref" is not a shorthand.
func isHostedShorthand(s string) bool {
	repo, _, _ := strings.Cut(s, "#")
	if strings.Contains(repo, "@") {
		return false
	}
	user, project, ok := strings.Cut(repo, "/")
	return ok && user != "" && project != "" && !strings.Contains(project, "/") && !strings.Contains(user, ":")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// IsVersion reports whether s is an exact semver version. A leading "=" or
// "v" is tolerated, as npm does.
func IsVersion(s string) bool {
	_, err := semver.StrictNewVersion(trimVersionPrefix(s))
	return err == nil
}

// IsRange reports whether s is a semver range npm would accept.
func IsRange(s string) bool {
	_, err := semver.NewConstraint(strings.TrimSpace(s))
	return err == nil
}

// NormalizeRange maps the empty range and "latest" to "*". Both mean "any
// version" when they show up as a range.
func NormalizeRange(r string) string {
	r = strings.TrimSpace(r)
	if r == "" || r == "latest" {
		return "*"
	}
	return r
}

func trimVersionPrefix(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "=")
	s = strings.TrimPrefix(s, "v")
	return s
}

// CleanVersion returns the canonical form of an exact version.
func CleanVersion(s string) string {
	return trimVersionPrefix(s)
}
