// Package spec parses npm package specifiers.
//
// A specifier is a package name optionally followed by "@" and a tag, a
// semver range or an exact version:
//
//	vite            range "*"
//	vite@latest     tag "latest"
//	vite@^5         range "^5"
//	vite@5.0.2      version "5.0.2"
//	@nuxt/kit@3     range "3"
//
// Alias ("npm:"), file, directory, git and remote specifiers are recognized
// so callers can reject them with a precise message, but only [TypeTag],
// [TypeRange] and [TypeVersion] resolve against registry metadata.
//
// [Split] turns a batch string such as "vite@5+nuxt@latest" into its
// individual segments.
package spec
