package spec

import (
	"reflect"
	"testing"

	"github.com/matzehuels/npmmeta/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw       string
		name      string
		typ       Type
		fetchSpec string
	}{
		{"vite", "vite", TypeRange, "*"},
		{"vite@", "vite", TypeRange, "*"},
		{"vite@latest", "vite", TypeTag, "latest"},
		{"vite@next", "vite", TypeTag, "next"},
		{"vite@^5", "vite", TypeRange, "^5"},
		{"vite@5.x", "vite", TypeRange, "5.x"},
		{"vite@>=4 <6", "vite", TypeRange, ">=4 <6"},
		{"vite@^4 || ^5", "vite", TypeRange, "^4 || ^5"},
		{"vite@*", "vite", TypeRange, "*"},
		{"vite@5.0.2", "vite", TypeVersion, "5.0.2"},
		{"vite@v5.0.2", "vite", TypeVersion, "5.0.2"},
		{"vite@5.0.0-beta.1", "vite", TypeVersion, "5.0.0-beta.1"},
		{"@nuxt/kit", "@nuxt/kit", TypeRange, "*"},
		{"@nuxt/kit@3", "@nuxt/kit", TypeRange, "3"},
		{"@nuxt/kit@3.8.0", "@nuxt/kit", TypeVersion, "3.8.0"},
		{"@nuxt/kit@rc", "@nuxt/kit", TypeTag, "rc"},
		{"  vite@5  ", "vite", TypeRange, "5"},
		{"JSONStream", "JSONStream", TypeRange, "*"},
		{"foo@npm:bar@1", "foo", TypeAlias, "npm:bar@1"},
		{"foo@file:../foo.tgz", "foo", TypeFile, "file:../foo.tgz"},
		{"foo@./local", "foo", TypeDirectory, "./local"},
		{"foo@github:user/foo", "foo", TypeGit, "github:user/foo"},
		{"foo@user/foo#main", "foo", TypeGit, "user/foo#main"},
		{"foo@git+https://github.com/user/foo.git", "foo", TypeGit, "git+https://github.com/user/foo.git"},
		{"foo@https://example.com/foo.tgz", "foo", TypeRemote, "https://example.com/foo.tgz"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Name != tt.name || got.Type != tt.typ || got.FetchSpec != tt.fetchSpec {
				t.Errorf("Parse(%q) = {%q %q %q}, want {%q %q %q}",
					tt.raw, got.Name, got.Type, got.FetchSpec, tt.name, tt.typ, tt.fetchSpec)
			}
			if got.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.raw)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"not a valid name!!",
		".hidden",
		"_private",
		"node_modules",
		"favicon.ico",
		"@/pkg",
		"@scope/",
		"vite@some tag",
		"./local-dir",
		"github:user/repo",
		"user/repo",
		"https://example.com/pkg.tgz",
		"foo/../bar",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", raw)
			}
			if !errors.Is(err, errors.ErrCodeInvalidSpecifier) {
				t.Errorf("Parse(%q) code = %v, want %v", raw, errors.GetCode(err), errors.ErrCodeInvalidSpecifier)
			}
		})
	}
}

func TestTypeRegistry(t *testing.T) {
	for _, typ := range []Type{TypeTag, TypeRange, TypeVersion} {
		if !typ.Registry() {
			t.Errorf("%s.Registry() = false, want true", typ)
		}
	}
	for _, typ := range []Type{TypeAlias, TypeFile, TypeDirectory, TypeGit, TypeRemote} {
		if typ.Registry() {
			t.Errorf("%s.Registry() = true, want false", typ)
		}
	}
}

func TestParsedString(t *testing.T) {
	p, err := Parse("@nuxt/kit")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.String(); got != "@nuxt/kit@*" {
		t.Errorf("String() = %q, want %q", got, "@nuxt/kit@*")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"vite", []string{"vite"}},
		{"vite@5+nuxt@latest", []string{"vite@5", "nuxt@latest"}},
		{"vite@5%2Bnuxt@latest", []string{"vite@5", "nuxt@latest"}},
		{"vite@5%2bnuxt@latest", []string{"vite@5", "nuxt@latest"}},
		{"vite@5 nuxt@latest", []string{"vite@5", "nuxt@latest"}},
		{"vite@5++nuxt", []string{"vite@5", "nuxt"}},
		{"+vite+", []string{"vite"}},
		{"vite@>=4 <6+nuxt", []string{"vite@>=4 <6", "nuxt"}},
		{"vite@2+not a valid name!!+nuxt@3", []string{"vite@2", "not a valid name!!", "nuxt@3"}},
		{"vite@>=1 <2", []string{"vite@>=1 <2"}},
		{"vite@1 - 2 nuxt@3", []string{"vite@1 - 2", "nuxt@3"}},
		{"vite@1.x || 2.x", []string{"vite@1.x || 2.x"}},
		{"vite@5 vue@3+nuxt@3", []string{"vite@5", "vue@3", "nuxt@3"}},
		{"vite@5 @nuxt/kit@3", []string{"vite@5", "@nuxt/kit@3"}},
		{"", nil},
		{" + ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Split(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
