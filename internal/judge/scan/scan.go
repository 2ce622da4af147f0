// Package scan implements the textual pre-checks run over submitted source
// before anything is compiled or executed.
package scan

import (
	"fmt"
	"strings"
)

// Scanner reports whether source is allowed to proceed.
type Scanner interface {
	Allow(source string) bool
}

// Func adapts a plain function to Scanner.
type Func func(source string) bool

// Allow implements Scanner.
func (f Func) Allow(source string) bool { return f(source) }

// AllowAll is the default policy.
var AllowAll Scanner = Func(func(string) bool { return true })

// ForbiddenToken rejects source containing any of the tokens verbatim.
type ForbiddenToken struct {
	Tokens []string
}

// Allow implements Scanner.
func (s ForbiddenToken) Allow(source string) bool {
	for _, tok := range s.Tokens {
		if tok != "" && strings.Contains(source, tok) {
			return false
		}
	}
	return true
}

// ImportAllowList requires every line mentioning the import keyword to name
// at least one allowed module among its whitespace separated tokens.
type ImportAllowList struct {
	Keyword string
	Modules map[string]struct{}
}

// Allow implements Scanner.
func (s ImportAllowList) Allow(source string) bool {
	keyword := s.Keyword
	if keyword == "" {
		keyword = "import"
	}
	for _, line := range strings.Split(source, "\n") {
		if !strings.Contains(line, keyword) {
			continue
		}
		if !s.hasAllowedToken(line) {
			return false
		}
	}
	return true
}

func (s ImportAllowList) hasAllowedToken(line string) bool {
	for _, word := range strings.Fields(line) {
		if _, ok := s.Modules[word]; ok {
			return true
		}
	}
	return false
}

// QuotedPackageDenyList rejects source that references a denied package by
// its quoted import path, e.g. "os".
type QuotedPackageDenyList struct {
	Packages []string
}

// Allow implements Scanner.
func (s QuotedPackageDenyList) Allow(source string) bool {
	for _, pkg := range s.Packages {
		if strings.Contains(source, fmt.Sprintf("%q", pkg)) {
			return false
		}
	}
	return true
}

// PythonModules is the module allow-list for Python submissions.
var PythonModules = []string{
	"re", "sys", "string", "scanf", "math", "cmath", "decimal", "numbers",
	"fractions", "random", "itertools", "functools", "operator", "readline",
	"json", "array", "sets", "queue", "types",
}

// PythonModuleSet returns PythonModules as a lookup set.
func PythonModuleSet() map[string]struct{} {
	modules := make(map[string]struct{}, len(PythonModules))
	for _, m := range PythonModules {
		modules[m] = struct{}{}
	}
	return modules
}

// GoPackages is the package deny-list for Go submissions.
var GoPackages = []string{
	"os", "path", "net", "sql", "syslog", "http", "mail", "rpc", "smtp", "exec", "user",
}

// Policy names accepted in language configuration.
const (
	PolicyAllow        = "allow"
	PolicyShellEscape  = "shell-escape"
	PolicyPythonImport = "python-import"
	PolicyGoPackage    = "go-package"
)

// ForPolicy builds the scanner registered under name.
func ForPolicy(name string) (Scanner, error) {
	switch name {
	case "", PolicyAllow:
		return AllowAll, nil
	case PolicyShellEscape:
		return ForbiddenToken{Tokens: []string{"system"}}, nil
	case PolicyPythonImport:
		return ImportAllowList{Keyword: "import", Modules: PythonModuleSet()}, nil
	case PolicyGoPackage:
		return QuotedPackageDenyList{Packages: GoPackages}, nil
	default:
		return nil, fmt.Errorf("unknown scan policy %q", name)
	}
}
