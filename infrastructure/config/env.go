package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/arrange-go/domain/config"
)

// envPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)

// envExpander expands environment references in configuration text.
// Bare $VAR references are left alone so that secrets and URLs containing
// a dollar sign survive loading.
type envExpander struct {
	// strict fails on unset variables without a default.
	strict bool
	// lookup reads a variable. Defaults to os.LookupEnv.
	lookup func(string) (string, bool)
}

// Expand replaces every reference in input.
func (e *envExpander) Expand(input string) (string, error) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	result := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		name, modifier := groups[1], groups[2]
		value, ok := lookup(name)

		switch {
		case strings.HasPrefix(modifier, ":-"):
			if !ok || value == "" {
				return modifier[2:]
			}
		case strings.HasPrefix(modifier, ":?"):
			if !ok || value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, modifier[2:]))
				return match
			}
		case !ok:
			if e.strict {
				missing = append(missing, name)
			}
			return ""
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands references, replacing unset variables with "".
// Required references that are unset are left in place.
func ExpandEnv(input string) string {
	e := &envExpander{}
	result, err := e.Expand(input)
	if err != nil {
		return input
	}
	return result
}

// ExpandEnvStrict expands references and reports unset variables.
func ExpandEnvStrict(input string) (string, error) {
	e := &envExpander{strict: true}
	return e.Expand(input)
}
