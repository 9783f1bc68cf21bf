package workspace

import (
	"fmt"
	"os"
	"regexp"
)

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

// ResolveSecrets replaces secret references in the connection's credential
// fields with their resolved values. Plain values pass through untouched.
func (c *Connection) ResolveSecrets() error {
	var err error
	if c.Password, err = resolveValue(c.Password); err != nil {
		return fmt.Errorf("connection password: %w", err)
	}
	if c.DSN, err = resolveValue(c.DSN); err != nil {
		return fmt.Errorf("connection dsn: %w", err)
	}
	return nil
}

// resolveValue substitutes every secret reference inside val in place, so a
// DSN may mix plain text and references. A value without references passes
// through untouched.
func resolveValue(val string) (string, error) {
	var firstErr error
	out := secretPattern.ReplaceAllStringFunc(val, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := secretPattern.FindStringSubmatch(match)
		resolved, err := resolveRef(sub[1], sub[2])
		if err != nil {
			firstErr = err
			return match
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func resolveRef(provider, ref string) (string, error) {
	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}
