package provision

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"al.essio.dev/pkg/shellescape"

	"github.com/pidev-project/pidev/pkg/models"
)

// Remote scripts are POSIX sh assembled from templates with named
// placeholders of the form @{name}. Every substituted value is shell-quoted
// at render time, so templates place placeholders where a single quoted
// word is valid. exit 0/1 is the sole success signal.
type ScriptTemplate struct {
	body string
}

var placeholderPattern = regexp.MustCompile(`@\{([A-Za-z][A-Za-z0-9_]*)\}`)

// NewScriptTemplate wraps a script body containing @{name} placeholders.
func NewScriptTemplate(body string) ScriptTemplate {
	return ScriptTemplate{body: body}
}

// Render substitutes every placeholder with its shell-quoted value. It
// fails on unknown placeholders and on unused variables, so templates and
// call sites cannot drift apart silently.
func (t ScriptTemplate) Render(vars map[string]string) (string, error) {
	used := make(map[string]bool, len(vars))

	var renderErr error
	rendered := placeholderPattern.ReplaceAllStringFunc(t.body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			if renderErr == nil {
				renderErr = fmt.Errorf("script references undefined placeholder %q", name)
			}
			return match
		}
		used[name] = true
		return shellescape.Quote(value)
	})
	if renderErr != nil {
		return "", renderErr
	}

	for name := range vars {
		if !used[name] {
			return "", fmt.Errorf("script does not use variable %q", name)
		}
	}
	return rendered, nil
}

// ValidateName rejects identifiers that would be unsafe to interpolate
// into a remote script even quoted: embedded whitespace, quote characters,
// shell metacharacters and path traversal. Program and assembly names pass
// through here before any remote command is issued.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", models.ErrInvalidName)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", models.ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", models.ErrInvalidName, name)
		}
		if strings.ContainsRune("'\"`$&|;<>(){}*?!~#", r) {
			return fmt.Errorf("%w: %q", models.ErrInvalidName, name)
		}
	}
	return nil
}
