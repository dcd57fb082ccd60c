package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is a prompt with {{variable}} placeholders.
type Template struct {
	name string
	text string
	vars []string
}

func New(name, text string) *Template {
	return &Template{name: name, text: text, vars: ExtractVariables(text)}
}

func (t *Template) Name() string { return t.name }

// Variables lists placeholder names in order of first appearance.
func (t *Template) Variables() []string { return append([]string(nil), t.vars...) }

// Render fails when any placeholder has no value. Values are inserted
// verbatim, so placeholders inside values are not expanded.
func (t *Template) Render(vars map[string]string) (string, error) {
	var missing []string
	for _, v := range t.vars {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("render %s: missing template variables: %s", t.name, strings.Join(missing, ", "))
	}

	return variablePattern.ReplaceAllStringFunc(t.text, func(match string) string {
		return vars[match[2:len(match)-2]]
	}), nil
}

// ExtractVariables returns a list of variable names found in the template.
func ExtractVariables(template string) []string {
	matches := variablePattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		if len(m) > 1 && !seen[m[1]] {
			vars = append(vars, m[1])
			seen[m[1]] = true
		}
	}
	return vars
}
