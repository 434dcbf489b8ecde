package providers

import "strings"

// Rule is a pronunciation or glossary substitution applied to request text
// before it is sent to a backend. An empty Provider applies the rule to all
// providers; otherwise it is scoped to the named one.
type Rule struct {
	Match    string
	Replace  string
	Provider string
}

// AppliesTo reports whether the rule is active for the named provider.
func (r Rule) AppliesTo(provider string) bool {
	return r.Provider == "" || r.Provider == provider
}

// ApplyRules runs every rule scoped to the named provider over text, in order.
// Rules with an empty Match are skipped.
func ApplyRules(text, provider string, rules []Rule) string {
	for _, r := range rules {
		if r.Match == "" || !r.AppliesTo(provider) {
			continue
		}
		text = strings.ReplaceAll(text, r.Match, r.Replace)
	}
	return text
}
