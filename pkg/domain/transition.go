package domain

import "sort"

// Next defines how a form is left in the forward direction.
//
// A fixed transition only sets Default. A conditional transition sets QuestionID and
// Cases, mapping the option id selected for that question to a target form id; Default
// is then the fallback used when no case matches.
type Next struct {
	Default    string            `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	QuestionID string            `json:"question,omitempty" yaml:"question,omitempty" mapstructure:"question"`
	Cases      map[string]string `json:"cases,omitempty" yaml:"cases,omitempty" mapstructure:"cases"`
}

// To returns a fixed transition to the target form.
func To(formID string) *Next {
	return &Next{Default: formID}
}

// IsConditional reports whether the transition depends on an answer.
func (n *Next) IsConditional() bool {
	return n != nil && (n.QuestionID != "" || len(n.Cases) > 0)
}

// Targets lists every form id this rule can lead to, fallback first.
func (n *Next) Targets() []string {
	if n == nil {
		return nil
	}
	targets := make([]string, 0, len(n.Cases)+1)
	if n.Default != "" {
		targets = append(targets, n.Default)
	}
	for _, key := range sortedKeys(n.Cases) {
		targets = append(targets, n.Cases[key])
	}
	return targets
}

// SortedCases returns the conditional case keys in deterministic order.
func (n *Next) SortedCases() []string {
	if n == nil {
		return nil
	}
	return sortedKeys(n.Cases)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
