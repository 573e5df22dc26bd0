package rules

import (
	"github.com/temirov/dirtree/internal/types"
)

// RuleSet is an ordered list of filter rules. Insertion order is preserved and duplicate
// patterns are allowed. A RuleSet is not safe for concurrent mutation; sessions evaluate a
// Snapshot.
type RuleSet struct {
	rules []types.FilterRule
}

// NewRuleSet returns a RuleSet holding a copy of the provided rules.
func NewRuleSet(filterRules ...types.FilterRule) *RuleSet {
	ruleSet := &RuleSet{}
	ruleSet.rules = append(ruleSet.rules, filterRules...)
	return ruleSet
}

// Add appends an enabled rule built from its parts.
func (ruleSet *RuleSet) Add(pattern string, matchKind types.MatchKind, mode types.RuleMode) {
	ruleSet.AddRule(types.NewFilterRule(pattern, matchKind, mode))
}

// AddRule appends rule to the end of the set.
func (ruleSet *RuleSet) AddRule(rule types.FilterRule) {
	ruleSet.rules = append(ruleSet.rules, rule)
}

// Remove deletes the rule at index and reports whether the index was valid.
func (ruleSet *RuleSet) Remove(index int) bool {
	if index < 0 || index >= len(ruleSet.rules) {
		return false
	}
	ruleSet.rules = append(ruleSet.rules[:index], ruleSet.rules[index+1:]...)
	return true
}

// SetEnabled toggles the rule at index and reports whether the index was valid.
func (ruleSet *RuleSet) SetEnabled(index int, enabled bool) bool {
	if index < 0 || index >= len(ruleSet.rules) {
		return false
	}
	ruleSet.rules[index].Enabled = enabled
	return true
}

// Clear removes every rule.
func (ruleSet *RuleSet) Clear() {
	ruleSet.rules = nil
}

// Len returns the number of rules, enabled or not.
func (ruleSet *RuleSet) Len() int {
	if ruleSet == nil {
		return 0
	}
	return len(ruleSet.rules)
}

// Rules returns a copy of the rules in order.
func (ruleSet *RuleSet) Rules() []types.FilterRule {
	if ruleSet == nil || len(ruleSet.rules) == 0 {
		return nil
	}
	copied := make([]types.FilterRule, len(ruleSet.rules))
	copy(copied, ruleSet.rules)
	return copied
}

// Snapshot returns an independent RuleSet that does not observe later edits of the receiver.
func (ruleSet *RuleSet) Snapshot() *RuleSet {
	return NewRuleSet(ruleSet.Rules()...)
}

// Append adds every rule of other after the receiver's rules.
func (ruleSet *RuleSet) Append(other *RuleSet) {
	ruleSet.rules = append(ruleSet.rules, other.Rules()...)
}

func (ruleSet *RuleSet) enabledRules(mode types.RuleMode) []types.FilterRule {
	var selected []types.FilterRule
	for _, rule := range ruleSet.rules {
		if rule.Enabled && rule.Mode == mode {
			selected = append(selected, rule)
		}
	}
	return selected
}
