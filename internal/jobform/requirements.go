package jobform

import "strings"

// RequirementPolicy protects the notice period item.
var RequirementPolicy = Policy[RequirementItem]{
	Reserved: RequirementItem.IsNoticePeriod,
	Seed: func() RequirementItem {
		return RequirementItem{Requirement: NoticePeriodKey}
	},
}

// NewRequirements returns a requirements collection holding only the seeded
// notice period item.
func NewRequirements() *Collection[RequirementItem] {
	return NewCollection(RequirementPolicy)
}

// LoadRequirements builds a requirements collection from persisted items,
// migrating legacy labels before the notice period is checked so a legacy
// "Notice Period" row is never duplicated by the seed.
func LoadRequirements(entries []Entry[RequirementItem]) *Collection[RequirementItem] {
	c := &Collection[RequirementItem]{policy: RequirementPolicy}
	c.Load(MigrateRequirementLabels(entries))
	return c
}

// MigrateRequirementLabels moves a legacy free-form label into the typed
// requirement field. Migrated persisted rows are tagged update so the server
// stores the typed name. Rows that already carry a requirement are left alone.
func MigrateRequirementLabels(entries []Entry[RequirementItem]) []Entry[RequirementItem] {
	out := make([]Entry[RequirementItem], len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Value.Requirement) == "" && strings.TrimSpace(e.Value.Label) != "" {
			e.Value.Requirement = NormalizeRequirementName(e.Value.Label)
			e.Value.Label = ""
			if e.Persisted() && e.Tag == TagNone {
				e.Tag = TagUpdate
			}
		}
		out[i] = e
	}
	return out
}
