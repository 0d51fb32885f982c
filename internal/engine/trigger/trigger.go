// Package trigger decides when a task has received enough fresh device state to run.
package trigger

import (
	"cmp"
	"slices"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/zerr"
)

// Rule indexes returned by RecordUpdate besides the explicit rule positions.
const (
	// NoRule means the update did not fire.
	NoRule = -1
	// InitialRule is the one-off fire when every input has reported for the first time.
	InitialRule = -2
	// AllInputsRule is the implicit rule requiring every input to refresh.
	AllInputsRule = -3
)

type set map[domain.InternedString]struct{}

func (s set) containsAll(other set) bool {
	for dev := range other {
		if _, ok := s[dev]; !ok {
			return false
		}
	}
	return true
}

type rule struct {
	id       string
	priority int
	devices  set
	enabled  bool
}

// Manager tracks which inputs of one task refreshed since its last fire and matches them
// against the task's rules. It is not safe for concurrent use; the owning box serializes access.
type Manager struct {
	inputs set
	seen   set
	live   set
	armed  bool
	rules  []rule
}

// NewManager creates a manager over the task's non-virtual inputs. Explicit rules are
// evaluated by descending priority, keeping configuration order among equals.
func NewManager(inputs []domain.InternedString, rules []domain.TriggerRule) *Manager {
	m := &Manager{
		inputs: make(set, len(inputs)),
		seen:   make(set, len(inputs)),
		live:   make(set, len(inputs)),
	}
	for _, dev := range inputs {
		m.inputs[dev] = struct{}{}
	}

	for _, r := range rules {
		devices := make(set, len(r.Devices))
		for _, dev := range r.Devices {
			devices[dev] = struct{}{}
		}
		m.rules = append(m.rules, rule{id: r.ID, priority: r.Priority, devices: devices, enabled: true})
	}
	slices.SortStableFunc(m.rules, func(a, b rule) int {
		return cmp.Compare(b.priority, a.priority)
	})

	return m
}

// RecordUpdate notes a fresh value for dev and reports whether the task fires, and on which rule.
// Nothing fires until every input has reported once; the update completing that set fires InitialRule.
func (m *Manager) RecordUpdate(dev domain.InternedString) (bool, int) {
	if _, ok := m.inputs[dev]; !ok {
		return false, NoRule
	}

	if !m.armed {
		m.seen[dev] = struct{}{}
		if len(m.seen) < len(m.inputs) {
			return false, NoRule
		}
		m.armed = true
		clear(m.seen)
		return true, InitialRule
	}

	m.live[dev] = struct{}{}
	for i, r := range m.rules {
		if r.enabled && m.live.containsAll(r.devices) {
			clear(m.live)
			return true, i
		}
	}
	if len(m.live) == len(m.inputs) {
		clear(m.live)
		return true, AllInputsRule
	}
	return false, NoRule
}

// Touch marks dev as refreshed without evaluating the rules.
func (m *Manager) Touch(dev domain.InternedString) {
	if _, ok := m.inputs[dev]; ok && m.armed {
		m.live[dev] = struct{}{}
	}
}

// Armed reports whether every input has reported at least once.
func (m *Manager) Armed() bool {
	return m.armed
}

// Enable turns the rule with the given id back on.
func (m *Manager) Enable(id string) error {
	return m.setEnabled(id, true)
}

// Disable stops the rule with the given id from firing.
func (m *Manager) Disable(id string) error {
	return m.setEnabled(id, false)
}

func (m *Manager) setEnabled(id string, enabled bool) error {
	i := slices.IndexFunc(m.rules, func(r rule) bool { return r.id == id })
	if i < 0 {
		return zerr.With(domain.ErrTriggerNotFound, "trigger", id)
	}
	m.rules[i].enabled = enabled
	return nil
}

// Rule returns the id and priority of a rule index reported by RecordUpdate.
func (m *Manager) Rule(i int) (string, int) {
	switch {
	case i == InitialRule:
		return domain.InitialTriggerID, domain.DefaultTriggerPriority
	case i == AllInputsRule:
		return domain.AllInputsTriggerID, domain.DefaultTriggerPriority
	case i >= 0 && i < len(m.rules):
		return m.rules[i].id, m.rules[i].priority
	default:
		return "", 0
	}
}
