// Package pbvar provides bidirectional interning between textual
// pseudo-Boolean variable names and dense, 1-based integer ids.
package pbvar

import "strings"

// ID identifies a variable by a dense, 1-based integer. The zero value is
// never assigned to a variable and can be used as an "invalid id" sentinel.
type ID uint32

// NegationToken prefixes the textual form of a negated literal.
const NegationToken = '~'

// Manager interns variable names to ids and back. It is append-only: once a
// name has been interned its id is stable for the lifetime of the Manager.
// Manager is not safe for concurrent use; see the package-level concurrency
// note on proof.Manager for why that's acceptable here.
type Manager struct {
	byName []nameEntry
	ids    map[string]ID
}

type nameEntry struct {
	name string
}

// NewManager returns an empty variable manager.
func NewManager() *Manager {
	return &Manager{ids: make(map[string]ID)}
}

// Intern returns the id for a variable name, assigning a fresh id the first
// time a given name is seen.
func (m *Manager) Intern(name string) ID {
	if id, ok := m.ids[name]; ok {
		return id
	}

	id := ID(len(m.byName) + 1)
	m.byName = append(m.byName, nameEntry{name})
	m.ids[name] = id

	return id
}

// Lookup returns the id already assigned to name, if any.
func (m *Manager) Lookup(name string) (ID, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// Name returns the textual name for a previously interned id. Panics if id
// was never interned, since that indicates a bug in a caller.
func (m *Manager) Name(id ID) string {
	if id == 0 || int(id) > len(m.byName) {
		panic("pbvar: unknown variable id")
	}

	return m.byName[id-1].name
}

// Len returns the number of distinct variables interned so far.
func (m *Manager) Len() int {
	return len(m.byName)
}

// ParseLiteral splits a textual literal into its variable name and polarity.
// A leading NegationToken marks the literal negated; the remainder is the
// variable name.
func ParseLiteral(token string) (name string, neg bool) {
	if strings.HasPrefix(token, string(NegationToken)) {
		return token[1:], true
	}

	return token, false
}

// RenderLiteral renders a variable id's name together with its polarity,
// e.g. "x" or "~x".
func (m *Manager) RenderLiteral(id ID, neg bool) string {
	if neg {
		return string(NegationToken) + m.Name(id)
	}

	return m.Name(id)
}

// InternLiteral interns the variable named by a textual literal token and
// returns its id and polarity in one step.
func (m *Manager) InternLiteral(token string) (ID, bool) {
	name, neg := ParseLiteral(token)
	return m.Intern(name), neg
}
