package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/boxwind/pkg/convert"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*convert.RuleTable)
)

// Register adds a built-in rule table, keyed by its tag.
// Called by table definitions in their init() functions.
func Register(t *convert.RuleTable) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t.Name()] = t
}

// Get returns the built-in table for a tag.
func Get(tag string) (*convert.RuleTable, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[tag]
	return t, ok
}

// List returns the tags of all built-in tables (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a Set with every built-in table, in tag order.
func Builtin() *Set {
	s := &Set{}
	for _, tag := range List() {
		t, _ := Get(tag)
		s.Put(t)
	}
	return s
}

// UnknownTableError is returned when a tag has no rule table.
type UnknownTableError struct {
	Tag       string
	Available []string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("no rule table for <%s>\nAvailable tables: %v\nHint: add one with --rules-file", e.Tag, e.Available)
}

// Set is the collection of rule tables used for one run, ordered by
// insertion.
type Set struct {
	tables []*convert.RuleTable
}

// NewSet returns a set holding tables. Later tables replace earlier ones
// with the same tag.
func NewSet(tables ...*convert.RuleTable) *Set {
	s := &Set{}
	for _, t := range tables {
		s.Put(t)
	}
	return s
}

// Put adds t, replacing any table for the same tag in place. It reports
// whether a table was replaced.
func (s *Set) Put(t *convert.RuleTable) bool {
	for i, have := range s.tables {
		if have.Name() == t.Name() {
			s.tables[i] = t
			return true
		}
	}
	s.tables = append(s.tables, t)
	return false
}

// Get returns the table for tag.
func (s *Set) Get(tag string) (*convert.RuleTable, bool) {
	for _, t := range s.tables {
		if t.Name() == tag {
			return t, true
		}
	}
	return nil, false
}

// Tables returns the tables in set order.
func (s *Set) Tables() []*convert.RuleTable {
	return append([]*convert.RuleTable(nil), s.tables...)
}

// Tags returns the tags in set order.
func (s *Set) Tags() []string {
	tags := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		tags = append(tags, t.Name())
	}
	return tags
}

// Len returns the number of tables.
func (s *Set) Len() int { return len(s.tables) }

// Only returns the subset for tags, in the order given. An empty list
// returns the whole set.
func (s *Set) Only(tags []string) (*Set, error) {
	if len(tags) == 0 {
		return NewSet(s.tables...), nil
	}
	out := &Set{}
	for _, tag := range tags {
		t, ok := s.Get(tag)
		if !ok {
			return nil, &UnknownTableError{Tag: tag, Available: s.Tags()}
		}
		out.Put(t)
	}
	return out, nil
}
