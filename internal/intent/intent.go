// Package intent classifies free-text user messages into a closed set of
// intents and extracts slot values from a versioned keyword vocabulary.
//
// Classification is deliberately simple: an ordered table of pattern rules
// is scanned top to bottom and the first rule with at least one matching
// expression wins. There is no scoring and no tie-break beyond table order.
// Slot extraction runs after intent selection and is independent of which
// rule won.
package intent

// Intent is the discrete purpose category assigned to a user message.
type Intent string

const (
	// ProjectPlanning covers requests to build or plan a new project.
	ProjectPlanning Intent = "project_planning"
	// AgentTeamRequest covers requests to assemble specialized agents.
	AgentTeamRequest Intent = "agent_team_request"
	// StatusQuery covers questions about current progress or state.
	StatusQuery Intent = "status_query"
	// Unknown is the catch-all when no pattern matches.
	Unknown Intent = "unknown"
)

// All returns every valid intent, including Unknown. Used by the template
// registry to verify total coverage at startup.
func All() []Intent {
	return []Intent{ProjectPlanning, AgentTeamRequest, StatusQuery, Unknown}
}

// Valid reports whether i is a member of the closed intent set.
func (i Intent) Valid() bool {
	switch i {
	case ProjectPlanning, AgentTeamRequest, StatusQuery, Unknown:
		return true
	}
	return false
}

// Slot names populated by the classifier.
const (
	SlotProjectType = "project_type"
	SlotFramework   = "framework"
	SlotTechnology  = "technology"
)

// SlotSet maps slot names to extracted values. Values are deduplicated and
// both slot names and values preserve insertion order.
type SlotSet struct {
	names  []string
	values map[string][]string
}

// NewSlotSet returns an empty SlotSet.
func NewSlotSet() *SlotSet {
	return &SlotSet{values: make(map[string][]string)}
}

// Add appends value under name, ignoring duplicates.
func (s *SlotSet) Add(name, value string) {
	if name == "" || value == "" {
		return
	}
	existing, ok := s.values[name]
	if !ok {
		s.names = append(s.names, name)
	}
	for _, v := range existing {
		if v == value {
			return
		}
	}
	s.values[name] = append(existing, value)
}

// Get returns all values for name in insertion order, or nil if absent.
func (s *SlotSet) Get(name string) []string {
	return s.values[name]
}

// First returns the first value for name, or "" if absent.
func (s *SlotSet) First(name string) string {
	if vs := s.values[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Names returns the slot names in insertion order.
func (s *SlotSet) Names() []string {
	return s.names
}

// Len returns the number of populated slots.
func (s *SlotSet) Len() int {
	return len(s.names)
}

// Map returns a copy of the slot set for serialization.
func (s *SlotSet) Map() map[string][]string {
	out := make(map[string][]string, len(s.names))
	for _, name := range s.names {
		out[name] = append([]string(nil), s.values[name]...)
	}
	return out
}

// Result pairs the selected intent with the extracted slots.
type Result struct {
	Intent Intent
	Slots  *SlotSet
}
