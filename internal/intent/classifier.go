package intent

import (
	"strings"
)

// Classifier maps a free-text message to an intent plus extracted slots.
//
// Classify is a pure function over its input and the static rule table,
// so a single Classifier is safe for concurrent use.
type Classifier struct{}

// NewClassifier returns a Classifier backed by the package rule table.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify normalizes the message, selects the first matching rule in
// table order, and extracts slots from the keyword vocabulary.
//
// Malformed input is a normal outcome, not an error: empty or
// whitespace-only messages classify as Unknown with an empty SlotSet.
func (c *Classifier) Classify(message string) Result {
	normalized := normalize(message)
	if normalized == "" {
		return Result{Intent: Unknown, Slots: NewSlotSet()}
	}

	selected := Unknown
	for _, r := range ruleTable {
		if matchesAny(normalized, r) {
			selected = r.intent
			break
		}
	}

	return Result{Intent: selected, Slots: extractSlots(normalized)}
}

// normalize case-folds and trims the message.
func normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// matchesAny reports whether at least one of the rule's expressions
// matches. Multiple matches within a rule do not re-rank anything.
func matchesAny(normalized string, r rule) bool {
	for _, p := range r.patterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

// extractSlots scans the vocabulary tables and populates a SlotSet.
// Extraction is best-effort: slots that find nothing stay absent and the
// renderer applies documented defaults.
func extractSlots(normalized string) *SlotSet {
	slots := NewSlotSet()

	if pt := deriveProjectType(normalized); pt != "" {
		slots.Add(SlotProjectType, pt)
	}
	for _, entry := range frameworkVocab {
		for _, alias := range entry.aliases {
			if matchesWord(normalized, alias) {
				slots.Add(SlotFramework, entry.canonical)
				break
			}
		}
	}
	for _, entry := range technologyVocab {
		for _, alias := range entry.aliases {
			if matchesWord(normalized, alias) {
				slots.Add(SlotTechnology, entry.canonical)
				break
			}
		}
	}

	return slots
}

// deriveProjectType walks the category table in precedence order and
// returns the first category with a keyword hit, or "" when none match.
func deriveProjectType(normalized string) string {
	for _, pt := range projectTypeTable {
		for _, kw := range pt.keywords {
			if matchesWord(normalized, kw) {
				return pt.projectType
			}
		}
	}
	return ""
}
