// Package index builds the in-memory athlete name lookup used by the
// matcher. Rosters are small (hundreds of names), so one compiled pattern
// per name is acceptable; a multi-pattern automaton would replace this at
// larger scale.
package index

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
)

// Entry couples a normalized athlete name with its identifier and the
// compiled whole-word pattern used by the exact pass.
type Entry struct {
	Name    string
	ID      string
	Pattern *regexp.Regexp
}

// Index maps lowercased athlete names to identifiers.
type Index struct {
	byName  map[string]string
	entries []Entry
}

// Build constructs a fresh index from the roster. Athletes with a blank ID
// are excluded. When two athletes share a lowercased name the later entry
// wins; collisions are logged so the ambiguity stays visible.
func Build(athletes []domain.Athlete, logger *slog.Logger) *Index {
	idx := &Index{byName: make(map[string]string, len(athletes))}

	for _, athlete := range athletes {
		if athlete.ID == "" {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(athlete.Name))
		if name == "" {
			continue
		}

		if prev, ok := idx.byName[name]; ok && prev != athlete.ID {
			if logger != nil {
				logger.Warn("athlete name collision, keeping later entry",
					"name", name, "kept", athlete.ID, "dropped", prev)
			}
		}
		idx.byName[name] = athlete.ID
	}

	idx.entries = make([]Entry, 0, len(idx.byName))
	for name, id := range idx.byName {
		idx.entries = append(idx.entries, Entry{
			Name:    name,
			ID:      id,
			Pattern: wholeWordPattern(name),
		})
	}

	return idx
}

// Lookup resolves a lowercased name to an athlete ID.
func (i *Index) Lookup(name string) (string, bool) {
	if i == nil {
		return "", false
	}
	id, ok := i.byName[strings.ToLower(name)]
	return id, ok
}

// Entries returns all index entries. Iteration order is unspecified.
func (i *Index) Entries() []Entry {
	if i == nil {
		return nil
	}
	return i.entries
}

// Len reports the number of distinct names in the index.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byName)
}

func wholeWordPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}
