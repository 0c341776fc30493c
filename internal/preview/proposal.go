package preview

import (
	"encoding/json"
	"fmt"
)

// Proposal is a set of suggested edits to one file, as delivered by an assistant or
// refactoring tool.
type Proposal struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Hunks []Hunk `json:"hunks"`
}

// Hunk is one suggested replacement. FromLine and ToLine are 1-based inclusive lines of
// the current file; ToLine < FromLine inserts before FromLine. Either a line range or
// OldText must be present.
type Hunk struct {
	ID       string `json:"id"`
	FromLine int    `json:"from_line"`
	ToLine   int    `json:"to_line"`
	OldText  string `json:"old_text"`
	NewText  string `json:"new_text"`
}

func ParseProposal(data []byte) (Proposal, error) {
	var p Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return Proposal{}, fmt.Errorf("decode proposal: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

// Validate checks hunk ids are unique and every hunk can be located.
func (p Proposal) Validate() error {
	seen := map[string]bool{}
	for i, h := range p.Hunks {
		id := p.hunkID(i)
		if seen[id] {
			return fmt.Errorf("proposal %q: duplicate hunk id %q", p.ID, id)
		}
		seen[id] = true
		if h.FromLine < 0 || h.ToLine < 0 {
			return fmt.Errorf("proposal %q: hunk %q: negative line", p.ID, id)
		}
		if h.FromLine == 0 && h.OldText == "" {
			return fmt.Errorf("proposal %q: hunk %q: needs from_line or old_text", p.ID, id)
		}
	}
	return nil
}

func (p Proposal) hunkID(i int) string {
	if id := p.Hunks[i].ID; id != "" {
		return id
	}
	return unitID(p.ID, i)
}

func unitID(prefix string, i int) string {
	if prefix == "" {
		prefix = "hunk"
	}
	return fmt.Sprintf("%s#%d", prefix, i+1)
}
