// Package outline round-trips the structure section list through YAML
// so users can edit it in a real editor and feed it back into the
// structure step.
package outline

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CheatB/zachot-sub000/internal/form"
)

type Entry struct {
	Title string `yaml:"title"`
	Level int    `yaml:"level"`
}

type Outline struct {
	Topic    string  `yaml:"topic,omitempty"`
	Sections []Entry `yaml:"sections"`
}

// Export renders the form's outline as YAML.
func Export(f form.Form) ([]byte, error) {
	out := Outline{Topic: f.Topic}
	for _, s := range f.Structure {
		out.Sections = append(out.Sections, Entry{Title: s.Title, Level: s.Level})
	}
	return yaml.Marshal(out)
}

// Import parses an edited outline back into sections. Ids are left
// blank; the form assigns fresh ones on merge.
func Import(raw []byte) ([]form.Section, error) {
	var in Outline
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse outline: %w", err)
	}
	var sections []form.Section
	for i, e := range in.Sections {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			return nil, fmt.Errorf("section %d: empty title", i+1)
		}
		if e.Level < 0 {
			e.Level = 0
		}
		sections = append(sections, form.Section{Title: title, Level: e.Level})
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("outline has no sections")
	}
	return sections, nil
}
