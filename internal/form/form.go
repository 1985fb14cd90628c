// Package form holds the canonical snapshot of wizard answers. The
// wizard model owns the single instance; step screens read slices of it
// and mutate through the setters so the revision counter stays honest.
package form

import (
	"strings"

	"github.com/google/uuid"

	"github.com/CheatB/zachot-sub000/internal/api"
)

// Family is the top-level generation kind. It decides which step
// subgraph is reachable for the session.
type Family string

const (
	FamilyNone         Family = ""
	FamilyText         Family = "text"
	FamilyPresentation Family = "presentation"
	FamilyTask         Family = "task"
	FamilyImport       Family = "document_import"
)

// Families lists the selectable work families in display order.
func Families() []Family {
	return []Family{FamilyText, FamilyPresentation, FamilyTask, FamilyImport}
}

// Section is one titled outline entry with its nesting level.
type Section struct {
	ID    string
	Title string
	Level int
}

// Source is one citation entry.
type Source struct {
	ID        string
	Title     string
	Author    string
	Year      int
	URL       string
	Suggested bool
	Verified  bool
	Score     float64
}

// Formatting is the typographic rule set.
type Formatting struct {
	Preset      string
	Font        string
	FontSize    int
	LineSpacing float64
}

// TitlePage is the structured title-page metadata block.
type TitlePage struct {
	University string
	Department string
	Student    string
	Supervisor string
	City       string
	Year       int
}

// Form is the aggregate root of wizard answers. Exactly one of the
// family sub-selectors (WorkType, PresentationStyle, TaskMode) is
// meaningful at a time, determined by Family; SetFamily clears the
// others.
type Form struct {
	Family            Family
	WorkType          string
	PresentationStyle string
	TaskMode          string

	Topic        string
	Goal         string
	Idea         string
	Volume       int
	Complexity   int
	Humanity     int
	DocumentPath string

	Structure  []Section
	Sources    []Source
	Formatting Formatting
	TitlePage  TitlePage

	UseAIImages        bool
	UseSmartProcessing bool

	rev uint64
}

// New returns an empty form with sane level defaults.
func New() Form {
	return Form{
		Volume:     10,
		Complexity: 2,
		Humanity:   2,
		Formatting: Formatting{Preset: "gost", Font: "Times New Roman", FontSize: 14, LineSpacing: 1.5},
	}
}

// Rev is a monotonic counter bumped on every mutation. The draft
// synchronizer compares it against the last persisted revision and
// skips writes when nothing changed.
func (f *Form) Rev() uint64 { return f.rev }

func (f *Form) touch() { f.rev++ }

// SetFamily selects the work family and resets the sub-selectors that
// belong to the other families.
func (f *Form) SetFamily(fam Family) {
	f.Family = fam
	switch fam {
	case FamilyText:
		f.PresentationStyle = ""
		f.TaskMode = ""
	case FamilyPresentation:
		f.WorkType = ""
		f.TaskMode = ""
	case FamilyTask:
		f.WorkType = ""
		f.PresentationStyle = ""
	case FamilyImport:
		f.WorkType = ""
		f.PresentationStyle = ""
		f.TaskMode = ""
	}
	f.touch()
}

func (f *Form) SetWorkType(v string)          { f.WorkType = v; f.touch() }
func (f *Form) SetPresentationStyle(v string) { f.PresentationStyle = v; f.touch() }
func (f *Form) SetTaskMode(v string)          { f.TaskMode = v; f.touch() }
func (f *Form) SetTopic(v string)             { f.Topic = v; f.touch() }
func (f *Form) SetVolume(v int)               { f.Volume = v; f.touch() }
func (f *Form) SetComplexity(v int)           { f.Complexity = v; f.touch() }
func (f *Form) SetHumanity(v int)             { f.Humanity = v; f.touch() }
func (f *Form) SetDocumentPath(v string)      { f.DocumentPath = v; f.touch() }
func (f *Form) SetUseAIImages(v bool)         { f.UseAIImages = v; f.touch() }
func (f *Form) SetUseSmartProcessing(v bool)  { f.UseSmartProcessing = v; f.touch() }
func (f *Form) SetFormatting(v Formatting)    { f.Formatting = v; f.touch() }
func (f *Form) SetTitlePage(v TitlePage)      { f.TitlePage = v; f.touch() }

// SetGoalIdea records the derived goal and idea pair.
func (f *Form) SetGoalIdea(goal, idea string) {
	f.Goal = goal
	f.Idea = idea
	f.touch()
}

// SetStructure replaces the outline. Entries without an id get a fresh
// stable one.
func (f *Form) SetStructure(sections []Section) {
	for i := range sections {
		if sections[i].ID == "" {
			sections[i].ID = uuid.NewString()
		}
	}
	f.Structure = sections
	f.touch()
}

// AddSection appends an outline entry.
func (f *Form) AddSection(title string, level int) Section {
	s := Section{ID: uuid.NewString(), Title: title, Level: level}
	f.Structure = append(f.Structure, s)
	f.touch()
	return s
}

// RemoveSection drops the section with the given id, if present.
func (f *Form) RemoveSection(id string) {
	for i, s := range f.Structure {
		if s.ID == id {
			f.Structure = append(f.Structure[:i], f.Structure[i+1:]...)
			f.touch()
			return
		}
	}
}

// SetSources replaces the citation list, assigning ids where missing.
func (f *Form) SetSources(sources []Source) {
	for i := range sources {
		if sources[i].ID == "" {
			sources[i].ID = uuid.NewString()
		}
	}
	f.Sources = sources
	f.touch()
}

// AddSource appends a citation entry.
func (f *Form) AddSource(src Source) Source {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	f.Sources = append(f.Sources, src)
	f.touch()
	return src
}

// RemoveSource drops the source with the given id, if present.
func (f *Form) RemoveSource(id string) {
	for i, s := range f.Sources {
		if s.ID == id {
			f.Sources = append(f.Sources[:i], f.Sources[i+1:]...)
			f.touch()
			return
		}
	}
}

// HasTopic reports whether a non-blank topic was entered.
func (f *Form) HasTopic() bool { return strings.TrimSpace(f.Topic) != "" }

// HasGoal reports whether a non-blank goal is present.
func (f *Form) HasGoal() bool { return strings.TrimSpace(f.Goal) != "" }

// Input builds the immutable-once-running payload slice of the form.
func (f *Form) Input() api.InputPayload {
	return api.InputPayload{
		Topic:              f.Topic,
		Goal:               f.Goal,
		Idea:               f.Idea,
		Volume:             f.Volume,
		PresentationStyle:  f.PresentationStyle,
		TaskMode:           f.TaskMode,
		DocumentPath:       f.DocumentPath,
		UseAIImages:        f.UseAIImages,
		UseSmartProcessing: f.UseSmartProcessing,
	}
}

// Settings builds the always-mutable payload slice of the form.
func (f *Form) Settings() api.SettingsPayload {
	out := api.SettingsPayload{
		Formatting: api.FormattingPayload{
			Preset:      f.Formatting.Preset,
			Font:        f.Formatting.Font,
			FontSize:    f.Formatting.FontSize,
			LineSpacing: f.Formatting.LineSpacing,
		},
		TitlePage: api.TitlePagePayload{
			University: f.TitlePage.University,
			Department: f.TitlePage.Department,
			Student:    f.TitlePage.Student,
			Supervisor: f.TitlePage.Supervisor,
			City:       f.TitlePage.City,
			Year:       f.TitlePage.Year,
		},
	}
	for _, s := range f.Structure {
		out.Structure = append(out.Structure, api.SectionPayload{ID: s.ID, Title: s.Title, Level: s.Level})
	}
	for _, s := range f.Sources {
		out.Sources = append(out.Sources, api.SourcePayload{
			ID: s.ID, Title: s.Title, Author: s.Author, Year: s.Year, URL: s.URL,
			Suggested: s.Suggested, Verified: s.Verified, Score: s.Score,
		})
	}
	return out
}

// FromDraft rebuilds a form from a server draft for the resume flow.
func FromDraft(d api.Draft) Form {
	f := New()
	f.Family = Family(d.Module)
	f.WorkType = d.WorkType
	f.Complexity = d.ComplexityLevel
	f.Humanity = d.HumanityLevel
	f.Topic = d.Input.Topic
	f.Goal = d.Input.Goal
	f.Idea = d.Input.Idea
	if d.Input.Volume > 0 {
		f.Volume = d.Input.Volume
	}
	f.PresentationStyle = d.Input.PresentationStyle
	f.TaskMode = d.Input.TaskMode
	f.DocumentPath = d.Input.DocumentPath
	f.UseAIImages = d.Input.UseAIImages
	f.UseSmartProcessing = d.Input.UseSmartProcessing
	for _, s := range d.Settings.Structure {
		sec := Section{ID: s.ID, Title: s.Title, Level: s.Level}
		if sec.ID == "" {
			sec.ID = uuid.NewString()
		}
		f.Structure = append(f.Structure, sec)
	}
	for _, s := range d.Settings.Sources {
		src := Source{
			ID: s.ID, Title: s.Title, Author: s.Author, Year: s.Year, URL: s.URL,
			Suggested: s.Suggested, Verified: s.Verified, Score: s.Score,
		}
		if src.ID == "" {
			src.ID = uuid.NewString()
		}
		f.Sources = append(f.Sources, src)
	}
	if d.Settings.Formatting.Preset != "" {
		f.Formatting = Formatting{
			Preset:      d.Settings.Formatting.Preset,
			Font:        d.Settings.Formatting.Font,
			FontSize:    d.Settings.Formatting.FontSize,
			LineSpacing: d.Settings.Formatting.LineSpacing,
		}
	}
	f.TitlePage = TitlePage{
		University: d.Settings.TitlePage.University,
		Department: d.Settings.TitlePage.Department,
		Student:    d.Settings.TitlePage.Student,
		Supervisor: d.Settings.TitlePage.Supervisor,
		City:       d.Settings.TitlePage.City,
		Year:       d.Settings.TitlePage.Year,
	}
	return f
}
