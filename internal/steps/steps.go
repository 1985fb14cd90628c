// Package steps encodes the wizard's branching step topology as an
// explicit graph. Resolve is pure: it never performs IO and never
// returns an error, a blocked transition just stays put.
package steps

import (
	"github.com/CheatB/zachot-sub000/internal/form"
)

// Step identifies one wizard screen.
type Step int

const (
	StepNone Step = iota
	StepFamily
	StepTextTopic
	StepTextStyle
	StepPresentationTopic
	StepTaskInput
	StepImportUpload
	StepGoal
	StepStructure
	StepSources
	StepVisuals
	StepFormatting
	StepTitlePage
	StepConfirm
	StepGenerating
)

// Title returns the screen label for a step.
func Title(s Step) string {
	switch s {
	case StepFamily:
		return "Work type"
	case StepTextTopic:
		return "Topic"
	case StepTextStyle:
		return "Style"
	case StepPresentationTopic:
		return "Style & topic"
	case StepTaskInput:
		return "Task"
	case StepImportUpload:
		return "Document"
	case StepGoal:
		return "Goal & idea"
	case StepStructure:
		return "Structure"
	case StepSources:
		return "Sources"
	case StepVisuals:
		return "Visuals"
	case StepFormatting:
		return "Formatting"
	case StepTitlePage:
		return "Title page"
	case StepConfirm:
		return "Confirm"
	case StepGenerating:
		return "Generating"
	}
	return "Wizard"
}

// Suggestion names an async backend call the resolver asks the caller
// to run before landing on the next step.
type Suggestion int

const (
	SuggestNone Suggestion = iota
	SuggestDetails
	SuggestStructure
	SuggestSources
)

// Intent is the user's navigation request.
type Intent int

const (
	Next Intent = iota
	Back
)

// Resolution is the resolver's answer: either a direct hop (Next set,
// Suggest == SuggestNone) or a suggestion trigger that lands on Landing
// when the call succeeds.
type Resolution struct {
	Next    Step
	Suggest Suggestion
	Landing Step
}

type edgeKey struct {
	from   Step
	family form.Family
}

type edge struct {
	to      Step
	suggest Suggestion
	landing Step
}

// forward is the family-keyed adjacency table. Edges carrying a
// suggestion trigger it only when the landing field is still empty,
// otherwise they degrade to a direct hop.
var forward = map[edgeKey]edge{
	{StepFamily, form.FamilyText}:         {to: StepTextTopic},
	{StepFamily, form.FamilyPresentation}: {to: StepPresentationTopic},
	{StepFamily, form.FamilyTask}:         {to: StepTaskInput},
	{StepFamily, form.FamilyImport}:       {to: StepImportUpload},

	{StepTextTopic, form.FamilyText}: {to: StepTextStyle},
	{StepTextStyle, form.FamilyText}: {to: StepGoal, suggest: SuggestDetails, landing: StepGoal},
	{StepGoal, form.FamilyText}:      {to: StepStructure, suggest: SuggestStructure, landing: StepStructure},
	{StepStructure, form.FamilyText}: {to: StepSources, suggest: SuggestSources, landing: StepSources},
	{StepSources, form.FamilyText}:   {to: StepFormatting},

	{StepPresentationTopic, form.FamilyPresentation}: {to: StepGoal, suggest: SuggestDetails, landing: StepGoal},
	{StepGoal, form.FamilyPresentation}:              {to: StepStructure, suggest: SuggestStructure, landing: StepStructure},
	{StepStructure, form.FamilyPresentation}:         {to: StepVisuals},
	{StepVisuals, form.FamilyPresentation}:           {to: StepTitlePage},

	{StepTaskInput, form.FamilyTask}: {to: StepConfirm},

	{StepImportUpload, form.FamilyImport}: {to: StepFormatting},

	{StepFormatting, form.FamilyText}:   {to: StepTitlePage},
	{StepFormatting, form.FamilyImport}: {to: StepTitlePage},

	{StepTitlePage, form.FamilyText}:         {to: StepConfirm},
	{StepTitlePage, form.FamilyPresentation}: {to: StepConfirm},
	{StepTitlePage, form.FamilyImport}:       {to: StepConfirm},
}

// backward is the structural inverse of forward, with the collapses the
// product wants: Confirm's back target depends on the family, and a
// presentation that skipped the visuals step is skipped again on the
// way back.
var backward = map[edgeKey]Step{
	{StepTextTopic, form.FamilyText}:                 StepFamily,
	{StepTextStyle, form.FamilyText}:                 StepTextTopic,
	{StepGoal, form.FamilyText}:                      StepTextStyle,
	{StepStructure, form.FamilyText}:                 StepGoal,
	{StepSources, form.FamilyText}:                   StepStructure,
	{StepFormatting, form.FamilyText}:                StepSources,
	{StepTitlePage, form.FamilyText}:                 StepFormatting,
	{StepConfirm, form.FamilyText}:                   StepTitlePage,
	{StepPresentationTopic, form.FamilyPresentation}: StepFamily,
	{StepGoal, form.FamilyPresentation}:              StepPresentationTopic,
	{StepStructure, form.FamilyPresentation}:         StepGoal,
	{StepVisuals, form.FamilyPresentation}:           StepStructure,
	{StepTitlePage, form.FamilyPresentation}:         StepVisuals,
	{StepConfirm, form.FamilyPresentation}:           StepTitlePage,
	{StepTaskInput, form.FamilyTask}:                 StepFamily,
	{StepConfirm, form.FamilyTask}:                   StepTaskInput,
	{StepImportUpload, form.FamilyImport}:            StepFamily,
	{StepFormatting, form.FamilyImport}:              StepImportUpload,
	{StepTitlePage, form.FamilyImport}:               StepFormatting,
	{StepConfirm, form.FamilyImport}:                 StepTitlePage,
}

// CanAdvance is the per-step completeness predicate. Callers gate the
// forward affordance on it; Resolve re-checks it anyway.
func CanAdvance(s Step, f form.Form) bool {
	switch s {
	case StepFamily:
		return f.Family != form.FamilyNone
	case StepTextTopic:
		return f.WorkType != "" && f.HasTopic()
	case StepTextStyle:
		return f.Complexity > 0
	case StepPresentationTopic:
		return f.PresentationStyle != "" && f.HasTopic()
	case StepTaskInput:
		return f.HasTopic()
	case StepImportUpload:
		return f.DocumentPath != ""
	case StepGoal:
		return f.HasGoal()
	case StepStructure:
		return len(f.Structure) > 0
	case StepSources:
		return len(f.Sources) > 0
	case StepVisuals, StepFormatting, StepTitlePage:
		return true
	}
	return false
}

// suggestionNeeded reports whether the landing field of a suggestion
// edge is still empty. A filled field means the hop is direct; the
// pipeline is only for first-time pre-fill and explicit retries.
func suggestionNeeded(kind Suggestion, f form.Form) bool {
	switch kind {
	case SuggestDetails:
		return !f.HasGoal()
	case SuggestStructure:
		return len(f.Structure) == 0
	case SuggestSources:
		return len(f.Sources) == 0
	}
	return false
}

// Resolve computes the transition for the given intent. A blocked or
// unknown transition resolves to the current step.
func Resolve(cur Step, f form.Form, intent Intent) Resolution {
	if intent == Back {
		if prev, ok := backward[edgeKey{cur, f.Family}]; ok {
			return Resolution{Next: applySkips(prev, f, Back)}
		}
		return Resolution{Next: cur}
	}
	if !CanAdvance(cur, f) {
		return Resolution{Next: cur}
	}
	e, ok := forward[edgeKey{cur, f.Family}]
	if !ok {
		return Resolution{Next: cur}
	}
	if e.suggest != SuggestNone && suggestionNeeded(e.suggest, f) {
		return Resolution{Next: cur, Suggest: e.suggest, Landing: e.landing}
	}
	return Resolution{Next: applySkips(e.to, f, Next)}
}

// applySkips reroutes around steps the form renders unreachable: the
// visuals step only exists when AI images are on.
func applySkips(s Step, f form.Form, intent Intent) Step {
	if s == StepVisuals && !f.UseAIImages {
		if intent == Back {
			return StepStructure
		}
		return StepTitlePage
	}
	return s
}

// Visible returns the progress-indicator step list for a family. It is
// the contract for both the side panel and the persisted step index.
func Visible(family form.Family) []Step {
	switch family {
	case form.FamilyText:
		return []Step{StepFamily, StepTextTopic, StepTextStyle, StepGoal, StepStructure, StepSources, StepFormatting, StepTitlePage, StepConfirm, StepGenerating}
	case form.FamilyPresentation:
		return []Step{StepFamily, StepPresentationTopic, StepGoal, StepStructure, StepVisuals, StepTitlePage, StepConfirm, StepGenerating}
	case form.FamilyTask:
		return []Step{StepFamily, StepTaskInput, StepConfirm, StepGenerating}
	case form.FamilyImport:
		return []Step{StepFamily, StepImportUpload, StepFormatting, StepTitlePage, StepConfirm, StepGenerating}
	}
	return []Step{StepFamily}
}

// VisiblePath narrows Visible by the run-time skips, so it matches the
// sequence an always-proceed walk actually visits.
func VisiblePath(f form.Form) []Step {
	visible := Visible(f.Family)
	out := make([]Step, 0, len(visible))
	for _, s := range visible {
		if s == StepVisuals && !f.UseAIImages {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Index locates a step in the family's visible list, -1 when absent.
func Index(s Step, family form.Family) int {
	for i, step := range Visible(family) {
		if step == s {
			return i
		}
	}
	return -1
}

// At returns the step at a persisted index, clamped into range.
func At(idx int, family form.Family) Step {
	visible := Visible(family)
	if len(visible) == 0 {
		return StepFamily
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(visible) {
		idx = len(visible) - 1
	}
	return visible[idx]
}

// JobCreated reports whether a step index means a job was created from
// the draft, which downgrades persists to settings-only.
func JobCreated(s Step) bool {
	return s == StepGenerating
}
