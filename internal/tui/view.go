package tui

import (
	"fmt"
	"strings"

	"github.com/CheatB/zachot-sub000/internal/form"
	"github.com/CheatB/zachot-sub000/internal/gate"
	"github.com/CheatB/zachot-sub000/internal/nav"
	"github.com/CheatB/zachot-sub000/internal/steps"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(renderHeader(steps.Title(m.step)))
	b.WriteString("\n\n")
	b.WriteString(m.renderStepList())
	b.WriteString("\n")
	if facade, active := m.pipeline.Facade(); active {
		b.WriteString(m.renderFacade(facade.Title, facade.Tasks, facade.Percent))
	} else {
		b.WriteString(m.renderStep())
	}
	b.WriteString("\n")
	b.WriteString(renderFooter(m.footerKeys(), m.status))
	return b.String()
}

// renderStepList is the progress indicator: the family-filtered step
// list with the active step marked.
func (m Model) renderStepList() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("STEPS"))
	b.WriteString("\n")
	for i, s := range steps.VisiblePath(m.form) {
		label := fmt.Sprintf("%d) %s", i+1, steps.Title(s))
		if s == m.step {
			b.WriteString(selectedStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFacade(title string, tasks []string, percent float64) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	done := int(percent / 100 * float64(len(tasks)))
	for i, task := range tasks {
		marker := "[ ]"
		if i < done {
			marker = "[x]"
		}
		b.WriteString("  " + marker + " " + task + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(percent / 100))
	b.WriteString(fmt.Sprintf("  %d%%\n", int(percent)))
	return b.String()
}

func (m Model) renderStep() string {
	switch m.step {
	case steps.StepFamily:
		return m.renderFamily()
	case steps.StepTextTopic:
		return m.renderTopic("Work type", workTypes, m.form.WorkType, "What is the topic?")
	case steps.StepPresentationTopic:
		return m.renderTopic("Style", presentationStyles, m.form.PresentationStyle, "What is the presentation about?")
	case steps.StepTaskInput:
		return m.renderTopic("Mode", taskModes, m.form.TaskMode, "Paste the task text.")
	case steps.StepImportUpload:
		return "Path to the document to rework:\n\n" + m.input.View() + "\n"
	case steps.StepTextStyle:
		return m.renderStyle()
	case steps.StepGoal:
		return m.renderGoal()
	case steps.StepStructure:
		return m.renderStructure()
	case steps.StepSources:
		return m.renderSources()
	case steps.StepVisuals:
		return m.renderVisuals()
	case steps.StepFormatting:
		return m.renderFormatting()
	case steps.StepTitlePage:
		return m.renderTitlePage()
	case steps.StepConfirm:
		return m.renderConfirm()
	case steps.StepGenerating:
		return m.renderGenerating()
	}
	return ""
}

func (m Model) renderFamily() string {
	var b strings.Builder
	b.WriteString("What do you want to create?\n\n")
	for i, fam := range form.Families() {
		marker := "[ ]"
		if i == m.cursor {
			marker = "[*]"
		}
		b.WriteString(fmt.Sprintf("  %s %d) %s\n", marker, i+1, familyLabel(fam)))
	}
	return b.String()
}

func familyLabel(fam form.Family) string {
	switch fam {
	case form.FamilyText:
		return "Written work"
	case form.FamilyPresentation:
		return "Presentation"
	case form.FamilyTask:
		return "Task solution"
	case form.FamilyImport:
		return "Rework my document"
	}
	return string(fam)
}

func (m Model) renderTopic(selLabel string, options []string, current, question string) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(selLabel + " (up/down): "))
	for _, o := range options {
		if o == current {
			b.WriteString(selectedStyle.Render("[" + o + "] "))
		} else {
			b.WriteString(o + " ")
		}
	}
	b.WriteString("\n\n")
	b.WriteString(question + "\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderStyle() string {
	return fmt.Sprintf("Complexity (left/right): %d/3\nHumanity (up/down): %d/3\nVolume (+/-): %d pages\n\nEnter suggests a goal and idea for the topic.\n",
		m.form.Complexity, m.form.Humanity, m.form.Volume)
}

func (m Model) renderGoal() string {
	var b strings.Builder
	goalMark, ideaMark := "> ", "  "
	if m.focusField == 1 {
		goalMark, ideaMark = "  ", "> "
	}
	b.WriteString(goalMark + labelStyle.Render("Goal: ") + orDash(m.form.Goal) + "\n")
	b.WriteString(ideaMark + labelStyle.Render("Idea: ") + orDash(m.form.Idea) + "\n\n")
	b.WriteString("Edit (tab switches field):\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderStructure() string {
	var b strings.Builder
	if len(m.form.Structure) == 0 {
		b.WriteString("No sections yet.\n")
	}
	for i, s := range m.form.Structure {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		b.WriteString(marker + strings.Repeat("  ", s.Level) + s.Title + "\n")
	}
	b.WriteString("\nAdd section (enter commits, empty enter continues):\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSources() string {
	var b strings.Builder
	if len(m.form.Sources) == 0 {
		b.WriteString("No sources yet.\n")
	}
	for i, s := range m.form.Sources {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		flags := ""
		if s.Suggested {
			flags += " [ai]"
		}
		if s.Verified {
			flags += " [ok]"
		}
		b.WriteString(marker + s.Title + flags + "\n")
	}
	b.WriteString("\nAdd source (enter commits, empty enter continues):\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderVisuals() string {
	return fmt.Sprintf("AI images (space): %s\nSmart processing (s): %s\n",
		onOff(m.form.UseAIImages), onOff(m.form.UseSmartProcessing))
}

func (m Model) renderFormatting() string {
	f := m.form.Formatting
	return fmt.Sprintf("Preset (1 gost / 2 free): %s\nFont size (+/-): %d\nLine spacing (up/down): %.1f\n",
		f.Preset, f.FontSize, f.LineSpacing)
}

func (m Model) renderTitlePage() string {
	var b strings.Builder
	tp := m.form.TitlePage
	values := []string{tp.University, tp.Department, tp.Student, tp.Supervisor, tp.City}
	for i, name := range titlePageFields {
		marker := "  "
		if i == m.focusField {
			marker = "> "
		}
		b.WriteString(marker + labelStyle.Render(name+": ") + orDash(values[i]) + "\n")
	}
	b.WriteString("\nEdit (tab switches field):\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderConfirm() string {
	var b strings.Builder
	switch m.gate.State() {
	case gate.Idle:
		if m.gate.Error() != "" {
			b.WriteString("Price check failed: " + m.gate.Error() + "\n")
			b.WriteString("Press enter to try again.\n")
			break
		}
		b.WriteString("Checking price and balance...\n")
	case gate.Loading:
		b.WriteString("Checking price and balance...\n")
	case gate.UpsellSubscription:
		b.WriteString("Not enough credits.\n\n")
		b.WriteString("A subscription is the cheapest way to keep writing.\n")
		b.WriteString("  1) Subscribe\n  2) No thanks\n")
	case gate.UpsellCredits:
		b.WriteString("One-off credit packs:\n")
		b.WriteString("  1) Buy credits and come back\n")
	case gate.Submitting:
		b.WriteString("Launching generation...\n")
	default:
		cost := m.gate.Cost()
		b.WriteString(fmt.Sprintf("Price: %d credits\nBalance: %d credits\n\n", cost.Required, cost.Available))
		if m.gate.CanProceed() {
			b.WriteString(selectedStyle.Render("Enter launches generation. This cannot be undone."))
		} else {
			b.WriteString(errorStyle.Render("Not enough credits. Enter shows options."))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderGenerating() string {
	var b strings.Builder
	b.WriteString("Your work is being generated.\n\n")
	if job := m.gate.Job(); job.ID != "" {
		b.WriteString(labelStyle.Render("Job: ") + job.ID + "\n")
	}
	if id := m.sync.DraftID(); id != "" {
		b.WriteString(labelStyle.Render("Resume link: ") + nav.ResumeURL(id) + "\n")
	}
	b.WriteString("\nStructure and formatting edits still save; q quits.\n")
	return b.String()
}

func (m Model) footerKeys() string {
	if m.step == steps.StepConfirm {
		return "enter confirm · [ back · ctrl+c quit"
	}
	keys := "[ / ] steps · enter next · ctrl+c quit"
	if m.pipeline.LastError() != "" {
		keys += " · ctrl+r retry"
	}
	return keys
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
