// Package tui is the creation wizard: one Bubble Tea program that owns
// the form, asks the step resolver where to go, lets the suggestion
// pipeline sit between steps, and hands the terminal step to the cost
// gate.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CheatB/zachot-sub000/internal/api"
	"github.com/CheatB/zachot-sub000/internal/config"
	"github.com/CheatB/zachot-sub000/internal/draftsync"
	"github.com/CheatB/zachot-sub000/internal/form"
	"github.com/CheatB/zachot-sub000/internal/gate"
	"github.com/CheatB/zachot-sub000/internal/nav"
	"github.com/CheatB/zachot-sub000/internal/steps"
	"github.com/CheatB/zachot-sub000/internal/suggest"
)

var workTypes = []string{"essay", "coursework", "report", "abstract"}
var presentationStyles = []string{"academic", "business", "creative", "minimal"}
var taskModes = []string{"solve", "explain", "check"}

var titlePageFields = []string{"University", "Department", "Student", "Supervisor", "City"}

type draftLoadedMsg struct {
	draft api.Draft
	err   error
}

type Model struct {
	cfg      config.Config
	client   *api.Client
	loc      nav.Locator
	form     form.Form
	step     steps.Step
	sync     *draftsync.Synchronizer
	pipeline *suggest.Pipeline
	gate     *gate.Gate

	input      textinput.Model
	bar        progress.Model
	keys       keyMap
	cursor     int
	focusField int
	width      int
	height     int
	status     string
	resumeID   string
	quitting   bool
}

// NewModel builds the wizard. A draft id already bound in the locator
// triggers the rehydrate-then-resume flow from Init.
func NewModel(cfg config.Config, client *api.Client, loc nav.Locator, logf func(string, ...any)) Model {
	f := form.New()
	if cfg.DefaultVolume > 0 {
		f.SetVolume(cfg.DefaultVolume)
	}
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 500
	input.Focus()
	m := Model{
		cfg:      cfg,
		client:   client,
		loc:      loc,
		form:     f,
		step:     steps.StepFamily,
		sync:     draftsync.New(client, loc, logf),
		pipeline: suggest.New(client),
		gate:     gate.New(client),
		input:    input,
		bar:      progress.New(progress.WithDefaultGradient()),
		keys:     newKeyMap(),
		width:    120,
		height:   40,
		resumeID: loc.DraftID(),
	}
	for i, fam := range form.Families() {
		if string(fam) == cfg.DefaultModule {
			m.cursor = i
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.resumeID == "" {
		return textinput.Blink
	}
	client := m.client
	id := m.resumeID
	return tea.Batch(textinput.Blink, func() tea.Msg {
		d, err := client.GetDraft(context.Background(), id)
		return draftLoadedMsg{draft: d, err: err}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(60, msg.Width-10)
		return m, nil

	case draftLoadedMsg:
		return m.handleDraftLoaded(msg)

	case draftsync.TickMsg:
		return m, m.sync.HandleTick(msg, m.form, m.step)

	case draftsync.SavedMsg:
		cmd := m.sync.HandleSaved(msg)
		// The confirm step needs a draft id before it can price it.
		if m.step == steps.StepConfirm && m.gate.State() == gate.Idle && m.sync.DraftID() != "" {
			return m, tea.Batch(cmd, m.gate.Load(m.sync.DraftID()))
		}
		return m, cmd

	case suggest.TickMsg:
		return m, m.pipeline.HandleTick(msg)

	case suggest.ResultMsg:
		return m.handleSuggestion(msg)

	case gate.CostMsg:
		m.gate.HandleCost(msg)
		if m.gate.Error() != "" {
			m.status = "cost lookup failed: " + m.gate.Error()
		}
		return m, nil

	case gate.JobMsg:
		if m.gate.HandleJob(msg) {
			m.status = "generation started"
			cmd := m.setStep(steps.StepGenerating)
			return m, cmd
		}
		if m.gate.Error() != "" {
			m.status = "launch failed: " + m.gate.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleDraftLoaded(msg draftLoadedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrNotFound) {
			m.status = "saved draft is gone, starting fresh"
			m.sync.Reset()
		} else {
			m.status = "resume failed: " + msg.err.Error()
		}
		m.resumeID = ""
		return m, nil
	}
	m.form = form.FromDraft(msg.draft)
	m.sync.Adopt(msg.draft.ID)
	m.step = steps.At(m.loc.StepIndex(), m.form.Family)
	m.status = "resumed draft " + msg.draft.ID
	m.loadInput()
	if m.step == steps.StepConfirm {
		return m, m.gate.Load(msg.draft.ID)
	}
	return m, nil
}

func (m Model) handleSuggestion(msg suggest.ResultMsg) (Model, tea.Cmd) {
	outcome := m.pipeline.HandleResult(msg, &m.form, m.sync.DraftID())
	if outcome.Proceed {
		if m.pipeline.LastError() != "" {
			m.status = "suggestion failed, fill it in manually"
		}
		cmd := m.setStep(outcome.Landing)
		return m, tea.Batch(cmd, m.sync.FlushNow(m.form, m.step))
	}
	if outcome.Retry {
		m.status = "suggestion failed: ctrl+r to retry"
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	// A running suggestion disables every triggering control.
	if m.pipeline.Running() {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		cmd := m.back()
		return m, cmd
	case key.Matches(msg, m.keys.Next):
		cmd := m.advance()
		return m, cmd
	case key.Matches(msg, m.keys.Retry):
		if cmd := m.pipeline.Retry(m.form, m.sync.DraftID()); cmd != nil {
			m.status = "retrying suggestion"
			return m, cmd
		}
		return m, nil
	}
	switch m.step {
	case steps.StepFamily:
		return m.handleFamilyKey(msg)
	case steps.StepTextTopic, steps.StepPresentationTopic, steps.StepTaskInput, steps.StepImportUpload:
		return m.handleTopicKey(msg)
	case steps.StepTextStyle:
		return m.handleStyleKey(msg)
	case steps.StepGoal:
		return m.handleGoalKey(msg)
	case steps.StepStructure:
		return m.handleStructureKey(msg)
	case steps.StepSources:
		return m.handleSourcesKey(msg)
	case steps.StepVisuals:
		return m.handleVisualsKey(msg)
	case steps.StepFormatting:
		return m.handleFormattingKey(msg)
	case steps.StepTitlePage:
		return m.handleTitlePageKey(msg)
	case steps.StepConfirm:
		return m.handleConfirmKey(msg)
	case steps.StepGenerating:
		if msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleFamilyKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	families := form.Families()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(families)-1 {
			m.cursor++
		}
	case "1", "2", "3", "4":
		m.cursor = int(msg.String()[0] - '1')
	case "enter":
		m.form.SetFamily(families[m.cursor])
		cmd := tea.Batch(m.sync.Change(), m.advance())
		return m, cmd
	}
	return m, nil
}

// handleTopicKey covers the four family entry screens: free text in the
// input plus an up/down sub-selector where the family has one.
func (m Model) handleTopicKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		m.cycleSubType(-1)
		return m, m.sync.Change()
	case "down":
		m.cycleSubType(1)
		return m, m.sync.Change()
	case "enter":
		cmd := m.advance()
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.storeTopicInput()
	return m, tea.Batch(cmd, m.sync.Change())
}

func (m *Model) cycleSubType(delta int) {
	cycle := func(options []string, cur string) string {
		idx := 0
		for i, o := range options {
			if o == cur {
				idx = i
			}
		}
		idx = (idx + delta + len(options)) % len(options)
		return options[idx]
	}
	switch m.step {
	case steps.StepTextTopic:
		m.form.SetWorkType(cycle(workTypes, m.form.WorkType))
	case steps.StepPresentationTopic:
		m.form.SetPresentationStyle(cycle(presentationStyles, m.form.PresentationStyle))
	case steps.StepTaskInput:
		m.form.SetTaskMode(cycle(taskModes, m.form.TaskMode))
	}
}

func (m *Model) storeTopicInput() {
	switch m.step {
	case steps.StepImportUpload:
		m.form.SetDocumentPath(m.input.Value())
	default:
		m.form.SetTopic(m.input.Value())
	}
}

func (m Model) handleStyleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "left":
		if m.form.Complexity > 1 {
			m.form.SetComplexity(m.form.Complexity - 1)
			return m, m.sync.Change()
		}
	case "right":
		if m.form.Complexity < 3 {
			m.form.SetComplexity(m.form.Complexity + 1)
			return m, m.sync.Change()
		}
	case "up":
		if m.form.Humanity < 3 {
			m.form.SetHumanity(m.form.Humanity + 1)
			return m, m.sync.Change()
		}
	case "down":
		if m.form.Humanity > 1 {
			m.form.SetHumanity(m.form.Humanity - 1)
			return m, m.sync.Change()
		}
	case "+", "=":
		m.form.SetVolume(m.form.Volume + 1)
		return m, m.sync.Change()
	case "-":
		if m.form.Volume > 1 {
			m.form.SetVolume(m.form.Volume - 1)
			return m, m.sync.Change()
		}
	case "enter":
		cmd := m.advance()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleGoalKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.storeGoalInput()
		m.focusField = (m.focusField + 1) % 2
		m.loadInput()
		return m, nil
	case "enter":
		cmd := m.advance()
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.storeGoalInput()
	return m, tea.Batch(cmd, m.sync.Change())
}

func (m *Model) storeGoalInput() {
	if m.focusField == 0 {
		m.form.SetGoalIdea(m.input.Value(), m.form.Idea)
	} else {
		m.form.SetGoalIdea(m.form.Goal, m.input.Value())
	}
}

func (m Model) handleStructureKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.form.Structure)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if title := m.input.Value(); title != "" {
			m.form.AddSection(title, 0)
			m.input.SetValue("")
			return m, m.sync.Change()
		}
		cmd := m.advance()
		return m, cmd
	}
	if key.Matches(msg, m.keys.Delete) {
		if m.cursor < len(m.form.Structure) {
			m.form.RemoveSection(m.form.Structure[m.cursor].ID)
			if m.cursor >= len(m.form.Structure) && m.cursor > 0 {
				m.cursor--
			}
			return m, m.sync.Change()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSourcesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.form.Sources)-1 {
			m.cursor++
		}
		return m, nil
	case "ctrl+v":
		if m.cursor < len(m.form.Sources) {
			src := m.form.Sources[m.cursor]
			src.Verified = !src.Verified
			sources := append([]form.Source(nil), m.form.Sources...)
			sources[m.cursor] = src
			m.form.SetSources(sources)
			return m, m.sync.Change()
		}
		return m, nil
	case "enter":
		if title := m.input.Value(); title != "" {
			m.form.AddSource(form.Source{Title: title})
			m.input.SetValue("")
			return m, m.sync.Change()
		}
		cmd := m.advance()
		return m, cmd
	}
	if key.Matches(msg, m.keys.Delete) {
		if m.cursor < len(m.form.Sources) {
			m.form.RemoveSource(m.form.Sources[m.cursor].ID)
			if m.cursor >= len(m.form.Sources) && m.cursor > 0 {
				m.cursor--
			}
			return m, m.sync.Change()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleVisualsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case " ", "space":
		m.form.SetUseAIImages(!m.form.UseAIImages)
		return m, m.sync.Change()
	case "s":
		m.form.SetUseSmartProcessing(!m.form.UseSmartProcessing)
		return m, m.sync.Change()
	case "enter":
		cmd := m.advance()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleFormattingKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	fmtg := m.form.Formatting
	switch msg.String() {
	case "1":
		fmtg.Preset = "gost"
	case "2":
		fmtg.Preset = "free"
	case "+", "=":
		fmtg.FontSize++
	case "-":
		if fmtg.FontSize > 8 {
			fmtg.FontSize--
		}
	case "up":
		fmtg.LineSpacing += 0.5
	case "down":
		if fmtg.LineSpacing > 1 {
			fmtg.LineSpacing -= 0.5
		}
	case "enter":
		cmd := m.advance()
		return m, cmd
	default:
		return m, nil
	}
	m.form.SetFormatting(fmtg)
	return m, m.sync.Change()
}

func (m Model) handleTitlePageKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.storeTitlePageInput()
		m.focusField = (m.focusField + 1) % len(titlePageFields)
		m.loadInput()
		return m, nil
	case "enter":
		cmd := m.advance()
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.storeTitlePageInput()
	return m, tea.Batch(cmd, m.sync.Change())
}

func (m *Model) storeTitlePageInput() {
	tp := m.form.TitlePage
	switch m.focusField {
	case 0:
		tp.University = m.input.Value()
	case 1:
		tp.Department = m.input.Value()
	case 2:
		tp.Student = m.input.Value()
	case 3:
		tp.Supervisor = m.input.Value()
	case 4:
		tp.City = m.input.Value()
	}
	m.form.SetTitlePage(tp)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.gate.State() {
	case gate.UpsellSubscription:
		switch msg.String() {
		case "1", "enter":
			// The purchase itself is an external flow; coming back
			// re-checks the balance.
			return m, m.gate.ExitPurchase()
		case "2", "esc":
			m.gate.DeclineSubscription()
		}
		return m, nil
	case gate.UpsellCredits:
		switch msg.String() {
		case "1", "enter", "esc":
			return m, m.gate.ExitPurchase()
		}
		return m, nil
	case gate.Ready:
		if msg.String() == "enter" {
			if m.gate.CanProceed() {
				return m, m.gate.Confirm()
			}
			m.gate.OfferUpsell()
		}
		return m, nil
	case gate.Idle:
		// A failed cost lookup falls back here; enter re-runs it.
		if msg.String() == "enter" && m.sync.DraftID() != "" {
			return m, m.gate.Load(m.sync.DraftID())
		}
		return m, nil
	}
	return m, nil
}

// advance asks the resolver for the forward transition. An unmet
// completeness predicate resolves to the current step, which the view
// surfaces as a disabled affordance, never an error.
func (m *Model) advance() tea.Cmd {
	res := steps.Resolve(m.step, m.form, steps.Next)
	if res.Suggest != steps.SuggestNone {
		return m.pipeline.Start(res.Suggest, m.form, m.sync.DraftID(), m.step, res.Landing)
	}
	if res.Next == m.step {
		return nil
	}
	return m.setStep(res.Next)
}

func (m *Model) back() tea.Cmd {
	res := steps.Resolve(m.step, m.form, steps.Back)
	if res.Next == m.step {
		return nil
	}
	return m.setStep(res.Next)
}

func (m *Model) setStep(next steps.Step) tea.Cmd {
	m.step = next
	m.cursor = 0
	m.focusField = 0
	// Entering a screen with a sub-selector pre-selects the first option.
	switch next {
	case steps.StepTextTopic:
		if m.form.WorkType == "" {
			m.form.SetWorkType(workTypes[0])
		}
	case steps.StepPresentationTopic:
		if m.form.PresentationStyle == "" {
			m.form.SetPresentationStyle(presentationStyles[0])
		}
	case steps.StepTaskInput:
		if m.form.TaskMode == "" {
			m.form.SetTaskMode(taskModes[0])
		}
	}
	m.loadInput()
	cmds := []tea.Cmd{m.sync.Change()}
	if next == steps.StepConfirm {
		if id := m.sync.DraftID(); id != "" {
			cmds = append(cmds, m.gate.Load(id))
		} else {
			// No draft yet: persist first, the saved handler prices it.
			cmds = append(cmds, m.sync.FlushNow(m.form, m.step))
		}
	}
	return tea.Batch(cmds...)
}

// loadInput seeds the shared text input with the active field's value.
func (m *Model) loadInput() {
	m.input.SetValue("")
	switch m.step {
	case steps.StepTextTopic, steps.StepPresentationTopic, steps.StepTaskInput:
		m.input.SetValue(m.form.Topic)
	case steps.StepImportUpload:
		m.input.SetValue(m.form.DocumentPath)
	case steps.StepGoal:
		if m.focusField == 0 {
			m.input.SetValue(m.form.Goal)
		} else {
			m.input.SetValue(m.form.Idea)
		}
	case steps.StepTitlePage:
		tp := m.form.TitlePage
		values := []string{tp.University, tp.Department, tp.Student, tp.Supervisor, tp.City}
		if m.focusField < len(values) {
			m.input.SetValue(values[m.focusField])
		}
	}
	m.input.CursorEnd()
}
