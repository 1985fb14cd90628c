package tui

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CheatB/zachot-sub000/internal/api"
	"github.com/CheatB/zachot-sub000/internal/config"
	"github.com/CheatB/zachot-sub000/internal/draftsync"
	"github.com/CheatB/zachot-sub000/internal/form"
	"github.com/CheatB/zachot-sub000/internal/gate"
	"github.com/CheatB/zachot-sub000/internal/nav"
	"github.com/CheatB/zachot-sub000/internal/steps"
	"github.com/CheatB/zachot-sub000/internal/suggest"
	"github.com/CheatB/zachot-sub000/pkg/httpapi"
)

type fakeWizardBackend struct {
	detailsStatus int
	costStatus    int
	creates       int
	jobCalls      int
	draft         *api.Draft
}

func (b *fakeWizardBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generations", func(w http.ResponseWriter, r *http.Request) {
		b.creates++
		httpapi.WriteOK(w, http.StatusCreated, api.Draft{ID: fmt.Sprintf("d%d", b.creates), Module: "text"})
	})
	mux.HandleFunc("PATCH /generations/{id}", func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteOK(w, http.StatusOK, api.Draft{ID: r.PathValue("id"), Module: "text"})
	})
	mux.HandleFunc("GET /generations/{id}", func(w http.ResponseWriter, r *http.Request) {
		if b.draft == nil {
			httpapi.WriteError(w, http.StatusNotFound, httpapi.ErrNotFound, "draft not found", false)
			return
		}
		httpapi.WriteOK(w, http.StatusOK, b.draft)
	})
	mux.HandleFunc("GET /generations/{id}/cost", func(w http.ResponseWriter, r *http.Request) {
		if b.costStatus != 0 {
			httpapi.WriteError(w, b.costStatus, httpapi.ErrInternal, "billing unavailable", true)
			return
		}
		httpapi.WriteOK(w, http.StatusOK, api.Cost{Required: 10, Available: 100, CanGenerate: true})
	})
	mux.HandleFunc("POST /generations/{id}/jobs", func(w http.ResponseWriter, r *http.Request) {
		b.jobCalls++
		httpapi.WriteOK(w, http.StatusCreated, api.Job{ID: "job-1", Status: "queued"})
	})
	mux.HandleFunc("POST /suggest/details", func(w http.ResponseWriter, r *http.Request) {
		if b.detailsStatus != 0 {
			httpapi.WriteError(w, b.detailsStatus, httpapi.ErrInternal, "suggestion backend unavailable", true)
			return
		}
		httpapi.WriteOK(w, http.StatusOK, api.DetailsSuggestion{Goal: "Explain the topic", Idea: "A survey angle"})
	})
	mux.HandleFunc("POST /suggest/structure", func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteOK(w, http.StatusOK, api.StructureSuggestion{Sections: []api.SectionPayload{{Title: "Introduction", Level: 1}}})
	})
	mux.HandleFunc("POST /suggest/sources", func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteOK(w, http.StatusOK, api.SourcesSuggestion{Sources: []api.SourcePayload{{Title: "Handbook", Author: "Ivanov", Year: 2019}}})
	})
	return mux
}

func newWizard(t *testing.T, backend *fakeWizardBackend) (Model, *nav.MemoryLocator) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	loc := &nav.MemoryLocator{}
	return NewModel(config.Default(), api.NewClient(srv.URL), loc, t.Logf), loc
}

func pressKey(m Model, key string) Model {
	m, _ = pressKeyCmd(m, key)
	return m
}

func pressKeyCmd(m Model, key string) (Model, tea.Cmd) {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace}
	case "ctrl+d":
		msg = tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+r":
		msg = tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func typeText(m Model, input string) Model {
	for _, r := range input {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

// runCmds executes a command tree and feeds the resulting messages back
// into the model. Timer messages are dropped: the debounce and animation
// loops are exercised in their own packages.
func runCmds(t *testing.T, m Model, cmd tea.Cmd, depth int) Model {
	t.Helper()
	if cmd == nil || depth > 6 {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = runCmds(t, m, c, depth+1)
		}
		return m
	}
	switch msg.(type) {
	case draftsync.TickMsg, suggest.TickMsg:
		return m
	}
	updated, next := m.Update(msg)
	return runCmds(t, updated.(Model), next, depth+1)
}

func TestFamilySelectionForksTopology(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m = pressKey(m, "enter")
	if m.step != steps.StepTextTopic {
		t.Fatalf("text family must land on its topic step, got %v", m.step)
	}

	m, _ = newWizard(t, &fakeWizardBackend{})
	m = pressKey(m, "down")
	m = pressKey(m, "down")
	m = pressKey(m, "enter")
	if m.form.Family != form.FamilyTask || m.step != steps.StepTaskInput {
		t.Fatalf("task family must land on its input step, got %v/%v", m.form.Family, m.step)
	}
}

func TestEmptyTopicBlocksAdvance(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m = pressKey(m, "enter")
	m = pressKey(m, "]")
	if m.step != steps.StepTextTopic {
		t.Fatalf("empty topic must not advance, got %v", m.step)
	}
	m = typeText(m, "Graph algorithms")
	m = pressKey(m, "]")
	if m.step != steps.StepTextStyle {
		t.Fatalf("filled topic must advance, got %v", m.step)
	}
	if m.form.Topic != "Graph algorithms" {
		t.Fatalf("typed topic lost: %q", m.form.Topic)
	}
}

func TestSubSelectorCyclesOnArrows(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m = pressKey(m, "enter")
	m = pressKey(m, "down")
	if m.form.WorkType != workTypes[1] {
		t.Fatalf("down must cycle the work type, got %q", m.form.WorkType)
	}
	m = pressKey(m, "up")
	if m.form.WorkType != workTypes[0] {
		t.Fatalf("up must cycle back, got %q", m.form.WorkType)
	}
}

func TestSuggestionRunsBetweenStyleAndGoal(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m = pressKey(m, "enter")
	m = typeText(m, "Graph algorithms")
	m = pressKey(m, "]")

	m, cmd := pressKeyCmd(m, "]")
	if !m.pipeline.Running() {
		t.Fatal("leaving the style step with an empty goal must start the suggestion")
	}
	if m.step != steps.StepTextStyle {
		t.Fatalf("the wizard must stay put while the suggestion runs, got %v", m.step)
	}
	m = runCmds(t, m, cmd, 0)
	if m.step != steps.StepGoal {
		t.Fatalf("resolved suggestion must land on the goal step, got %v", m.step)
	}
	if m.form.Goal != "Explain the topic" || m.form.Idea != "A survey angle" {
		t.Fatalf("suggestion not merged: %q %q", m.form.Goal, m.form.Idea)
	}
}

func TestSuggestionSkippedWhenGoalAlreadyFilled(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m = pressKey(m, "enter")
	m = typeText(m, "Graph algorithms")
	m = pressKey(m, "]")
	m.form.SetGoalIdea("Already set", "")

	m = pressKey(m, "]")
	if m.pipeline.Running() {
		t.Fatal("a filled goal must suppress the suggestion")
	}
	if m.step != steps.StepGoal {
		t.Fatalf("expected a direct transition, got %v", m.step)
	}
	if m.form.Goal != "Already set" {
		t.Fatalf("existing goal must be kept, got %q", m.form.Goal)
	}
}

func TestKeysDisabledWhileSuggestionRuns(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m = pressKey(m, "enter")
	m = typeText(m, "Graph algorithms")
	m = pressKey(m, "]")
	m = pressKey(m, "]") // starts the suggestion, command discarded

	before := m.step
	m = pressKey(m, "[")
	if m.step != before {
		t.Fatal("navigation must be inert while a suggestion runs")
	}
	m = typeText(m, "x")
	if strings.Contains(m.form.Topic, "x") {
		t.Fatal("text input must be inert while a suggestion runs")
	}
}

func TestDetailsFailureLandsOnGoalWithNotice(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{detailsStatus: http.StatusBadGateway})
	m = pressKey(m, "enter")
	m = typeText(m, "Graph algorithms")
	m = pressKey(m, "]")

	m, cmd := pressKeyCmd(m, "]")
	m = runCmds(t, m, cmd, 0)
	if m.step != steps.StepGoal {
		t.Fatalf("details failure must still land on the goal step, got %v", m.step)
	}
	if m.form.Goal != "" {
		t.Fatalf("nothing must be merged on failure, got %q", m.form.Goal)
	}
	if !strings.Contains(m.status, "manually") {
		t.Fatalf("failure notice missing, status %q", m.status)
	}
}

func TestTaskFamilyConfirmLaunchesJob(t *testing.T) {
	backend := &fakeWizardBackend{}
	m, loc := newWizard(t, backend)
	m = pressKey(m, "down")
	m = pressKey(m, "down")
	m = pressKey(m, "enter")
	m = typeText(m, "Integrate x^2 from 0 to 1")

	m, cmd := pressKeyCmd(m, "]")
	m = runCmds(t, m, cmd, 0)
	if m.step != steps.StepConfirm {
		t.Fatalf("task family goes straight to confirm, got %v", m.step)
	}
	if backend.creates != 1 {
		t.Fatalf("reaching confirm without a draft must create one, got %d", backend.creates)
	}
	if loc.ID != "d1" {
		t.Fatalf("locator must follow the created draft, got %q", loc.ID)
	}

	m, cmd = pressKeyCmd(m, "enter")
	m = runCmds(t, m, cmd, 0)
	if m.step != steps.StepGenerating {
		t.Fatalf("confirmed wizard must land on the generating step, got %v", m.step)
	}
	if backend.jobCalls != 1 {
		t.Fatalf("expected exactly one job call, got %d", backend.jobCalls)
	}
}

func TestCostLookupFailureRetriesWithEnter(t *testing.T) {
	backend := &fakeWizardBackend{costStatus: http.StatusServiceUnavailable}
	m, _ := newWizard(t, backend)
	m = pressKey(m, "down")
	m = pressKey(m, "down")
	m = pressKey(m, "enter")
	m = typeText(m, "Integrate x^2 from 0 to 1")

	m, cmd := pressKeyCmd(m, "]")
	m = runCmds(t, m, cmd, 0)
	if m.step != steps.StepConfirm {
		t.Fatalf("expected the confirm step, got %v", m.step)
	}
	if m.gate.State() != gate.Idle || m.gate.Error() == "" {
		t.Fatalf("failed lookup must fall back with an error, got %v %q", m.gate.State(), m.gate.Error())
	}
	if !strings.Contains(m.View(), "try again") {
		t.Fatalf("confirm view must offer a retry:\n%s", m.View())
	}

	backend.costStatus = 0
	m, cmd = pressKeyCmd(m, "enter")
	m = runCmds(t, m, cmd, 0)
	if m.gate.State() != gate.Ready || !m.gate.CanProceed() {
		t.Fatalf("enter must re-run the lookup, got %v", m.gate.State())
	}
}

func TestResumeRestoresFormAndStep(t *testing.T) {
	backend := &fakeWizardBackend{draft: &api.Draft{
		ID:       "d7",
		Module:   "text",
		WorkType: "essay",
		Input:    api.InputPayload{Topic: "Graphs", Goal: "Explain", Volume: 15},
	}}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	loc := &nav.MemoryLocator{}
	_ = loc.Bind("d7", steps.Index(steps.StepGoal, form.FamilyText))

	m := NewModel(config.Default(), api.NewClient(srv.URL), loc, t.Logf)
	m = runCmds(t, m, m.Init(), 0)
	if m.form.Topic != "Graphs" || m.form.Goal != "Explain" {
		t.Fatalf("form not rehydrated: %+v", m.form)
	}
	if m.step != steps.StepGoal {
		t.Fatalf("remembered step lost, got %v", m.step)
	}
	if m.sync.DraftID() != "d7" {
		t.Fatalf("draft not adopted, got %q", m.sync.DraftID())
	}
}

func TestResumeOfVanishedDraftStartsFresh(t *testing.T) {
	backend := &fakeWizardBackend{} // GetDraft returns 404
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	loc := &nav.MemoryLocator{}
	_ = loc.Bind("gone", 4)

	m := NewModel(config.Default(), api.NewClient(srv.URL), loc, t.Logf)
	m = runCmds(t, m, m.Init(), 0)
	if m.step != steps.StepFamily {
		t.Fatalf("vanished draft must restart the wizard, got %v", m.step)
	}
	if loc.ID != "" {
		t.Fatalf("locator must be cleared, got %q", loc.ID)
	}
	if !strings.Contains(m.status, "starting fresh") {
		t.Fatalf("missing notice, status %q", m.status)
	}
}

func TestStructureStepAddsAndDeletesSections(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m.step = steps.StepStructure
	m.form.SetFamily(form.FamilyText)
	m.loadInput()

	m = typeText(m, "Introduction")
	m = pressKey(m, "enter")
	m = typeText(m, "Conclusion")
	m = pressKey(m, "enter")
	if len(m.form.Structure) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(m.form.Structure))
	}
	m = pressKey(m, "down")
	m = pressKey(m, "ctrl+d")
	if len(m.form.Structure) != 1 || m.form.Structure[0].Title != "Introduction" {
		t.Fatalf("unexpected outline after delete: %+v", m.form.Structure)
	}
}

func TestGeneratingViewShowsResumeLink(t *testing.T) {
	m, _ := newWizard(t, &fakeWizardBackend{})
	m.step = steps.StepGenerating
	m.sync.Adopt("d9")
	out := m.View()
	if !strings.Contains(out, nav.ResumeURL("d9")) {
		t.Fatalf("generating view must show the resume link:\n%s", out)
	}
}
