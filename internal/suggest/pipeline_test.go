package suggest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CheatB/zachot-sub000/internal/api"
	"github.com/CheatB/zachot-sub000/internal/form"
	"github.com/CheatB/zachot-sub000/internal/steps"
	"github.com/CheatB/zachot-sub000/pkg/httpapi"
)

type fakeSuggest struct {
	detailsStatus   int
	structureStatus int
	sourcesStatus   int
	calls           map[string]int
}

func (b *fakeSuggest) handler() http.Handler {
	if b.calls == nil {
		b.calls = map[string]int{}
	}
	mux := http.NewServeMux()
	serve := func(path string, status *int, payload any) {
		mux.HandleFunc("POST "+path, func(w http.ResponseWriter, r *http.Request) {
			b.calls[path]++
			if *status != 0 {
				httpapi.WriteError(w, *status, httpapi.ErrInternal, "suggestion backend unavailable", true)
				return
			}
			httpapi.WriteOK(w, http.StatusOK, payload)
		})
	}
	serve("/suggest/details", &b.detailsStatus, api.DetailsSuggestion{Goal: "Explain the topic", Idea: "A survey angle"})
	serve("/suggest/structure", &b.structureStatus, api.StructureSuggestion{Sections: []api.SectionPayload{
		{Title: "Introduction", Level: 1},
		{Title: "Body", Level: 1},
	}})
	serve("/suggest/sources", &b.sourcesStatus, api.SourcesSuggestion{Sources: []api.SourcePayload{
		{Title: "Handbook", Author: "Ivanov", Year: 2019, Score: 0.9},
	}})
	return mux
}

func newPipeline(t *testing.T) (*Pipeline, *fakeSuggest) {
	t.Helper()
	backend := &fakeSuggest{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	return New(api.NewClient(srv.URL)), backend
}

func goalForm() form.Form {
	f := form.New()
	f.SetFamily(form.FamilyText)
	f.SetWorkType("essay")
	f.SetTopic("Renewable energy")
	return f
}

// collect executes a command, flattening a batch into the messages its
// members produce. Running the animation tick member costs one tick of
// wall time, which is fine here.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	out := make([]tea.Msg, 0, len(batch))
	for _, c := range batch {
		out = append(out, c())
	}
	return out
}

func execResult(t *testing.T, msgs []tea.Msg) ResultMsg {
	t.Helper()
	for _, m := range msgs {
		if res, ok := m.(ResultMsg); ok {
			return res
		}
	}
	t.Fatal("no result message produced")
	return ResultMsg{}
}

func TestFacadeFrozenUntilResult(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()
	if cmd := p.Start(steps.SuggestDetails, f, "d1", steps.StepTextStyle, steps.StepGoal); cmd == nil {
		t.Fatal("expected start commands")
	}
	for i := 0; i < 200; i++ {
		if cmd := p.HandleTick(TickMsg{Session: p.session, Gen: p.gen}); cmd == nil {
			t.Fatalf("animation stopped at tick %d", i)
		}
	}
	facade, active := p.Facade()
	if !active {
		t.Fatal("facade must stay active while the call is outstanding")
	}
	if facade.Percent > frozenCeil {
		t.Fatalf("facade crossed the frozen ceiling: %v", facade.Percent)
	}

	msg := ResultMsg{Session: p.session, Kind: steps.SuggestDetails, DraftID: "d1",
		Details: api.DetailsSuggestion{Goal: "g", Idea: "i"}}
	out := p.HandleResult(msg, &f, "d1")
	if !out.Proceed || out.Landing != steps.StepGoal {
		t.Fatalf("expected proceed to goal, got %+v", out)
	}
	facade, active = p.Facade()
	if active {
		t.Fatal("facade must deactivate on result")
	}
	if facade.Percent != 100 {
		t.Fatalf("facade must snap to 100, got %v", facade.Percent)
	}
}

func TestStartIsSingleFlight(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()
	if cmd := p.Start(steps.SuggestDetails, f, "d1", steps.StepTextStyle, steps.StepGoal); cmd == nil {
		t.Fatal("first start must run")
	}
	if cmd := p.Start(steps.SuggestStructure, f, "d1", steps.StepGoal, steps.StepStructure); cmd != nil {
		t.Fatal("second start while running must be a no-op")
	}
	if !p.Running() {
		t.Fatal("pipeline must report running")
	}
}

func TestDetailsCallMergesGoalIdea(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()
	cmds := collect(p.Start(steps.SuggestDetails, f, "d1", steps.StepTextStyle, steps.StepGoal))
	msg := execResult(t, cmds)
	out := p.HandleResult(msg, &f, "d1")
	if !out.Proceed {
		t.Fatalf("expected proceed, got %+v", out)
	}
	if f.Goal != "Explain the topic" || f.Idea != "A survey angle" {
		t.Fatalf("goal/idea not merged: %q %q", f.Goal, f.Idea)
	}
}

func TestStructureMergeAssignsFreshIDs(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()
	cmds := collect(p.Start(steps.SuggestStructure, f, "d1", steps.StepGoal, steps.StepStructure))
	msg := execResult(t, cmds)
	out := p.HandleResult(msg, &f, "d1")
	if !out.Proceed || out.Landing != steps.StepStructure {
		t.Fatalf("expected proceed to structure, got %+v", out)
	}
	if len(f.Structure) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(f.Structure))
	}
	seen := map[string]bool{}
	for _, s := range f.Structure {
		if s.ID == "" {
			t.Fatal("merged section must get a stable id")
		}
		if seen[s.ID] {
			t.Fatalf("duplicate section id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestSourcesMergeMarksSuggested(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()
	cmds := collect(p.Start(steps.SuggestSources, f, "d1", steps.StepStructure, steps.StepSources))
	msg := execResult(t, cmds)
	out := p.HandleResult(msg, &f, "d1")
	if !out.Proceed {
		t.Fatalf("expected proceed, got %+v", out)
	}
	if len(f.Sources) != 1 || !f.Sources[0].Suggested || f.Sources[0].ID == "" {
		t.Fatalf("unexpected merged sources: %+v", f.Sources)
	}
}

func TestDetailsFailureProceedsAnyway(t *testing.T) {
	p, backend := newPipeline(t)
	backend.detailsStatus = http.StatusBadGateway
	f := goalForm()
	cmds := collect(p.Start(steps.SuggestDetails, f, "d1", steps.StepTextStyle, steps.StepGoal))
	msg := execResult(t, cmds)
	out := p.HandleResult(msg, &f, "d1")
	if !out.Proceed || out.Retry {
		t.Fatalf("details failure must still land on the next step, got %+v", out)
	}
	if f.Goal != "" {
		t.Fatalf("nothing must be merged on failure, got %q", f.Goal)
	}
	if p.LastError() == "" {
		t.Fatal("failure must be surfaced")
	}
}

func TestStructureFailureRetriesInPlace(t *testing.T) {
	p, backend := newPipeline(t)
	backend.structureStatus = http.StatusBadGateway
	f := goalForm()
	cmds := collect(p.Start(steps.SuggestStructure, f, "d1", steps.StepGoal, steps.StepStructure))
	msg := execResult(t, cmds)
	out := p.HandleResult(msg, &f, "d1")
	if out.Proceed || !out.Retry {
		t.Fatalf("structure failure must stay with retry, got %+v", out)
	}

	// Retry re-runs the same kind and succeeds this time.
	backend.structureStatus = 0
	cmds = collect(p.Retry(f, "d1"))
	if cmds == nil {
		t.Fatal("retry must restart the failed call")
	}
	msg = execResult(t, cmds)
	out = p.HandleResult(msg, &f, "d1")
	if !out.Proceed || out.Landing != steps.StepStructure {
		t.Fatalf("retried structure must proceed, got %+v", out)
	}
	if backend.calls["/suggest/structure"] != 2 {
		t.Fatalf("expected 2 structure calls, got %d", backend.calls["/suggest/structure"])
	}
}

func TestStaleReplyDiscardedByDraftIdentity(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()
	cmds := collect(p.Start(steps.SuggestDetails, f, "old-draft", steps.StepTextStyle, steps.StepGoal))
	msg := execResult(t, cmds)

	// The wizard re-created the draft while the call was in flight.
	out := p.HandleResult(msg, &f, "new-draft")
	if out.Proceed || out.Retry {
		t.Fatalf("stale reply must be discarded, got %+v", out)
	}
	if f.Goal != "" {
		t.Fatalf("stale reply must not merge, got %q", f.Goal)
	}
	if p.Running() {
		t.Fatal("pipeline must unwind after a discarded reply")
	}
}

func TestPreCreateSuggestionMergesAfterDraftAppears(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()

	// The call leaves before the first create has assigned a draft id.
	cmds := collect(p.Start(steps.SuggestDetails, f, "", steps.StepTextStyle, steps.StepGoal))
	msg := execResult(t, cmds)

	// By the time the reply lands the create has finished. The reply
	// belongs to this session and must still merge.
	out := p.HandleResult(msg, &f, "d1")
	if !out.Proceed || out.Landing != steps.StepGoal {
		t.Fatalf("expected proceed to goal, got %+v", out)
	}
	if f.Goal != "Explain the topic" {
		t.Fatalf("reply before the first create must merge, got goal %q", f.Goal)
	}
}

func TestForeignSessionResultIgnored(t *testing.T) {
	p, _ := newPipeline(t)
	f := goalForm()
	_ = p.Start(steps.SuggestDetails, f, "d1", steps.StepTextStyle, steps.StepGoal)
	out := p.HandleResult(ResultMsg{Session: "other", Kind: steps.SuggestDetails, DraftID: "d1"}, &f, "d1")
	if out.Proceed || out.Retry {
		t.Fatalf("foreign session result must be ignored, got %+v", out)
	}
	if !p.Running() {
		t.Fatal("an ignored result must not unwind the pipeline")
	}
}
