// Package suggest orchestrates the backend suggestion calls that sit
// between wizard steps. While a call is outstanding it animates a
// determinate-looking progress facade that is deliberately not tied to
// the real operation: it climbs fast to 90, crawls to 95, and freezes
// there until the reply lands.
package suggest

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/CheatB/zachot-sub000/internal/api"
	"github.com/CheatB/zachot-sub000/internal/form"
	"github.com/CheatB/zachot-sub000/internal/steps"
)

const (
	tickEvery  = 100 * time.Millisecond
	fastCeil   = 90
	frozenCeil = 95
	fastRate   = 3
	slowRate   = 0.5
)

// TickMsg advances the facade animation.
type TickMsg struct {
	Session string
	Gen     int
}

// ResultMsg carries a finished suggestion call. DraftID names the draft
// the call was issued for so a stale reply is discarded by identity,
// not by cancelling the transport.
type ResultMsg struct {
	Session  string
	Kind     steps.Suggestion
	DraftID  string
	Details  api.DetailsSuggestion
	Sections []api.SectionPayload
	Sources  []api.SourcePayload
	Err      error
}

// Facade is the progress surface the view renders.
type Facade struct {
	Title   string
	Tasks   []string
	Percent float64
}

// Outcome tells the wizard what to do after a result: land on a step,
// or stay put and surface a retry control.
type Outcome struct {
	Proceed bool
	Landing steps.Step
	Retry   bool
}

// Pipeline runs at most one suggestion at a time. The triggering
// control stays disabled while Running reports true.
type Pipeline struct {
	client  *api.Client
	session string
	running steps.Suggestion
	origin  steps.Step
	landing steps.Step
	draftID string
	gen     int
	facade  Facade
	active  bool
	lastErr string

	failedKind steps.Suggestion
}

// New creates an idle pipeline.
func New(client *api.Client) *Pipeline {
	return &Pipeline{client: client, session: uuid.NewString()}
}

// Running reports whether a suggestion call is outstanding.
func (p *Pipeline) Running() bool { return p.running != steps.SuggestNone }

// Facade returns the progress surface and whether it is active.
func (p *Pipeline) Facade() (Facade, bool) { return p.facade, p.active }

// LastError is the user-facing failure of the previous run, cleared on
// the next start.
func (p *Pipeline) LastError() string { return p.lastErr }

// Start launches a suggestion call and its facade. A second invocation
// while one is outstanding is a no-op.
func (p *Pipeline) Start(kind steps.Suggestion, f form.Form, draftID string, origin, landing steps.Step) tea.Cmd {
	if p.Running() || kind == steps.SuggestNone {
		return nil
	}
	p.running = kind
	p.origin = origin
	p.landing = landing
	p.draftID = draftID
	p.lastErr = ""
	p.facade = facadeFor(kind)
	p.active = true
	return tea.Batch(p.call(kind, f, draftID), p.tick())
}

// Retry re-runs the failed suggestion from its originating step.
func (p *Pipeline) Retry(f form.Form, draftID string) tea.Cmd {
	if p.lastErr == "" {
		return nil
	}
	return p.Start(p.failedKind, f, draftID, p.origin, p.landing)
}

// HandleTick advances the facade. The percentage is frozen at 95 until
// the real result arrives; only the result handler moves it past that.
func (p *Pipeline) HandleTick(msg TickMsg) tea.Cmd {
	if msg.Session != p.session || msg.Gen != p.gen || !p.Running() {
		return nil
	}
	switch {
	case p.facade.Percent < fastCeil:
		p.facade.Percent += fastRate
		if p.facade.Percent > fastCeil {
			p.facade.Percent = fastCeil
		}
	case p.facade.Percent < frozenCeil:
		p.facade.Percent += slowRate
		if p.facade.Percent > frozenCeil {
			p.facade.Percent = frozenCeil
		}
	}
	return p.tick()
}

// HandleResult merges a finished call into the form and decides the
// transition. Failure policy differs by kind on purpose: goal/idea
// proceeds so the user can fill the field manually, structure and
// sources stay on the originating step with a retry control.
func (p *Pipeline) HandleResult(msg ResultMsg, f *form.Form, activeDraftID string) Outcome {
	if msg.Session != p.session || msg.Kind != p.running {
		return Outcome{}
	}
	if msg.DraftID != "" && msg.DraftID != activeDraftID {
		// Reply for a draft the wizard no longer owns. An empty id is
		// not stale: it means the call raced the first create, and the
		// session check above already vouches for it.
		p.clear()
		return Outcome{}
	}
	kind := p.running
	landing := p.landing
	p.clear()
	if msg.Err != nil {
		p.failedKind = kind
		p.lastErr = msg.Err.Error()
		if kind == steps.SuggestDetails {
			return Outcome{Proceed: true, Landing: landing}
		}
		return Outcome{Retry: true}
	}
	switch kind {
	case steps.SuggestDetails:
		f.SetGoalIdea(msg.Details.Goal, msg.Details.Idea)
	case steps.SuggestStructure:
		sections := make([]form.Section, 0, len(msg.Sections))
		for _, s := range msg.Sections {
			// The server supplies no ids; SetStructure assigns fresh ones.
			sections = append(sections, form.Section{Title: s.Title, Level: s.Level})
		}
		f.SetStructure(sections)
	case steps.SuggestSources:
		sources := make([]form.Source, 0, len(msg.Sources))
		for _, s := range msg.Sources {
			sources = append(sources, form.Source{
				Title: s.Title, Author: s.Author, Year: s.Year, URL: s.URL,
				Suggested: true, Verified: s.Verified, Score: s.Score,
			})
		}
		f.SetSources(sources)
	}
	return Outcome{Proceed: true, Landing: landing}
}

func (p *Pipeline) clear() {
	p.facade.Percent = 100
	p.active = false
	p.running = steps.SuggestNone
	p.gen++
}

func (p *Pipeline) tick() tea.Cmd {
	session := p.session
	gen := p.gen
	return tea.Tick(tickEvery, func(time.Time) tea.Msg {
		return TickMsg{Session: session, Gen: gen}
	})
}

func (p *Pipeline) call(kind steps.Suggestion, f form.Form, draftID string) tea.Cmd {
	session := p.session
	client := p.client
	switch kind {
	case steps.SuggestDetails:
		req := api.DetailsRequest{Topic: f.Topic}
		return func() tea.Msg {
			res, err := client.SuggestDetails(context.Background(), req)
			return ResultMsg{Session: session, Kind: kind, DraftID: draftID, Details: res, Err: err}
		}
	case steps.SuggestStructure:
		req := api.StructureRequest{
			Topic: f.Topic, Goal: f.Goal, Idea: f.Idea,
			WorkType: f.WorkType, Volume: f.Volume, Complexity: f.Complexity,
		}
		return func() tea.Msg {
			res, err := client.SuggestStructure(context.Background(), req)
			return ResultMsg{Session: session, Kind: kind, DraftID: draftID, Sections: res.Sections, Err: err}
		}
	case steps.SuggestSources:
		req := api.SourcesRequest{
			Topic: f.Topic, Goal: f.Goal, Idea: f.Idea, Module: string(f.Family),
			WorkType: f.WorkType, Volume: f.Volume, Complexity: f.Complexity, Humanity: f.Humanity,
		}
		return func() tea.Msg {
			res, err := client.SuggestSources(context.Background(), req)
			return ResultMsg{Session: session, Kind: kind, DraftID: draftID, Sources: res.Sources, Err: err}
		}
	}
	return nil
}

func facadeFor(kind steps.Suggestion) Facade {
	switch kind {
	case steps.SuggestDetails:
		return Facade{
			Title: "Thinking about your topic",
			Tasks: []string{"Reading the topic", "Weighing angles", "Drafting a goal", "Sharpening the idea"},
		}
	case steps.SuggestStructure:
		return Facade{
			Title: "Building the outline",
			Tasks: []string{"Framing chapters", "Ordering sections", "Balancing volume", "Polishing titles"},
		}
	case steps.SuggestSources:
		return Facade{
			Title: "Collecting sources",
			Tasks: []string{"Searching catalogs", "Scoring relevance", "Checking availability", "Formatting citations"},
		}
	}
	return Facade{Title: "Working"}
}
