// Package draftsync keeps the server draft eventually consistent with
// the local form. Writes are debounced, serialized and created at most
// once per session; everything runs on the Bubble Tea event loop, so
// the only suspension points are the network commands it returns.
package draftsync

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/CheatB/zachot-sub000/internal/api"
	"github.com/CheatB/zachot-sub000/internal/form"
	"github.com/CheatB/zachot-sub000/internal/nav"
	"github.com/CheatB/zachot-sub000/internal/steps"
)

// Quiet is the debounce window: a mutation schedules a persist this far
// in the future, and any later mutation restarts the clock.
const Quiet = 2 * time.Second

// Phase is the synchronizer's write state. Having Creating and
// Persisting as distinct states (instead of ambient booleans) makes an
// overlapping second write unrepresentable.
type Phase int

const (
	Idle Phase = iota
	Creating
	Persisting
)

// TickMsg fires when a debounce timer elapses. Gen identifies the
// timer generation; a tick from a superseded timer is dropped, which
// is what gives the window its reset-not-queue semantics.
type TickMsg struct {
	Session string
	Gen     int
}

// SavedMsg reports a finished create or update. Session lets a model
// that restarted the wizard discard completions from the old life.
type SavedMsg struct {
	Session   string
	DraftID   string
	Created   bool
	StepIndex int
	Err       error
}

// Synchronizer owns the draft write path. It is not safe for use
// outside the event loop, and does not need to be.
type Synchronizer struct {
	client  *api.Client
	loc     nav.Locator
	logf    func(format string, args ...any)
	session string
	phase   Phase
	draftID string
	gen     int
	dirty   bool

	lastRev  uint64
	flushRev uint64
}

// New creates a synchronizer. logf may be nil.
func New(client *api.Client, loc nav.Locator, logf func(string, ...any)) *Synchronizer {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Synchronizer{
		client:  client,
		loc:     loc,
		logf:    logf,
		session: uuid.NewString(),
	}
}

// DraftID returns the active draft id, empty before the first create.
func (s *Synchronizer) DraftID() string { return s.draftID }

// Phase returns the current write state.
func (s *Synchronizer) Phase() Phase { return s.phase }

// Adopt binds an existing draft id, used by the resume flow. No write
// is scheduled; the next mutation persists as an update.
func (s *Synchronizer) Adopt(draftID string) { s.draftID = draftID }

// Reset abandons the session: the draft id is forgotten, outstanding
// completions and timers are orphaned by the new session id, and the
// locator binding is cleared.
func (s *Synchronizer) Reset() {
	s.session = uuid.NewString()
	s.phase = Idle
	s.draftID = ""
	s.gen++
	s.dirty = false
	s.lastRev = 0
	s.flushRev = 0
	if err := s.loc.Clear(); err != nil {
		s.logf("locator clear: %v", err)
	}
}

// Change notes a form mutation and restarts the quiet window.
func (s *Synchronizer) Change() tea.Cmd {
	s.gen++
	gen := s.gen
	session := s.session
	return tea.Tick(Quiet, func(time.Time) tea.Msg {
		return TickMsg{Session: session, Gen: gen}
	})
}

// HandleTick fires the persist for an elapsed quiet window. The form
// and step are read at fire time, so coalesced edits persist the last
// snapshot. A tick while a write is in flight marks the state dirty
// instead of starting a second write.
func (s *Synchronizer) HandleTick(msg TickMsg, f form.Form, cur steps.Step) tea.Cmd {
	if msg.Session != s.session || msg.Gen != s.gen {
		return nil
	}
	if s.phase != Idle {
		s.dirty = true
		return nil
	}
	return s.flush(f, cur)
}

// FlushNow persists immediately with an explicit step override,
// bypassing the quiet window. The suggestion pipeline uses it after a
// merge. A pending debounce timer is superseded.
func (s *Synchronizer) FlushNow(f form.Form, cur steps.Step) tea.Cmd {
	s.gen++
	if s.phase != Idle {
		s.dirty = true
		return nil
	}
	return s.flush(f, cur)
}

// HandleSaved completes a write. Error taxonomy: a vanished draft (404)
// drops the local id so the next write re-creates; a promoted draft
// (409) is nothing to do; anything else is logged and superseded by the
// next cycle. A mutation that arrived mid-flight schedules a fresh
// quiet window.
func (s *Synchronizer) HandleSaved(msg SavedMsg) tea.Cmd {
	if msg.Session != s.session {
		return nil
	}
	s.phase = Idle
	switch {
	case msg.Err == nil:
		if msg.Created {
			s.draftID = msg.DraftID
		}
		s.lastRev = s.flushRev
		if err := s.loc.Bind(s.draftID, msg.StepIndex); err != nil {
			s.logf("locator bind: %v", err)
		}
	case errors.Is(msg.Err, api.ErrNotFound):
		s.logf("draft %s gone, will re-create", s.draftID)
		s.draftID = ""
		s.dirty = true
	case errors.Is(msg.Err, api.ErrConflict):
		// Already promoted to a job; the input change is moot.
	default:
		s.logf("persist failed: %v", msg.Err)
	}
	if s.dirty {
		s.dirty = false
		return s.Change()
	}
	return nil
}

func (s *Synchronizer) flush(f form.Form, cur steps.Step) tea.Cmd {
	stepIndex := steps.Index(cur, f.Family)
	if s.draftID != "" && f.Rev() == s.lastRev {
		// Nothing changed since the last persist. The step binding is
		// local, so refresh it without a network write.
		if err := s.loc.Bind(s.draftID, stepIndex); err != nil {
			s.logf("locator bind: %v", err)
		}
		return nil
	}
	s.flushRev = f.Rev()
	session := s.session
	client := s.client
	if s.draftID == "" {
		s.phase = Creating
		req := api.CreateDraftRequest{
			Module:          string(f.Family),
			WorkType:        f.WorkType,
			ComplexityLevel: f.Complexity,
			HumanityLevel:   f.Humanity,
			Input:           f.Input(),
			Settings:        f.Settings(),
		}
		return func() tea.Msg {
			d, err := client.CreateDraft(context.Background(), req)
			return SavedMsg{Session: session, DraftID: d.ID, Created: err == nil, StepIndex: stepIndex, Err: err}
		}
	}
	s.phase = Persisting
	id := s.draftID
	settings := f.Settings()
	req := api.UpdateDraftRequest{Settings: &settings}
	if !steps.JobCreated(cur) {
		input := f.Input()
		req.Input = &input
		req.WorkType = f.WorkType
		req.ComplexityLevel = f.Complexity
		req.HumanityLevel = f.Humanity
	}
	return func() tea.Msg {
		_, err := client.UpdateDraft(context.Background(), id, req)
		return SavedMsg{Session: session, DraftID: id, StepIndex: stepIndex, Err: err}
	}
}
