// Package nav owns the wizard's navigable location. The resume link is
// a zachot://create URL carrying the active draft id as a query
// parameter; the terminal implementation mirrors it into a JSON state
// file together with the locally remembered step index.
package nav

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	resumeScheme = "zachot"
	resumeHost   = "create"
	// ParamDraftID is the query parameter that names the active draft.
	ParamDraftID = "draftId"
)

// Locator abstracts the navigable location so the synchronizer never
// touches the environment directly. Bind replaces the draft binding in
// place, without a history entry.
type Locator interface {
	DraftID() string
	StepIndex() int
	Bind(draftID string, stepIndex int) error
	Clear() error
}

// ResumeURL formats the shareable resume link for a draft.
func ResumeURL(draftID string) string {
	u := url.URL{Scheme: resumeScheme, Host: resumeHost}
	q := url.Values{}
	q.Set(ParamDraftID, draftID)
	u.RawQuery = q.Encode()
	return u.String()
}

// ParseResumeRef extracts a draft id from a resume link or a bare id.
// An absent draftId parameter means "start a new draft".
func ParseResumeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return u.Query().Get(ParamDraftID)
	}
	return ref
}

type locState struct {
	ResumeURL string `json:"resume_url,omitempty"`
	DraftID   string `json:"draft_id,omitempty"`
	StepIndex int    `json:"step_index"`
}

type fileState struct {
	Current locState   `json:"current"`
	Known   []locState `json:"known,omitempty"`
}

// FileLocator persists the location in a state file under the zachot
// state directory. Besides the active binding it remembers every draft
// ever bound, so `zachot drafts` can list resumable ones.
type FileLocator struct {
	path  string
	state fileState
}

// StatePath returns the default location state file path.
func StatePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "zachot", "location.json"), nil
}

// NewFileLocator loads (or initializes) a locator at path.
func NewFileLocator(path string) (*FileLocator, error) {
	loc := &FileLocator{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return loc, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &loc.state); err != nil {
		// A corrupt state file degrades to a fresh start.
		loc.state = fileState{}
	}
	return loc, nil
}

// DraftID returns the bound draft id, empty when none.
func (l *FileLocator) DraftID() string { return l.state.Current.DraftID }

// StepIndex returns the locally remembered step index.
func (l *FileLocator) StepIndex() int { return l.state.Current.StepIndex }

// Known returns the resume links of every draft ever bound, newest
// first.
func (l *FileLocator) Known() []string {
	out := make([]string, 0, len(l.state.Known))
	for i := len(l.state.Known) - 1; i >= 0; i-- {
		out = append(out, l.state.Known[i].ResumeURL)
	}
	return out
}

// RememberedStep returns the locally remembered step index for a
// draft, 0 when unknown.
func (l *FileLocator) RememberedStep(draftID string) int {
	for _, known := range l.state.Known {
		if known.DraftID == draftID {
			return known.StepIndex
		}
	}
	return 0
}

// Bind records the draft id and step index and rewrites the resume URL.
func (l *FileLocator) Bind(draftID string, stepIndex int) error {
	l.state.Current = locState{
		ResumeURL: ResumeURL(draftID),
		DraftID:   draftID,
		StepIndex: stepIndex,
	}
	l.remember(l.state.Current)
	return l.save()
}

func (l *FileLocator) remember(s locState) {
	for i, known := range l.state.Known {
		if known.DraftID == s.DraftID {
			l.state.Known[i] = s
			return
		}
	}
	l.state.Known = append(l.state.Known, s)
}

// Clear forgets the active binding; the known list survives so the
// draft stays resumable by reference.
func (l *FileLocator) Clear() error {
	l.state.Current = locState{}
	return l.save()
}

func (l *FileLocator) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, raw, 0o644)
}

// MemoryLocator is an in-process locator for tests.
type MemoryLocator struct {
	ID    string
	Index int
}

func (l *MemoryLocator) DraftID() string { return l.ID }
func (l *MemoryLocator) StepIndex() int  { return l.Index }

func (l *MemoryLocator) Bind(draftID string, stepIndex int) error {
	l.ID = draftID
	l.Index = stepIndex
	return nil
}

func (l *MemoryLocator) Clear() error {
	l.ID = ""
	l.Index = 0
	return nil
}
