// Package gate guards the irreversible job creation at the end of the
// wizard. It fetches the draft's price against the user's balance and,
// when credits fall short, walks the upsell branch: subscription offer
// first, one-off credit purchase on decline, and either path exits back
// to the gate rather than re-entering the wizard.
package gate

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/CheatB/zachot-sub000/internal/api"
)

// State is the gate's screen state.
type State int

const (
	Idle State = iota
	Loading
	Ready
	UpsellSubscription
	UpsellCredits
	Submitting
	Done
)

// CostMsg carries the cost lookup result.
type CostMsg struct {
	Session string
	DraftID string
	Cost    api.Cost
	Err     error
}

// JobMsg carries the job creation result.
type JobMsg struct {
	Session string
	DraftID string
	Job     api.Job
	Err     error
}

// Gate authorizes job creation for one draft at a time.
type Gate struct {
	client  *api.Client
	session string
	state   State
	draftID string
	cost    api.Cost
	job     api.Job
	errText string
}

// New creates an idle gate.
func New(client *api.Client) *Gate {
	return &Gate{client: client, session: uuid.NewString()}
}

func (g *Gate) State() State    { return g.state }
func (g *Gate) Cost() api.Cost  { return g.cost }
func (g *Gate) Job() api.Job    { return g.job }
func (g *Gate) Error() string   { return g.errText }
func (g *Gate) DraftID() string { return g.draftID }

// CanProceed reports whether the balance covers the draft.
func (g *Gate) CanProceed() bool {
	return g.state == Ready && g.cost.CanGenerate
}

// Load fetches cost and balance for the draft.
func (g *Gate) Load(draftID string) tea.Cmd {
	if g.state == Loading || g.state == Submitting {
		return nil
	}
	g.state = Loading
	g.draftID = draftID
	g.errText = ""
	session := g.session
	client := g.client
	return func() tea.Msg {
		cost, err := client.Cost(context.Background(), draftID)
		return CostMsg{Session: session, DraftID: draftID, Cost: cost, Err: err}
	}
}

// HandleCost applies a cost lookup result.
func (g *Gate) HandleCost(msg CostMsg) {
	if msg.Session != g.session || msg.DraftID != g.draftID || g.state != Loading {
		return
	}
	if msg.Err != nil {
		g.state = Idle
		g.errText = msg.Err.Error()
		return
	}
	g.cost = msg.Cost
	g.state = Ready
}

// OfferUpsell branches to the subscription offer. Only reachable when
// the balance is insufficient.
func (g *Gate) OfferUpsell() {
	if g.state == Ready && !g.cost.CanGenerate {
		g.state = UpsellSubscription
	}
}

// DeclineSubscription falls through to the one-off credit purchase.
func (g *Gate) DeclineSubscription() {
	if g.state == UpsellSubscription {
		g.state = UpsellCredits
	}
}

// ExitPurchase returns from either purchase flow to the gate and
// re-checks the balance.
func (g *Gate) ExitPurchase() tea.Cmd {
	if g.state != UpsellSubscription && g.state != UpsellCredits {
		return nil
	}
	g.state = Idle
	return g.Load(g.draftID)
}

// Confirm creates the job. One call per confirmation click: the button
// is disabled while Submitting, and an insufficient balance never gets
// this far.
func (g *Gate) Confirm() tea.Cmd {
	if !g.CanProceed() {
		return nil
	}
	g.state = Submitting
	g.errText = ""
	session := g.session
	client := g.client
	draftID := g.draftID
	return func() tea.Msg {
		job, err := client.CreateJob(context.Background(), draftID)
		return JobMsg{Session: session, DraftID: draftID, Job: job, Err: err}
	}
}

// HandleJob applies the job creation result. On failure the gate
// returns to Ready so the user can retry manually; nothing is retried
// automatically. Returns true once the job exists and the wizard no
// longer owns the draft.
func (g *Gate) HandleJob(msg JobMsg) bool {
	if msg.Session != g.session || msg.DraftID != g.draftID || g.state != Submitting {
		return false
	}
	if msg.Err != nil {
		g.state = Ready
		g.errText = msg.Err.Error()
		return false
	}
	g.job = msg.Job
	g.state = Done
	return true
}
