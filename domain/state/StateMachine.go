package state

type State string

const (
	Draft     State = "draft"
	Submitted State = "submitted"
	Triaged   State = "triaged"
	Approved  State = "approved"
	Rejected  State = "rejected"
	Archived  State = "archived"
	Canceled  State = "canceled"
)

const (
	ActorWorker = "worker"
	ActorAdmin  = "admin"
)

type Transition struct {
	Name  string `json:"name"`
	From  State  `json:"from"`
	To    State  `json:"to"`
	Actor string `json:"actor"`

	ReasonRequired bool `json:"reasonRequired"`
}

// stateless object, just used for state computing
type StateMachine struct {
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
}

func NewStateMachine(states []State, transitions []Transition) *StateMachine {
	return &StateMachine{States: states, Transitions: transitions}
}

func (sm *StateMachine) AvailableTransitions(fromState, toState State, actor string) []Transition {
	r := []Transition{}
	for _, transition := range sm.Transitions {
		if (fromState == "" || fromState == transition.From) &&
			(toState == "" || toState == transition.To) &&
			(actor == "" || actor == transition.Actor) {
			r = append(r, transition)
		}
	}
	return r
}

func (sm *StateMachine) FindState(name string) (State, bool) {
	for _, s := range sm.States {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// ReportStateMachine drives the work report lifecycle. Locked states never
// appear as a transition source here; archiving is a separate admin
// operation (see ArchiveSources).
var ReportStateMachine = NewStateMachine(
	[]State{Draft, Submitted, Triaged, Approved, Rejected, Archived, Canceled},
	[]Transition{
		{Name: "submit", From: Draft, To: Submitted, Actor: ActorWorker},
		{Name: "cancel", From: Draft, To: Canceled, Actor: ActorWorker},

		{Name: "triage", From: Submitted, To: Triaged, Actor: ActorAdmin},
		{Name: "approve", From: Submitted, To: Approved, Actor: ActorAdmin},
		{Name: "approve", From: Triaged, To: Approved, Actor: ActorAdmin},
		{Name: "reject", From: Submitted, To: Rejected, Actor: ActorAdmin, ReasonRequired: true},
		{Name: "reject", From: Triaged, To: Rejected, Actor: ActorAdmin, ReasonRequired: true},

		{Name: "cancel", From: Draft, To: Canceled, Actor: ActorAdmin},
		{Name: "cancel", From: Submitted, To: Canceled, Actor: ActorAdmin},
		{Name: "cancel", From: Triaged, To: Canceled, Actor: ActorAdmin},
		{Name: "cancel", From: Rejected, To: Canceled, Actor: ActorAdmin},
	})

// ArchiveSources are the states an admin may archive from, outside the
// regular transition table.
var ArchiveSources = []State{Approved, Rejected}

// IsLocked reports whether a state is a terminal sink: no further mutation
// of the record is accepted through the engine.
func IsLocked(s State) bool {
	return s == Approved || s == Archived || s == Canceled
}

func IsArchivable(s State) bool {
	for _, candidate := range ArchiveSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// VisibleNonTerminalStates are the default states of review listings.
func VisibleNonTerminalStates() []State {
	return []State{Draft, Submitted, Triaged, Rejected}
}
