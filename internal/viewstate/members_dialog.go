// Package viewstate holds the serializable state of the desk members dialog
// and the pure transition function clients replay events through.
//
// This is the client-facing reducer contract; no server package imports it.
package viewstate

// Mode is the dialog's current screen.
type Mode string

const (
	ModeClosed            Mode = "closed"
	ModeBrowsing          Mode = "browsing"
	ModeAdding            Mode = "adding"
	ModeConfirmingRemoval Mode = "confirming_removal"
	ModeReviewingRequests Mode = "reviewing_requests"
)

// Action names the operation a Pending dialog is waiting on.
type Action string

const (
	ActionAdd          Action = "add"
	ActionRemove       Action = "remove"
	ActionLoadRequests Action = "load_requests"
	ActionRespond      Action = "respond"
)

// PendingAction is the one outstanding request of the dialog.
type PendingAction struct {
	Action    Action `json:"action"`
	UserID    string `json:"userId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Decision  string `json:"decision,omitempty"`
}

// MembersDialog is the full dialog state. The zero value is a closed dialog.
type MembersDialog struct {
	Mode            Mode           `json:"mode"`
	DeskID          string         `json:"deskId,omitempty"`
	AddTarget       string         `json:"addTarget,omitempty"`
	RemovalTarget   string         `json:"removalTarget,omitempty"`
	PendingRequests int            `json:"pendingRequests"`
	Loading         bool           `json:"loading"`
	Pending         *PendingAction `json:"pending,omitempty"`
	Error           string         `json:"error,omitempty"`
	Notice          string         `json:"notice,omitempty"`
}

// EventKind identifies a dialog event.
type EventKind string

const (
	EventOpen            EventKind = "open"
	EventClose           EventKind = "close"
	EventStartAdd        EventKind = "start_add"
	EventSelectAddTarget EventKind = "select_add_target"
	EventSubmitAdd       EventKind = "submit_add"
	EventAskRemove       EventKind = "ask_remove"
	EventConfirmRemoval  EventKind = "confirm_removal"
	EventCancel          EventKind = "cancel"
	EventReviewRequests  EventKind = "review_requests"
	EventRequestsLoaded  EventKind = "requests_loaded"
	EventSubmitDecision  EventKind = "submit_decision"
	EventResultOK        EventKind = "result_ok"
	EventResultFailed    EventKind = "result_failed"
)

// Event is an input to Update. Only the fields relevant to Kind are read.
type Event struct {
	Kind      EventKind `json:"kind"`
	DeskID    string    `json:"deskId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Count     int       `json:"count,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Update returns the state after event. It never mutates state and never
// performs I/O. While Loading, every submit is ignored.
func Update(state MembersDialog, event Event) MembersDialog {
	if state.Mode == "" {
		state.Mode = ModeClosed
	}

	switch event.Kind {
	case EventOpen:
		if event.DeskID == "" {
			return state
		}
		return MembersDialog{Mode: ModeBrowsing, DeskID: event.DeskID}

	case EventClose:
		return MembersDialog{Mode: ModeClosed}
	}

	if state.Mode == ModeClosed {
		return state
	}

	switch event.Kind {
	case EventStartAdd:
		if state.Mode == ModeBrowsing && !state.Loading {
			state.Mode = ModeAdding
			state.AddTarget = ""
			state.clearMessages()
		}

	case EventSelectAddTarget:
		if state.Mode == ModeAdding && !state.Loading {
			state.AddTarget = event.UserID
		}

	case EventSubmitAdd:
		if state.Mode == ModeAdding && !state.Loading && state.AddTarget != "" {
			state.begin(&PendingAction{Action: ActionAdd, UserID: state.AddTarget})
		}

	case EventAskRemove:
		if state.Mode == ModeBrowsing && !state.Loading && event.UserID != "" {
			state.Mode = ModeConfirmingRemoval
			state.RemovalTarget = event.UserID
			state.clearMessages()
		}

	case EventConfirmRemoval:
		if state.Mode == ModeConfirmingRemoval && !state.Loading {
			state.begin(&PendingAction{Action: ActionRemove, UserID: state.RemovalTarget})
		}

	case EventCancel:
		if !state.Loading {
			state.Mode = ModeBrowsing
			state.AddTarget = ""
			state.RemovalTarget = ""
			state.clearMessages()
		}

	case EventReviewRequests:
		if state.Mode == ModeBrowsing && !state.Loading {
			state.Mode = ModeReviewingRequests
			state.begin(&PendingAction{Action: ActionLoadRequests})
		}

	case EventRequestsLoaded:
		if state.Pending != nil && state.Pending.Action == ActionLoadRequests {
			state.PendingRequests = event.Count
			state.finish()
		}

	case EventSubmitDecision:
		if state.Mode == ModeReviewingRequests && !state.Loading && event.RequestID != "" {
			state.begin(&PendingAction{Action: ActionRespond, RequestID: event.RequestID, Decision: event.Decision})
		}

	case EventResultOK:
		if state.Pending == nil {
			return state
		}
		switch state.Pending.Action {
		case ActionAdd:
			state.Mode = ModeBrowsing
			state.AddTarget = ""
		case ActionRemove:
			state.Mode = ModeBrowsing
			state.RemovalTarget = ""
		case ActionRespond:
			if state.PendingRequests > 0 {
				state.PendingRequests--
			}
		case ActionLoadRequests:
			state.PendingRequests = event.Count
		}
		state.finish()
		state.Notice = event.Message

	case EventResultFailed:
		if state.Pending == nil {
			return state
		}
		state.finish()
		state.Error = event.Message
	}

	return state
}

// Update is the method form of the package-level Update.
func (d MembersDialog) Update(event Event) MembersDialog {
	return Update(d, event)
}

// CanSubmit reports whether a submit event would currently be accepted.
func (d MembersDialog) CanSubmit() bool {
	if d.Loading {
		return false
	}
	switch d.Mode {
	case ModeAdding:
		return d.AddTarget != ""
	case ModeConfirmingRemoval, ModeReviewingRequests:
		return true
	default:
		return false
	}
}

func (d *MembersDialog) begin(p *PendingAction) {
	d.Loading = true
	d.Pending = p
	d.clearMessages()
}

func (d *MembersDialog) finish() {
	d.Loading = false
	d.Pending = nil
}

func (d *MembersDialog) clearMessages() {
	d.Error = ""
	d.Notice = ""
}
