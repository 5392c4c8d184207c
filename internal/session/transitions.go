package session

// validTransitions enumerates the forward edges of the workflow state
// machine. Returning to StateNone is always allowed: it is the abort and
// completion path of every workflow.
var validTransitions = map[State][]State{
	StateNone: {
		StateAwaitingWebhookToken,
		StateAwaitingInfoToken,
		StateAwaitingDeleteHookToken,
		StateAwaitingDeleteFilename,
	},
	StateAwaitingWebhookToken: {
		StateAwaitingWebhookFilename,
	},
	StateAwaitingInfoToken: {
		StateAwaitingInfoFilename,
	},
	StateAwaitingDeleteHookToken: {
		StateAwaitingDeleteHookFilename,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateNone {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
