package leads

type Status string

const (
	StatusUnassigned Status = "unassigned"
	StatusAssigned   Status = "assigned"
	StatusCalled     Status = "called"
	StatusScheduled  Status = "scheduled"
	StatusCompleted  Status = "completed"
	StatusLost       Status = "lost"
)

// outcomeTransitions is the outcome track after assignment. Entering assigned is
// not listed: it happens only through assignment or an explicit override.
var outcomeTransitions = map[Status][]Status{
	StatusAssigned:  {StatusCalled},
	StatusCalled:    {StatusScheduled},
	StatusScheduled: {StatusCompleted, StatusLost},
}

func (s Status) Valid() bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusCalled, StatusScheduled, StatusCompleted, StatusLost:
		return true
	default:
		return false
	}
}

// Terminal reports whether no outcome transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusLost
}

// CanTransition reports whether an outcome update may move a lead from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range outcomeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
