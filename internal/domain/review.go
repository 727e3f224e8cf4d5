package domain

// ReviewStatus is shared by submissions and withdrawal requests.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "PENDING"
	StatusApproved ReviewStatus = "APPROVED"
	StatusRejected ReviewStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

var allowedTransitions = map[ReviewStatus][]ReviewStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

// CanTransition reports whether a record may move from s to next.
func (s ReviewStatus) CanTransition(next ReviewStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Decision is an admin verdict on a pending record.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Target returns the status a decision moves a record to.
func (d Decision) Target() ReviewStatus {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}
