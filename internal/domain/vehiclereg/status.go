package vehiclereg

// Status represents the lifecycle status of a registration application
type Status string

const (
	StatusSubmitted      Status = "SUBMITTED"
	StatusUnderReview    Status = "UNDER_REVIEW"
	StatusApproved       Status = "APPROVED"
	StatusDeclined       Status = "DECLINED"
	StatusPaymentPending Status = "PAYMENT_PENDING"
	StatusPaid           Status = "PAID"
	StatusRegistered     Status = "REGISTERED"
	StatusExpired        Status = "EXPIRED"
)

// AllStatuses lists every lifecycle status. Stats aggregation iterates this
// so dashboards always report zero-filled counts.
func AllStatuses() []Status {
	return []Status{
		StatusSubmitted,
		StatusUnderReview,
		StatusApproved,
		StatusDeclined,
		StatusPaymentPending,
		StatusPaid,
		StatusRegistered,
		StatusExpired,
	}
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusDeclined,
		StatusPaymentPending, StatusPaid, StatusRegistered, StatusExpired:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status accepts no further transitions
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRegistered, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

// AdminTransitionTargets is the restricted set of statuses the generic admin
// status-update operation may request. PAYMENT_PENDING, PAID and REGISTERED
// are reached only through the dedicated payment and registration
// operations; only those workflows may advance an application past approval.
var AdminTransitionTargets = []Status{
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusDeclined,
}

// IsAdminTransitionTarget reports whether the generic status-update
// operation accepts this status as a target
func (s Status) IsAdminTransitionTarget() bool {
	for _, t := range AdminTransitionTargets {
		if s == t {
			return true
		}
	}
	return false
}
