package vehiclereg

import "time"

// PaymentDeadlineDays is the payment window opened when an application is
// approved. The regulation allows 21 calendar days from approval.
const PaymentDeadlineDays = 21

// PaymentDeadlineFrom computes the payment deadline for an approval at t
func PaymentDeadlineFrom(t time.Time) time.Time {
	return t.AddDate(0, 0, PaymentDeadlineDays)
}

// IsPaymentOverdue reports whether the application sits in PAYMENT_PENDING
// past its deadline at the given instant. Applications in any other status
// are never overdue, whatever their deadline field holds.
func (a *Application) IsPaymentOverdue(now time.Time) bool {
	if a.Status != StatusPaymentPending || a.PaymentDeadline == nil {
		return false
	}
	return now.After(*a.PaymentDeadline)
}
