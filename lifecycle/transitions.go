package lifecycle

// transitions lists the legal successor statuses for each status.
// COMPLETED and CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusEnRoute, StatusCancelled},
	StatusEnRoute:    {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ValidTransition reports whether from -> to is a single legal hop.
func ValidTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reachable reports whether to can be reached from from via one or more
// legal hops. The change feed may collapse a fast CONFIRMED -> EN_ROUTE ->
// IN_PROGRESS run into a single delivery, so feed consumers accept any
// forward-reachable status, not only direct successors.
func Reachable(from, to Status) bool {
	if from == to {
		return false
	}
	seen := map[Status]bool{from: true}
	frontier := []Status{from}
	for len(frontier) > 0 {
		var next []Status
		for _, s := range frontier {
			for _, succ := range transitions[s] {
				if succ == to {
					return true
				}
				if !seen[succ] {
					seen[succ] = true
					next = append(next, succ)
				}
			}
		}
		frontier = next
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// IsCancellable reports whether the client may still cancel. Once a
// provider is on the way the engagement can no longer be called off.
func IsCancellable(s Status) bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsPaymentDue reports whether the booking is waiting on payment.
func IsPaymentDue(s Status, p PaymentStatus) bool {
	return s == StatusCompleted && p == PaymentUnpaid
}

// IsReviewDue reports whether the booking is waiting on a review.
func IsReviewDue(s Status, p PaymentStatus, reviewSubmitted bool) bool {
	return s == StatusCompleted && p == PaymentPaid && !reviewSubmitted
}
