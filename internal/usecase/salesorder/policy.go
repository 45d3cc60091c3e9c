package salesorder

import "time"

// CancellationPolicy decides whether an actor may still cancel a pending
// order. The window length is configuration, not a constant baked into
// callers.
type CancellationPolicy struct {
	Window     time.Duration
	Privileged map[string]bool
}

func NewCancellationPolicy(window time.Duration, privilegedRoles []string) CancellationPolicy {
	priv := make(map[string]bool, len(privilegedRoles))
	for _, r := range privilegedRoles {
		priv[r] = true
	}
	return CancellationPolicy{Window: window, Privileged: priv}
}

// CanCancel reports whether the order may be cancelled by actorRole at now.
// Only Pending orders are cancellable at all; privileged roles are not
// bound by the window.
func (p CancellationPolicy) CanCancel(o *Order, actorRole string, now time.Time) bool {
	if o.Status != StatusPending {
		return false
	}
	if p.Privileged[actorRole] {
		return true
	}
	return !now.After(o.DateOrdered.Add(p.Window))
}

// IsOverride reports whether a cancellation at now relies on the privileged
// bypass rather than the window. Callers label this path in audit output.
func (p CancellationPolicy) IsOverride(o *Order, actorRole string, now time.Time) bool {
	return p.Privileged[actorRole] && now.After(o.DateOrdered.Add(p.Window))
}
