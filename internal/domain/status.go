package domain

// Status modela el ciclo de vida de una transferencia:
// PENDING -> SUBMITTED -> CONFIRMED | FAILED
// PENDING -> CANCELLED | EXPIRED
// Los estados terminales no tienen salidas.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

var statusEdges = map[Status][]Status{
	StatusPending:   {StatusSubmitted, StatusCancelled, StatusExpired},
	StatusSubmitted: {StatusConfirmed, StatusFailed},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusConfirmed, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Terminal indica si el estado no admite mas transiciones.
func (s Status) Terminal() bool {
	return s.Valid() && len(statusEdges[s]) == 0
}

// CanTransitionTo valida una arista del grafo de estados.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusEdges[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
