package domain

// CircuitBreaker corta la sesión tras varios rechazos seguidos del venue.
type CircuitBreaker struct {
	MaxRejections   int // 0 desactiva el breaker
	Consecutive     int
	Triggered       bool
	TriggeredReason string
}

// NewCircuitBreaker crea un breaker que salta tras maxRejections seguidos.
func NewCircuitBreaker(maxRejections int) *CircuitBreaker {
	return &CircuitBreaker{MaxRejections: maxRejections}
}

// IsOpen devuelve true si se puede seguir operando.
func (cb *CircuitBreaker) IsOpen() bool {
	return !cb.Triggered
}

// RecordRejection cuenta un rechazo y puede disparar el breaker.
func (cb *CircuitBreaker) RecordRejection(reason string) {
	cb.Consecutive++
	if cb.MaxRejections > 0 && cb.Consecutive >= cb.MaxRejections {
		cb.Triggered = true
		cb.TriggeredReason = reason
	}
}

// RecordSuccess reinicia el contador de rechazos seguidos.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.Consecutive = 0
}
