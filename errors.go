package lmg

import "github.com/pkg/errors"

var (
	ErrInvalidQubits      = errors.New("qubit count out of range")
	ErrParameterCount     = errors.New("parameter count does not match qubit count")
	ErrInvalidAngle       = errors.New("angle is not a finite number")
	ErrUnknownGate        = errors.New("unknown native gate")
	ErrGateArity          = errors.New("wrong gate arity")
	ErrUnknownParameter   = errors.New("unknown let parameter")
	ErrCliqueUnsupported  = errors.New("clique needs more qubits")
	ErrProbabilityCutoff  = errors.New("probabilities outside cutoff")
	ErrEmptyDistribution  = errors.New("empty probability distribution")
	ErrEmptyBatch         = errors.New("empty parameter batch")
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrPoolClosed         = errors.New("pool closed")
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")
)
