package token

import (
	"net/http"
	"time"
)

// State is the position a request reached in the authentication pipeline.
type State int

const (
	StateNoToken State = iota
	StateTokenPresent
	StateDecoded
	StateDecodeFailed
	StateValidated
	StateValidationFailed
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no_token"
	case StateTokenPresent:
		return "token_present"
	case StateDecoded:
		return "decoded"
	case StateDecodeFailed:
		return "decode_failed"
	case StateValidated:
		return "validated"
	case StateValidationFailed:
		return "validation_failed"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of running the pipeline once.
type Result struct {
	State  State
	Claims *Claims
	Err    error
}

// Authenticated reports whether the pipeline ended in StateValidated.
func (r Result) Authenticated() bool {
	return r.State == StateValidated && r.Claims != nil
}

// Verifier runs extraction, decoding and validation as one pipeline. It holds
// no per-request state, so the same token always yields the same Result for
// a given clock reading.
type Verifier struct {
	codec     *Codec
	validator *Validator
	now       func() time.Time
}

// NewVerifier wires a codec and validator. A nil clock means time.Now.
func NewVerifier(codec *Codec, validator *Validator, clock func() time.Time) *Verifier {
	if clock == nil {
		clock = time.Now
	}
	return &Verifier{codec: codec, validator: validator, now: clock}
}

// Resolve runs the pipeline against the bearer token carried by r.
func (v *Verifier) Resolve(r *http.Request) Result {
	raw, ok := Extract(r)
	if !ok {
		return Result{State: StateNoToken}
	}
	return v.Check(raw)
}

// Check runs decode and validate on a raw token string.
func (v *Verifier) Check(raw string) Result {
	claims, err := v.codec.Decode(raw)
	if err != nil {
		return Result{State: StateDecodeFailed, Err: err}
	}
	if err := v.validator.Validate(claims, v.now()); err != nil {
		return Result{State: StateValidationFailed, Claims: claims, Err: err}
	}
	return Result{State: StateValidated, Claims: claims}
}

// Now returns the verifier's clock reading.
func (v *Verifier) Now() time.Time {
	return v.now()
}
