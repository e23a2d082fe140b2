package secrets

import (
	"errors"
	"fmt"
)

// ErrorKind classifies codec failures
type ErrorKind string

const (
	KindKeyConstruction       ErrorKind = "key_construction"
	KindNonceGeneration       ErrorKind = "nonce_generation"
	KindSealFailure           ErrorKind = "seal_failure"
	KindDecodeFailure         ErrorKind = "decode_failure"
	KindAuthenticationFailure ErrorKind = "authentication_failure"
)

// CryptoError is returned by every failing codec operation
type CryptoError struct {
	Kind ErrorKind
	Err  error
}

func (e *CryptoError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("secrets: %s", e.Kind)
	}
	return fmt.Sprintf("secrets: %s: %v", e.Kind, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// Is matches another *CryptoError of the same kind. A target with an empty
// kind matches any CryptoError.
func (e *CryptoError) Is(target error) bool {
	t, ok := target.(*CryptoError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// IsKind reports whether err is a CryptoError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var cerr *CryptoError
	if !errors.As(err, &cerr) {
		return false
	}
	return cerr.Kind == kind
}

func newError(kind ErrorKind, err error) error {
	return &CryptoError{Kind: kind, Err: err}
}
