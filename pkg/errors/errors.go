// Package errors defines the typed error taxonomy shared across the client:
// every component tags failures with a Kind so callers can branch on cause
// (retry, wait, top up, contact support) instead of parsing messages.
package errors

import "fmt"

// Kind classifies an error independent of its message, mirroring the
// taxonomy every component in this module is expected to raise.
type Kind string

const (
	// Input errors
	KindInvalidPieceCID   Kind = "InvalidPieceCID"
	KindInvalidAmount     Kind = "InvalidAmount"
	KindInvalidAddress    Kind = "InvalidAddress"
	KindMalformedMetadata Kind = "MalformedMetadata"
	KindOptionsConflict   Kind = "OptionsConflict"

	// Capacity errors
	KindTooSmall           Kind = "TooSmall"
	KindTooLarge           Kind = "TooLarge"
	KindInsufficientFunds  Kind = "InsufficientFunds"
	KindUnsupportedToken   Kind = "UnsupportedToken"
	KindUnsupportedNetwork Kind = "UnsupportedNetwork"

	// State errors
	KindDataSetNotOwnedByClient Kind = "DataSetNotOwnedByClient"
	KindDataSetNotFound         Kind = "DataSetNotFound"
	KindDataSetCDNMismatch      Kind = "DataSetCDNmismatch"
	KindRailNotFound            Kind = "RailNotFound"
	KindFutureEpochRejected     Kind = "FutureEpochRejected"
	KindNoHealthyProvider       Kind = "NoHealthyProvider"
	KindNoProvidersAvailable    Kind = "NoProvidersAvailable"

	// Transport errors
	KindChainCallFailed            Kind = "ChainCallFailed"
	KindTxNotPropagated            Kind = "TxNotPropagated"
	KindTxReverted                 Kind = "TxReverted"
	KindServerRejectedPieceAddition Kind = "ServerRejectedPieceAddition"
	KindServerTimeout              Kind = "ServerTimeout"
	KindMalformedServerResponse    Kind = "MalformedServerResponse"
	KindHTTPError                  Kind = "HttpError"

	// Content errors
	KindDigestMismatch          Kind = "DigestMismatch"
	KindPieceParkingTimeout     Kind = "PieceParkingTimeout"
	KindMissingConfirmedPieceID Kind = "MissingConfirmedPieceId"
	KindAllProvidersFailed      Kind = "AllProvidersFailed"

	// Lifecycle errors
	KindDataSetCreationFailed  Kind = "DataSetCreationFailed"
	KindSessionKeyNotAuthorised Kind = "SessionKeyNotAuthorised"
)

// Error is the concrete type every component returns. It keeps a Kind for
// programmatic branching, a human message, an optional wrapped cause, and a
// free-form field bag for the context named in the taxonomy (status codes,
// expected/got digests, provider-failure summaries, transaction hashes).
type Error struct {
	Kind    Kind
	Op      string // component/operation that raised the error, e.g. "storagecontext.upload"
	Message string
	Cause   error
	Fields  map[string]interface{}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, &Error{Kind: K}) comparisons against Kind alone.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	if other.Kind == "" {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs a typed error with no wrapped cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs a typed error around an existing cause, preserving the chain.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: cause.Error(), Cause: cause}
}

// WithField attaches structured context and returns the receiver for chaining.
func (e *Error) WithField(key string, value interface{}) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithTxHash is a convenience for the "transaction hashes are always
// included when known" requirement on transport/lifecycle errors.
func (e *Error) WithTxHash(hash string) *Error {
	return e.WithField("txHash", hash)
}

// KindOf extracts the Kind from err if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var target *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			target = e
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if target == nil {
		return "", false
	}
	return target.Kind, true
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
