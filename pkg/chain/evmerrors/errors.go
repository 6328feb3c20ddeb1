package evmerrors

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractError is a decoded EVM custom error with enough structure for a
// caller to branch on without re-parsing hex.
type ContractError interface {
	error
	ErrorName() string
	ErrorSelector() string
}

// namedErrorsABI enumerates every named revert the adapter recognizes,
// spanning the Payments and ServiceProviderRegistry contracts. Selectors are
// derived by go-ethereum from these signatures, not hardcoded, so they stay
// correct if a field is reordered.
const namedErrorsABI = `[
	{"type":"error","name":"RailInactiveOrSettled","inputs":[{"name":"railId","type":"uint256"}]},
	{"type":"error","name":"CannotSettleFutureEpochs","inputs":[{"name":"currentEpoch","type":"uint256"},{"name":"untilEpoch","type":"uint256"}]},
	{"type":"error","name":"InvalidEpochRange","inputs":[{"name":"fromEpoch","type":"uint256"},{"name":"toEpoch","type":"uint256"}]},
	{"type":"error","name":"ZeroAddress","inputs":[{"name":"field","type":"uint8"}]},
	{"type":"error","name":"MaxProvingPeriodZero","inputs":[]},
	{"type":"error","name":"ProviderNotRegistered","inputs":[{"name":"provider","type":"address"}]},
	{"type":"error","name":"CallerNotPayerOrPayee","inputs":[{"name":"dataSetId","type":"uint256"},{"name":"expectedPayer","type":"address"},{"name":"expectedPayee","type":"address"},{"name":"caller","type":"address"}]}
]`

var namedErrorsParsedABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(namedErrorsABI))
	if err != nil {
		panic(fmt.Sprintf("evmerrors: invalid named-error ABI: %v", err))
	}
	namedErrorsParsedABI = parsed

	ErrorDecoders = make(map[string]func([]byte) (ContractError, error), len(parsed.Errors))
	for name, def := range parsed.Errors {
		selector := "0x" + common.Bytes2Hex(def.ID[:4])
		decodeName := name
		ErrorDecoders[selector] = func(data []byte) (ContractError, error) {
			return decodeNamedError(decodeName, data)
		}
	}
}

// ErrorDecoders maps a 4-byte selector (hex, "0x"-prefixed) to a decoder
// producing the typed ContractError. Populated at init from namedErrorsABI.
var ErrorDecoders map[string]func([]byte) (ContractError, error)

func decodeNamedError(name string, data []byte) (ContractError, error) {
	def := namedErrorsParsedABI.Errors[name]
	values, err := def.Inputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", name, err)
	}

	switch name {
	case "RailInactiveOrSettled":
		return &RailInactiveOrSettled{RailId: values[0].(*big.Int)}, nil
	case "CannotSettleFutureEpochs":
		return &CannotSettleFutureEpochs{CurrentEpoch: values[0].(*big.Int), UntilEpoch: values[1].(*big.Int)}, nil
	case "InvalidEpochRange":
		return &InvalidEpochRange{FromEpoch: values[0].(*big.Int), ToEpoch: values[1].(*big.Int)}, nil
	case "ZeroAddress":
		return &ZeroAddress{Field: values[0].(uint8)}, nil
	case "MaxProvingPeriodZero":
		return &MaxProvingPeriodZero{}, nil
	case "ProviderNotRegistered":
		return &ProviderNotRegistered{Provider: values[0].(common.Address)}, nil
	case "CallerNotPayerOrPayee":
		return &CallerNotPayerOrPayee{
			DataSetId:     values[0].(*big.Int),
			ExpectedPayer: values[1].(common.Address),
			ExpectedPayee: values[2].(common.Address),
			Caller:        values[3].(common.Address),
		}, nil
	default:
		return nil, fmt.Errorf("no decoder registered for %s", name)
	}
}

// EncodeNamedError ABI-encodes a named revert the way a contract would emit
// it, for use in tests and mocked backends.
func EncodeNamedError(name string, args ...interface{}) (string, error) {
	def, ok := namedErrorsParsedABI.Errors[name]
	if !ok {
		return "", fmt.Errorf("unknown named error %q", name)
	}
	packed, err := def.Inputs.Pack(args...)
	if err != nil {
		return "", fmt.Errorf("packing %s: %w", name, err)
	}
	return "0x" + common.Bytes2Hex(def.ID[:4]) + common.Bytes2Hex(packed), nil
}

func selectorOf(name string) string {
	return "0x" + common.Bytes2Hex(namedErrorsParsedABI.Errors[name].ID[:4])
}

// RailInactiveOrSettled is raised by settleRail/settleTerminatedRailWithoutValidation
// when the rail is already fully settled or was never active.
type RailInactiveOrSettled struct {
	RailId *big.Int
}

func (e *RailInactiveOrSettled) Error() string {
	return fmt.Sprintf("RailInactiveOrSettled(RailId=%s)", e.RailId)
}
func (e *RailInactiveOrSettled) ErrorName() string     { return "RailInactiveOrSettled" }
func (e *RailInactiveOrSettled) ErrorSelector() string { return selectorOf("RailInactiveOrSettled") }

// CannotSettleFutureEpochs is raised when settle() is asked to settle past the current epoch.
type CannotSettleFutureEpochs struct {
	CurrentEpoch *big.Int
	UntilEpoch   *big.Int
}

func (e *CannotSettleFutureEpochs) Error() string {
	return fmt.Sprintf("CannotSettleFutureEpochs(CurrentEpoch=%s, UntilEpoch=%s)", e.CurrentEpoch, e.UntilEpoch)
}
func (e *CannotSettleFutureEpochs) ErrorName() string { return "CannotSettleFutureEpochs" }
func (e *CannotSettleFutureEpochs) ErrorSelector() string {
	return selectorOf("CannotSettleFutureEpochs")
}

type InvalidEpochRange struct {
	FromEpoch *big.Int
	ToEpoch   *big.Int
}

func (e *InvalidEpochRange) Error() string {
	return fmt.Sprintf("InvalidEpochRange(FromEpoch=%s, ToEpoch=%s)", e.FromEpoch, e.ToEpoch)
}
func (e *InvalidEpochRange) ErrorName() string     { return "InvalidEpochRange" }
func (e *InvalidEpochRange) ErrorSelector() string { return selectorOf("InvalidEpochRange") }

type ZeroAddress struct {
	Field uint8
}

func (e *ZeroAddress) Error() string       { return fmt.Sprintf("ZeroAddress(Field=%d)", e.Field) }
func (e *ZeroAddress) ErrorName() string   { return "ZeroAddress" }
func (e *ZeroAddress) ErrorSelector() string { return selectorOf("ZeroAddress") }

type MaxProvingPeriodZero struct{}

func (e *MaxProvingPeriodZero) Error() string       { return "MaxProvingPeriodZero()" }
func (e *MaxProvingPeriodZero) ErrorName() string   { return "MaxProvingPeriodZero" }
func (e *MaxProvingPeriodZero) ErrorSelector() string { return selectorOf("MaxProvingPeriodZero") }

type ProviderNotRegistered struct {
	Provider common.Address
}

func (e *ProviderNotRegistered) Error() string {
	return fmt.Sprintf("ProviderNotRegistered(Provider=%s)", e.Provider.Hex())
}
func (e *ProviderNotRegistered) ErrorName() string     { return "ProviderNotRegistered" }
func (e *ProviderNotRegistered) ErrorSelector() string { return selectorOf("ProviderNotRegistered") }

type CallerNotPayerOrPayee struct {
	DataSetId     *big.Int
	ExpectedPayer common.Address
	ExpectedPayee common.Address
	Caller        common.Address
}

func (e *CallerNotPayerOrPayee) Error() string {
	return fmt.Sprintf("CallerNotPayerOrPayee(DataSetId=%s, ExpectedPayer=%s, ExpectedPayee=%s, Caller=%s)",
		e.DataSetId, e.ExpectedPayer.Hex(), e.ExpectedPayee.Hex(), e.Caller.Hex())
}
func (e *CallerNotPayerOrPayee) ErrorName() string     { return "CallerNotPayerOrPayee" }
func (e *CallerNotPayerOrPayee) ErrorSelector() string { return selectorOf("CallerNotPayerOrPayee") }

// GetErrorName returns the decoded error's name, or "" if err is not a ContractError.
func GetErrorName(err error) string {
	if ce, ok := err.(ContractError); ok {
		return ce.ErrorName()
	}
	return ""
}

// GetErrorSelector returns the decoded error's selector, or "" if err is not a ContractError.
func GetErrorSelector(err error) string {
	if ce, ok := err.(ContractError); ok {
		return ce.ErrorSelector()
	}
	return ""
}

func IsInvalidEpochRange(err error) bool     { _, ok := err.(*InvalidEpochRange); return ok }
func IsZeroAddress(err error) bool           { _, ok := err.(*ZeroAddress); return ok }
func IsMaxProvingPeriodZero(err error) bool  { _, ok := err.(*MaxProvingPeriodZero); return ok }
func IsProviderNotRegistered(err error) bool { _, ok := err.(*ProviderNotRegistered); return ok }
func IsCallerNotPayerOrPayee(err error) bool { _, ok := err.(*CallerNotPayerOrPayee); return ok }
func IsRailInactiveOrSettled(err error) bool { _, ok := err.(*RailInactiveOrSettled); return ok }
func IsCannotSettleFutureEpochs(err error) bool {
	_, ok := err.(*CannotSettleFutureEpochs)
	return ok
}
