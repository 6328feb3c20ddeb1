package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ethereumCallMsg builds the read-only call message shared by every raw
// ABI-packed eth_call in this package (multicall aggregation, permit
// metadata probes).
func ethereumCallMsg(to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}

// multicall3ABI is the subset of Multicall3's interface this client needs.
// No generated binding for Multicall3 exists anywhere we could draw from, so
// the ABI is inlined the way eip712.permit.go inlines erc20ABI/eip2612ABI for
// small, widely-deployed contracts that don't warrant full abigen output.
const multicall3ABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "target", "type": "address"},
					{"internalType": "bool", "name": "allowFailure", "type": "bool"},
					{"internalType": "bytes", "name": "callData", "type": "bytes"}
				],
				"internalType": "struct Multicall3.Call3[]",
				"name": "calls",
				"type": "tuple[]"
			}
		],
		"name": "aggregate3",
		"outputs": [
			{
				"components": [
					{"internalType": "bool", "name": "success", "type": "bool"},
					{"internalType": "bytes", "name": "returnData", "type": "bytes"}
				],
				"internalType": "struct Multicall3.Result[]",
				"name": "returnData",
				"type": "tuple[]"
			}
		],
		"stateMutability": "payable",
		"type": "function"
	}
]`

var multicall3Parsed abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(multicall3ABI))
	if err != nil {
		panic(fmt.Sprintf("chain: parsing multicall3 ABI: %v", err))
	}
	multicall3Parsed = parsed
}

// Call3 is one leg of a batched read. AllowFailure lets the caller keep
// reading the rest of the batch when a single probe reverts (e.g. a token
// that doesn't implement EIP-2612's optional version()).
type Call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// Result3 mirrors Multicall3.Result: Success plus the raw ABI-encoded
// return value, left to the caller to unpack against the callee's ABI.
type Result3 struct {
	Success    bool
	ReturnData []byte
}

// Multicall batches independent eth_call reads into a single round trip via
// Multicall3.aggregate3. Used for token metadata probes (name/version/nonce
// across ERC-20s) and session-key expiry reads, wherever two or more calls
// can be coalesced (see the scheduling note on batched reads).
type Multicall struct {
	address common.Address
	backend bind.ContractBackend
}

// NewMulticall binds a Multicall3 client. Pass chain.Multicall3Address
// unless the deployment target uses a nonstandard address.
func NewMulticall(address common.Address, backend bind.ContractBackend) *Multicall {
	return &Multicall{address: address, backend: backend}
}

// Aggregate executes calls in one batched eth_call. The returned slice is
// positional with calls; a false Success with AllowFailure means the
// individual call reverted and ReturnData holds the revert payload.
func (m *Multicall) Aggregate(ctx context.Context, calls []Call3) ([]Result3, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	type call3Tuple struct {
		Target       common.Address
		AllowFailure bool
		CallData     []byte
	}
	tuples := make([]call3Tuple, len(calls))
	for i, c := range calls {
		tuples[i] = call3Tuple{Target: c.Target, AllowFailure: c.AllowFailure, CallData: c.CallData}
	}

	packed, err := multicall3Parsed.Pack("aggregate3", tuples)
	if err != nil {
		return nil, fmt.Errorf("packing aggregate3: %w", err)
	}

	raw, err := m.backend.CallContract(ctx, ethereumCallMsg(m.address, packed), nil)
	if err != nil {
		return nil, fmt.Errorf("calling aggregate3: %w", err)
	}

	var out []struct {
		Success    bool
		ReturnData []byte
	}
	if err := multicall3Parsed.UnpackIntoInterface(&out, "aggregate3", raw); err != nil {
		return nil, fmt.Errorf("unpacking aggregate3 result: %w", err)
	}

	results := make([]Result3, len(out))
	for i, r := range out {
		results[i] = Result3{Success: r.Success, ReturnData: r.ReturnData}
	}
	return results, nil
}
