package payments

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

// permitTypes describes the EIP-712 domain and the EIP-2612 Permit struct;
// every stable-coin this client supports implements this exact shape.
var permitTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Permit": {
		{Name: "owner", Type: "address"},
		{Name: "spender", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
}

// defaultPermitValidity is the window applied when a caller does not supply
// a deadline: now + 1 hour.
const defaultPermitValidity = time.Hour

// PermitSignature is the forwarded (v, r, s) plus the deadline it was
// computed against.
type PermitSignature struct {
	V        uint8
	R        [32]byte
	S        [32]byte
	Deadline *big.Int
}

// derivePermit implements the permit construction algorithm: batch
// balanceOf/name/version/nonces in one multicall (version is allowed to
// fail and falls back to "1"), build the EIP-712 domain and message, and
// have the signer produce a typed-data signature over it.
func (p *Payments) derivePermit(ctx context.Context, amount, deadline *big.Int) (*PermitSignature, error) {
	owner := p.adapter.Signer.Address()
	token := p.token

	if deadline == nil {
		deadline = big.NewInt(time.Now().Add(defaultPermitValidity).Unix())
	}

	balanceCall, err := erc20Parsed.Pack("balanceOf", owner)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.derivePermit", err)
	}
	nameCall, err := erc20Parsed.Pack("name")
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.derivePermit", err)
	}
	versionCall, err := eip2612Parsed.Pack("version")
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.derivePermit", err)
	}
	nonceCall, err := eip2612Parsed.Pack("nonces", owner)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.derivePermit", err)
	}

	results, err := p.adapter.Multicall.Aggregate(ctx, []chain.Call3{
		{Target: token, AllowFailure: false, CallData: balanceCall},
		{Target: token, AllowFailure: false, CallData: nameCall},
		{Target: token, AllowFailure: true, CallData: versionCall}, // optional
		{Target: token, AllowFailure: false, CallData: nonceCall},
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.derivePermit", err)
	}

	var balance *big.Int
	if err := erc20Parsed.UnpackIntoInterface(&balance, "balanceOf", results[0].ReturnData); err != nil {
		return nil, errors.Wrap(errors.KindMalformedServerResponse, "payments.derivePermit", err)
	}
	if balance.Cmp(amount) < 0 {
		return nil, errors.New(errors.KindInsufficientFunds, "payments.derivePermit", "wallet balance below requested deposit amount").
			WithField("balance", balance.String()).WithField("amount", amount.String())
	}

	var name string
	if err := erc20Parsed.UnpackIntoInterface(&name, "name", results[1].ReturnData); err != nil {
		return nil, errors.Wrap(errors.KindMalformedServerResponse, "payments.derivePermit", err)
	}

	version := "1"
	if results[2].Success {
		var v string
		if err := eip2612Parsed.UnpackIntoInterface(&v, "version", results[2].ReturnData); err == nil && v != "" {
			version = v
		}
	}

	var nonce *big.Int
	if err := eip2612Parsed.UnpackIntoInterface(&nonce, "nonces", results[3].ReturnData); err != nil {
		return nil, errors.Wrap(errors.KindMalformedServerResponse, "payments.derivePermit", err)
	}

	domain := apitypes.TypedDataDomain{
		Name:              name,
		Version:           version,
		ChainId:           (*math.HexOrDecimal256)(p.adapter.ChainID),
		VerifyingContract: token.Hex(),
	}
	message := apitypes.TypedDataMessage{
		"owner":    owner.Hex(),
		"spender":  p.adapter.Addresses.Payments.Hex(),
		"value":    amount,
		"nonce":    nonce,
		"deadline": deadline,
	}

	sig, err := p.adapter.Signer.SignTypedData(ctx, domain, permitTypes, "Permit", message)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.derivePermit", err)
	}

	v, r, s, err := chain.SplitSignature(sig)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.derivePermit", fmt.Errorf("splitting permit signature: %w", err))
	}

	return &PermitSignature{V: v, R: r, S: s, Deadline: deadline}, nil
}
