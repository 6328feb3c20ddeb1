package payments

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// erc20ABI and eip2612ABI are inlined rather than generated: both contracts
// are standard, widely deployed, and the only methods this client needs are
// a handful of view/write calls, the same reasoning behind inlining
// Multicall3's ABI in chain.Multicall.
const erc20ABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

const eip2612ABI = `[
	{"constant":true,"inputs":[],"name":"version","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"nonces","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var (
	erc20Parsed    abi.ABI
	eip2612Parsed  abi.ABI
	tokenDecimals  = uint8(18) // the client fixes decimals at 18 per the spec
)

func init() {
	var err error
	erc20Parsed, err = abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(fmt.Sprintf("payments: parsing ERC20 ABI: %v", err))
	}
	eip2612Parsed, err = abi.JSON(strings.NewReader(eip2612ABI))
	if err != nil {
		panic(fmt.Sprintf("payments: parsing EIP-2612 ABI: %v", err))
	}
}

type erc20Client struct {
	backend bind.ContractBackend
}

func (c *erc20Client) call(ctx context.Context, parsed abi.ABI, token common.Address, method string, out interface{}, args ...interface{}) error {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("packing %s: %w", method, err)
	}
	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	return parsed.UnpackIntoInterface(out, method, raw)
}

func (c *erc20Client) balanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := c.call(ctx, erc20Parsed, token, "balanceOf", &balance, account); err != nil {
		return nil, err
	}
	return balance, nil
}

func (c *erc20Client) allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var allowance *big.Int
	if err := c.call(ctx, erc20Parsed, token, "allowance", &allowance, owner, spender); err != nil {
		return nil, err
	}
	return allowance, nil
}

func (c *erc20Client) name(ctx context.Context, token common.Address) (string, error) {
	var name string
	if err := c.call(ctx, erc20Parsed, token, "name", &name); err != nil {
		return "", err
	}
	return name, nil
}

// version queries EIP-2612's optional version(); tokens that don't
// implement it (most legacy ERC-20s) fall back to "1", the EIP-2612
// convention this client follows rather than failing the permit flow.
func (c *erc20Client) version(ctx context.Context, token common.Address) string {
	var version string
	if err := c.call(ctx, eip2612Parsed, token, "version", &version); err != nil || version == "" {
		return "1"
	}
	return version
}

func (c *erc20Client) nonce(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var nonce *big.Int
	if err := c.call(ctx, eip2612Parsed, token, "nonces", &nonce, owner); err != nil {
		return nil, err
	}
	return nonce, nil
}

// packApprove returns calldata for approve(spender, amount), used both for
// direct approve() calls and the golden-path auto-approve inside deposit().
func packApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return erc20Parsed.Pack("approve", spender, amount)
}
