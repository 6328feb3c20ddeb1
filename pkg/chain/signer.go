package chain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer is the external collaborator the facade wires in: it owns key
// material (which may live behind a hardware wallet) and exposes exactly
// the operations the adapter needs. The adapter never reaches for a raw
// private key itself.
type Signer interface {
	Address() common.Address
	SignTypedData(ctx context.Context, domain apitypes.TypedDataDomain, types apitypes.Types, primaryType string, message apitypes.TypedDataMessage) ([]byte, error)
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// PrivateKeySigner is the default Signer backing the "privateKey + rpcURL"
// facade constructor variant. Production deployments that need a hardware
// wallet or remote signer supply their own Signer instead.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*PrivateKeySigner)(nil)

// NewPrivateKeySigner wraps a raw ECDSA key.
func NewPrivateKeySigner(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// LoadPrivateKeySigner loads a hex or raw private key from a file.
func LoadPrivateKeySigner(path string) (*PrivateKeySigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	keyData := strings.TrimSpace(string(data))
	if strings.HasPrefix(keyData, "0x") {
		keyData = keyData[2:]
	}

	keyBytes, err := hex.DecodeString(keyData)
	if err != nil {
		keyBytes = data
	}

	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return NewPrivateKeySigner(key), nil
}

// LoadKeystoreSigner loads a private key from an encrypted keystore file.
func LoadKeystoreSigner(keystorePath, password string) (*PrivateKeySigner, error) {
	keystoreJSON, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, fmt.Errorf("reading keystore file: %w", err)
	}
	key, err := keystore.DecryptKey(keystoreJSON, password)
	if err != nil {
		return nil, fmt.Errorf("decrypting keystore: %w", err)
	}
	return NewPrivateKeySigner(key.PrivateKey), nil
}

func (s *PrivateKeySigner) Address() common.Address { return s.address }

func (s *PrivateKeySigner) SignTypedData(_ context.Context, domain apitypes.TypedDataDomain, typs apitypes.Types, primaryType string, message apitypes.TypedDataMessage) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types:       typs,
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hashing domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(primaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("hashing message: %w", err)
	}

	rawData := append([]byte{0x19, 0x01}, domainSeparator...)
	rawData = append(rawData, messageHash...)
	hash := crypto.Keccak256(rawData)

	signature, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("signing typed data: %w", err)
	}
	// Ethereum convention uses v in {27, 28}; crypto.Sign returns a recovery id in {0, 1}.
	signature[64] += 27
	return signature, nil
}

func (s *PrivateKeySigner) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("creating transactor: %w", err)
	}
	auth.Context = ctx
	auth.GasLimit = 0 // let the client estimate gas
	return auth, nil
}

// SplitSignature decomposes a 65-byte (r || s || v) signature into the
// components the EIP-2612 permit and EIP-712 auth calls expect.
func SplitSignature(sig []byte) (v uint8, r, s [32]byte, err error) {
	if len(sig) != 65 {
		return 0, r, s, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	v = sig[64]
	return v, r, s, nil
}

// ReceiptWaiter is the minimal surface the adapter needs to observe
// transaction propagation and confirmation; satisfied by *ethclient.Client.
type ReceiptWaiter interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}
