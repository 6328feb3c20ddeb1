package facade

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
)

// Config wires one Synapse facade. PrivateKeyPath or Signer supplies signing
// authority and Backend optionally supplies the chain connection: a Backend
// must be paired with a Signer or PrivateKeyPath, PrivateKeyPath or Signer
// without a Backend requires RPCURL, and a Config with none of the three is
// rejected by New before anything is dialed.
type Config struct {
	// RPCURL dials an *ethclient.Client when PrivateKeyPath is set, or when
	// Signer is set without a Backend already attached.
	RPCURL string

	// PrivateKeyPath loads a PrivateKeySigner from a key file at this path
	// (see chain.LoadPrivateKeySigner). Requires RPCURL.
	PrivateKeyPath string

	// Backend is a caller-supplied chain connection (the "provider"
	// variant): skips dialing RPCURL entirely. Pairs with Signer.
	Backend chain.ReceiptWaiter

	// Signer is a caller-supplied signer (e.g. a hardware wallet or remote
	// signing service), used instead of loading a PrivateKeySigner.
	Signer chain.Signer

	// DisableNonceManager skips wrapping Backend in
	// chain.NewNonceManagedBackend. Off by default: concurrent writes from
	// one account are the common case once a Manager fans uploads out
	// across several contexts.
	DisableNonceManager bool

	// PaymentsToken overrides the network's default stablecoin; the zero
	// value selects payments.New's configured default.
	PaymentsToken common.Address

	// SessionKeyRegistry overrides chain.ContractAddresses.SessionKeyRegistry.
	// No well-known deployment address exists for this contract in either
	// supported network (see chain/addresses.go); leaving this unset leaves
	// Synapse.SessionKeys nil.
	SessionKeyRegistry common.Address

	// Subgraph, if non-nil, wraps the chain retriever with subgraph-backed
	// provider discovery ahead of a full approved-provider race. The
	// subgraph GraphQL service itself is an external collaborator this
	// client only depends on through this interface.
	Subgraph retriever.SubgraphService

	// DisableCDN skips wrapping the retriever chain with the CDN edge
	// cache. CDNBaseURL overrides the network default (retriever.CDNEndpoint).
	DisableCDN bool
	CDNBaseURL string
}

// validate enforces the three constructor variants named in §4.9: exactly
// one of {privateKey + rpcURL, provider, signer} selects both a chain
// connection and signing authority.
//   - "privateKey + rpcURL": PrivateKeyPath and RPCURL, nothing else.
//   - "provider": Backend (a caller-dialed connection) plus either Signer
//     or PrivateKeyPath for write capability.
//   - "signer": Signer alone, dialing RPCURL for the connection.
func (c Config) validate() error {
	const op = "facade.Config.validate"

	privateKeyVariant := c.PrivateKeyPath != "" && c.Backend == nil && c.Signer == nil
	providerVariant := c.Backend != nil
	signerVariant := c.Signer != nil && c.Backend == nil

	switch {
	case privateKeyVariant && c.RPCURL == "":
		return errors.New(errors.KindOptionsConflict, op, "PrivateKeyPath requires RPCURL")
	case providerVariant && c.Signer == nil && c.PrivateKeyPath == "":
		return errors.New(errors.KindOptionsConflict, op, "Backend requires Signer or PrivateKeyPath for write capability")
	case signerVariant && c.RPCURL == "":
		return errors.New(errors.KindOptionsConflict, op, "Signer without Backend requires RPCURL to dial")
	case !privateKeyVariant && !providerVariant && !signerVariant:
		return errors.New(errors.KindOptionsConflict, op, "exactly one of PrivateKeyPath, Backend, or Signer must be set")
	}
	return nil
}

// dialBackend returns Config.Backend if set, otherwise dials RPCURL.
func (c Config) dialBackend(ctx context.Context) (chain.ReceiptWaiter, error) {
	const op = "facade.Config.dialBackend"
	if c.Backend != nil {
		return c.Backend, nil
	}
	client, err := ethclient.DialContext(ctx, c.RPCURL)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	return client, nil
}

// resolveSigner returns Config.Signer if set, otherwise loads a
// PrivateKeySigner from PrivateKeyPath.
func (c Config) resolveSigner() (chain.Signer, error) {
	if c.Signer != nil {
		return c.Signer, nil
	}
	return chain.LoadPrivateKeySigner(c.PrivateKeyPath)
}
