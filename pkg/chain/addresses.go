package chain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	fctypes "github.com/filecoin-project/lotus/chain/types"
	"github.com/snadrus/must"
)

// FilecoinEpoch is the nominal duration of one Filecoin epoch.
const FilecoinEpoch = 30 * time.Second

// NumChallenges is the number of challenges issued per proof, defined at
// https://github.com/storacha/filecoin-services/blob/main/service_contracts/src/FilecoinWarmStorageService.sol#L23
const NumChallenges = 5

// Network identifies one of the two chain ids the facade is willing to operate against.
type Network string

const (
	NetworkMainnet     Network = "mainnet"
	NetworkCalibration Network = "calibration"
)

var chainIDByNetwork = map[Network]*big.Int{
	NetworkMainnet:     big.NewInt(314),
	NetworkCalibration: big.NewInt(314159),
}

// NetworkFromChainID maps an RPC-reported chain id to a supported network.
// Any chain id other than the two known Filecoin chain ids is rejected by the
// caller with UnsupportedNetwork; this function only does the lookup.
func NetworkFromChainID(chainID *big.Int) (Network, bool) {
	for network, id := range chainIDByNetwork {
		if id.Cmp(chainID) == 0 {
			return network, true
		}
	}
	return "", false
}

// ContractAddresses is the set of PDP-related contracts the client needs for a network.
type ContractAddresses struct {
	Verifier         common.Address
	ProviderRegistry common.Address
	Service          common.Address
	ServiceView      common.Address
	Payments         common.Address
	Multicall3       common.Address
	USDFCToken       common.Address
	// SessionKeyRegistry has no well-known deployment address in any
	// retrieved reference material (only a devnet fixture field name); it
	// is left unset per network until a caller supplies one via
	// Adapter.Addresses after construction.
	SessionKeyRegistry common.Address
}

// Multicall3Address is identical across networks; it is deployed at a
// deterministic address via the canonical CREATE2 factory.
var Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

var addressesByNetwork = map[Network]ContractAddresses{
	NetworkCalibration: {
		Verifier:         common.HexToAddress("0x85e366Cf9DD2c0aE37E963d9556F5f4718d6417C"),
		ProviderRegistry: common.HexToAddress("0x6A96aaB210B75ee733f0A291B5D8d4A053643979"),
		Service:          common.HexToAddress("0x0c6875983B20901a7C3c86871f43FdEE77946424"),
		ServiceView:      common.HexToAddress("0xEAD67d775f36D1d2894854D20e042C77A3CC20a5"),
		Payments:         common.HexToAddress("0x0E690D3e60B0576D01352AB03b258115eb84A047"),
		Multicall3:       Multicall3Address,
		USDFCToken:       common.HexToAddress("0xb3042734b608a1B16e9e86B374A3f3e389B4cDf0"),
	},
	NetworkMainnet: {
		Multicall3: Multicall3Address,
	},
}

// Addresses returns the contract address set for a network. The mainnet set
// is intentionally left unpopulated until the production contracts are
// deployed; callers that pick NetworkMainnet get zero addresses and should
// supply overrides.
func Addresses(network Network) (ContractAddresses, error) {
	addrs, ok := addressesByNetwork[network]
	if !ok {
		return ContractAddresses{}, fmt.Errorf("unknown network %q", network)
	}
	return addrs, nil
}

// PayerAddress is the default address used in examples and tests; production
// callers always supply their own payer via a signer.
var PayerAddress = common.HexToAddress("0x8d3d7cE4F43607C9d0ac01f695c7A9caC135f9AD")

// SybilFee returns the fee required to register a new PDPVerifier proof set,
// defined at https://github.com/FilOzone/pdp/blob/main/src/Fees.sol#L11
func SybilFee() *big.Int {
	return must.One(fctypes.ParseFIL("0.1")).Int
}

// RegisterProviderFee returns the fee required to register in the
// ServiceProviderRegistry, defined at
// https://github.com/storacha/filecoin-services/blob/main/service_contracts/src/ServiceProviderRegistry.sol#L54
func RegisterProviderFee() *big.Int {
	return must.One(fctypes.ParseFIL("5")).Int
}
