// Package networks holds the per-chain parameter table and the network definitions
// the deploy steps and scripts are driven by.
package networks

import (
	"errors"
	"math/big"
	"slices"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// DevelopmentChainID is the chain ID shared by the in-process and localhost development chains.
const DevelopmentChainID int64 = 31337

// VerificationBlockConfirmations is how many blocks a live deployment waits before
// it is submitted for block-explorer verification.
const VerificationBlockConfirmations uint64 = 6

// DevelopmentChains lists the network names treated as local development chains.
var DevelopmentChains = []string{"hardhat", "localhost"}

// Params are the Lottery constructor inputs and VRF settings for one chain.
type Params struct {
	Name string `validate:"required"`
	// VRFCoordinatorV2 is unset on development chains, where the mock is deployed instead.
	VRFCoordinatorV2      common.Address
	EntranceFee           *big.Int    `validate:"required"`
	GasLane               common.Hash `validate:"required"`
	SubscriptionID        uint64
	CallbackGasLimit      uint32   `validate:"required"`
	KeepersUpdateInterval *big.Int `validate:"required"`
}

// Default is used for the in-process network when no chain entry applies.
var Default = Params{
	Name:                  "hardhat",
	KeepersUpdateInterval: big.NewInt(30),
}

// Table is keyed by chain ID.
var Table = map[int64]Params{
	31337: {
		Name:                  "localhost",
		EntranceFee:           MustParseEther("0.01"),
		GasLane:               common.HexToHash("0x79d3d8832d904592c0bf9818b621522c988bb8b0c05cdc3b15aea1b6e8db0c15"), // mocked
		SubscriptionID:        588,
		CallbackGasLimit:      500000,
		KeepersUpdateInterval: big.NewInt(30),
	},
	5: {
		Name:                  "goerli",
		VRFCoordinatorV2:      common.HexToAddress("0x2Ca8E0C643bDe4C2E08ab1fA0da3401AdAD7734D"),
		EntranceFee:           MustParseEther("0.01"),
		GasLane:               common.HexToHash("0x79d3d8832d904592c0bf9818b621522c988bb8b0c05cdc3b15aea1b6e8db0c15"),
		SubscriptionID:        8243,
		CallbackGasLimit:      500000,
		KeepersUpdateInterval: big.NewInt(30),
	},
	1: {
		Name:                  "ethereum",
		VRFCoordinatorV2:      common.HexToAddress("0x271682DEB8C4E0901D1a1550aD2e64D568E69909"),
		EntranceFee:           MustParseEther("0.0001"),
		GasLane:               common.HexToHash("0x8af398995b04c28e9951adb9721ef74c74f93e6a478f39e7e0777be13527e7ef"),
		SubscriptionID:        0,
		CallbackGasLimit:      500000,
		KeepersUpdateInterval: big.NewInt(30),
	},
	80001: {
		Name:                  "mumbai",
		VRFCoordinatorV2:      common.HexToAddress("0x7a1BaC17Ccc5b313516C5E16fb24f7659aA5ebed"),
		EntranceFee:           MustParseEther("0.01"),
		GasLane:               common.HexToHash("0x4b09e658ed251bcafeebbc69400383d49f344ace09b9576fe248bb02c003fe9f"),
		SubscriptionID:        102,
		CallbackGasLimit:      500000,
		KeepersUpdateInterval: big.NewInt(30),
	},
	137: {
		Name:                  "polygon",
		VRFCoordinatorV2:      common.HexToAddress("0xAE975071Be8F8eE67addBC1A82488F1C24858067"),
		EntranceFee:           MustParseEther("0.001"),
		GasLane:               common.HexToHash("0x6e099d640cde6de9d40ac749b4b594126b0169747122711109c9985d47751f93"),
		SubscriptionID:        0,
		CallbackGasLimit:      500000,
		KeepersUpdateInterval: big.NewInt(30),
	},
}

// IsDevelopmentChain reports whether the named network is a local development chain.
func IsDevelopmentChain(name string) bool {
	return slices.Contains(DevelopmentChains, name)
}

// ParamsFor returns the parameter entry for a chain ID.
func ParamsFor(chainID int64) (Params, error) {
	p, ok := Table[chainID]
	if !ok {
		return Params{}, apperrors.NewUnsupportedNetworkError(chainID)
	}
	return p, nil
}

// ChainIDs returns the supported chain IDs in ascending order.
func ChainIDs() []int64 {
	ids := make([]int64, 0, len(Table))
	for id := range Table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var validate = validator.New()

// Validate checks that a single entry has every key its chain needs.
func (p Params) Validate(chainID int64) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.NewMissingParameterError(chainID, verrs[0].Field())
		}
		return err
	}
	if chainID != DevelopmentChainID && p.VRFCoordinatorV2 == (common.Address{}) {
		return apperrors.NewMissingParameterError(chainID, "VRFCoordinatorV2")
	}
	return nil
}

// Validate checks every entry of the table.
func Validate() error {
	var errs []error
	for _, id := range ChainIDs() {
		if err := Table[id].Validate(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
