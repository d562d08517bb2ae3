package networks

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// Network is a deploy target: where to reach it and which keys sign for it.
type Network struct {
	Name string
	// URL is empty for the in-process chain.
	URL                string
	ChainID            int64
	BlockConfirmations uint64
	Accounts           []string
}

// InProcess reports whether the network runs inside the current process.
func (n *Network) InProcess() bool {
	return n.URL == ""
}

// IsDevelopment reports whether the network is a local development chain.
func (n *Network) IsDevelopment() bool {
	return IsDevelopmentChain(n.Name)
}

// Params returns the parameter table entry for the network's chain.
func (n *Network) Params() (Params, error) {
	if p, ok := Table[n.ChainID]; ok {
		return p, nil
	}
	if n.Name == Default.Name {
		return Default, nil
	}
	return Params{}, apperrors.NewUnsupportedNetworkError(n.ChainID)
}

// NamedAccounts maps account names to their index in a network's account list.
var NamedAccounts = map[string]int{
	"deployer": 0,
	"account1": 1,
	"account2": 2,
	"account3": 3,
}

// AccountIndex resolves a named account ("deployer") or a plain index ("2").
func AccountIndex(name string) (int, error) {
	if idx, ok := NamedAccounts[name]; ok {
		return idx, nil
	}
	var idx int
	if _, err := fmt.Sscanf(name, "%d", &idx); err == nil && idx >= 0 {
		return idx, nil
	}
	return 0, fmt.Errorf("unknown account %q", name)
}

// Endpoints carries the environment-provided values network definitions are built from.
type Endpoints struct {
	// RPCURLs is keyed by network name.
	RPCURLs map[string]string
	// PrivateKeys are the live-network signing keys in named account order.
	PrivateKeys []string
}

const localhostURL = "http://127.0.0.1:8545"

type definition struct {
	chainID       int64
	confirmations uint64
	live          bool
}

var definitions = map[string]definition{
	"hardhat":   {chainID: DevelopmentChainID, confirmations: 1},
	"localhost": {chainID: DevelopmentChainID, confirmations: 1},
	"goerli":    {chainID: 5, confirmations: VerificationBlockConfirmations, live: true},
	"ethereum":  {chainID: 1, confirmations: 1, live: true},
	"mumbai":    {chainID: 80001, confirmations: VerificationBlockConfirmations, live: true},
	"polygon":   {chainID: 137, confirmations: 1, live: true},
}

// Names returns every known network name, sorted.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the definition of a named network.
func Resolve(name string, ep Endpoints) (*Network, error) {
	def, ok := definitions[name]
	if !ok {
		return nil, apperrors.NewUnsupportedNetworkError(name)
	}

	n := &Network{
		Name:               name,
		ChainID:            def.chainID,
		BlockConfirmations: def.confirmations,
	}

	switch {
	case name == "hardhat":
		n.Accounts = DevPrivateKeys
	case name == "localhost":
		n.URL = localhostURL
		if u := ep.RPCURLs[name]; u != "" {
			n.URL = u
		}
		n.Accounts = DevPrivateKeys
	case def.live:
		n.URL = strings.TrimSpace(ep.RPCURLs[name])
		if n.URL == "" {
			return nil, apperrors.NewInvalidConfigError(strings.ToUpper(name)+"_RPC_URL", "required for network "+name)
		}
		for _, k := range ep.PrivateKeys {
			if k != "" {
				n.Accounts = append(n.Accounts, k)
			}
		}
		if len(n.Accounts) == 0 {
			return nil, apperrors.NewInvalidConfigError("PRIVATE_KEY_ACC1", "a deployer key is required for network "+name)
		}
	}
	return n, nil
}
