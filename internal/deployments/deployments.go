// Package deployments stores what was deployed where: one record per contract per
// network, laid out the way hardhat-deploy writes them.
package deployments

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// Deployment is the record of one deployed contract.
type Deployment struct {
	Address         common.Address  `json:"address"`
	ABI             json.RawMessage `json:"abi"`
	TransactionHash common.Hash     `json:"transactionHash"`
	BlockNumber     uint64          `json:"blockNumber"`
	GasUsed         uint64          `json:"gasUsed"`
	Deployer        common.Address  `json:"deployer"`
	Args            []any           `json:"args"`
	// ArgsData is the hex ABI encoding of the constructor arguments.
	ArgsData string `json:"argsData"`
	// BytecodeHash is the keccak256 of the creation bytecode, without arguments.
	BytecodeHash common.Hash `json:"bytecodeHash"`
	ChainID      int64       `json:"chainId"`
	DeployedAt   time.Time   `json:"deployedAt"`
}

// Matches reports whether the record was produced from the same bytecode and arguments.
func (d *Deployment) Matches(bytecodeHash common.Hash, argsData string) bool {
	return d.BytecodeHash == bytecodeHash && strings.EqualFold(d.ArgsData, argsData)
}

// Store persists deployment records for one network.
type Store interface {
	Network() string
	Get(name string) (*Deployment, error)
	Save(name string, d *Deployment) error
	All() (map[string]*Deployment, error)
	// Reset drops every record of the network.
	Reset() error
}

// FileStore keeps records in <root>/<network>/<Name>.json with the chain ID in
// <root>/<network>/.chainId.
type FileStore struct {
	root    string
	network string
	chainID int64

	mu sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens the records directory for a network. Existing records written for
// another chain ID are rejected.
func NewFileStore(root, network string, chainID int64) (*FileStore, error) {
	s := &FileStore{root: root, network: network, chainID: chainID}

	data, err := os.ReadFile(s.chainIDPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read chain id: %w", err)
	default:
		stored, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.chainIDPath(), err)
		}
		if stored != chainID {
			return nil, fmt.Errorf("deployments for %s were made on chain %d, network is chain %d (use --reset)", network, stored, chainID)
		}
	}
	return s, nil
}

// Network returns the network name.
func (s *FileStore) Network() string {
	return s.network
}

func (s *FileStore) dir() string {
	return filepath.Join(s.root, s.network)
}

func (s *FileStore) chainIDPath() string {
	return filepath.Join(s.dir(), ".chainId")
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir(), name+".json")
}

// Get returns the record for a contract.
func (s *FileStore) Get(name string) (*Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewDeploymentNotFoundError(s.network, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read deployment %s: %w", name, err)
	}

	var d Deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse deployment %s: %w", name, err)
	}
	return &d, nil
}

// Save writes the record for a contract.
func (s *FileStore) Save(name string, d *Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("create deployments dir: %w", err)
	}
	if err := os.WriteFile(s.chainIDPath(), []byte(strconv.FormatInt(s.chainID, 10)), 0o644); err != nil {
		return fmt.Errorf("write chain id: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal deployment %s: %w", name, err)
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write deployment %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename deployment %s: %w", name, err)
	}
	return nil
}

// All returns every record of the network keyed by contract name.
func (s *FileStore) All() (map[string]*Deployment, error) {
	entries, err := os.ReadDir(s.dir())
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*Deployment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}

	out := make(map[string]*Deployment)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		d, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		out[name] = d
	}
	return out, nil
}

// Reset removes the network's records directory.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.dir()); err != nil {
		return fmt.Errorf("reset deployments: %w", err)
	}
	return nil
}

// MemoryStore keeps records for the lifetime of the process. It backs the in-process
// chain, whose state does not outlive the process either.
type MemoryStore struct {
	network string

	mu      sync.Mutex
	records map[string]*Deployment
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(network string) *MemoryStore {
	return &MemoryStore{network: network, records: make(map[string]*Deployment)}
}

// Network returns the network name.
func (s *MemoryStore) Network() string {
	return s.network
}

// Get returns the record for a contract.
func (s *MemoryStore) Get(name string) (*Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.records[name]
	if !ok {
		return nil, apperrors.NewDeploymentNotFoundError(s.network, name)
	}
	cp := *d
	return &cp, nil
}

// Save stores the record for a contract.
func (s *MemoryStore) Save(name string, d *Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	s.records[name] = &cp
	return nil
}

// All returns every record keyed by contract name.
func (s *MemoryStore) All() (map[string]*Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*Deployment, len(s.records))
	for name, d := range s.records {
		cp := *d
		out[name] = &cp
	}
	return out, nil
}

// Reset drops every record.
func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Deployment)
	return nil
}

// Names returns the record names of a store in sorted order.
func Names(s Store) ([]string, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
