// Package frontend writes deployed contract addresses and the Lottery ABI into the
// sibling front-end project's constants directory.
package frontend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Exporter updates the front-end constant files.
type Exporter struct {
	addressesFile string
	abiFile       string
	logger        *slog.Logger
}

// NewExporter creates an exporter for the given files.
func NewExporter(addressesFile, abiFile string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		addressesFile: addressesFile,
		abiFile:       abiFile,
		logger:        logger,
	}
}

// Addresses maps a chain ID (as a decimal string) to every address deployed there.
type Addresses map[string][]string

// ReadAddresses loads the addresses file. A missing file reads as empty.
func (e *Exporter) ReadAddresses() (Addresses, error) {
	data, err := os.ReadFile(e.addressesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return Addresses{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.addressesFile, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Addresses{}, nil
	}

	var addrs Addresses
	if err := json.Unmarshal(data, &addrs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", e.addressesFile, err)
	}
	if addrs == nil {
		addrs = Addresses{}
	}
	return addrs, nil
}

// Add records address under chainID unless already present. It reports whether the
// list changed. Addresses compare case-insensitively.
func (a Addresses) Add(chainID int64, address common.Address) bool {
	key := strconv.FormatInt(chainID, 10)
	for _, existing := range a[key] {
		if common.IsHexAddress(existing) && common.HexToAddress(existing) == address {
			return false
		}
	}
	a[key] = append(a[key], address.Hex())
	return true
}

// UpdateContractAddresses appends the Lottery address for chainID to the addresses
// file, leaving other chains untouched.
func (e *Exporter) UpdateContractAddresses(chainID int64, address common.Address) error {
	addrs, err := e.ReadAddresses()
	if err != nil {
		return err
	}

	if !addrs.Add(chainID, address) {
		e.logger.Info("front end already has address",
			slog.Int64("chain_id", chainID),
			slog.String("address", address.Hex()),
		)
		return nil
	}

	data, err := json.Marshal(addrs)
	if err != nil {
		return fmt.Errorf("marshal addresses: %w", err)
	}
	return writeFile(e.addressesFile, data)
}

// UpdateABI writes the ABI document to the ABI file.
func (e *Exporter) UpdateABI(abiJSON json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, abiJSON); err != nil {
		return fmt.Errorf("compact abi: %w", err)
	}
	return writeFile(e.abiFile, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
