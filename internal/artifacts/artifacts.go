// Package artifacts loads compiled contract artifacts (Hardhat or Foundry JSON) and
// encodes deployment and call data from them.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is a compiled Solidity contract with ABI and bytecode.
type Artifact struct {
	Format           string          `json:"_format,omitempty"`
	ContractName     string          `json:"contractName,omitempty"`
	SourceName       string          `json:"sourceName,omitempty"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         Bytecode        `json:"bytecode"`
	DeployedBytecode Bytecode        `json:"deployedBytecode,omitempty"`

	// path is the file the artifact was read from.
	path string
}

// Bytecode contains contract bytecode. It accepts both the Hardhat form, a plain hex
// string, and the Foundry form, an object with an "object" field.
type Bytecode struct {
	hex string
}

// NewBytecode wraps a hex string.
func NewBytecode(hex string) Bytecode {
	return Bytecode{hex: hex}
}

// UnmarshalJSON accepts Hardhat's plain hex string and Foundry's {"object": "0x..."} form.
func (b *Bytecode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.hex = s
		return nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		b.hex = obj.Object
		return nil
	}

	return fmt.Errorf("unrecognised bytecode encoding: %.40s", data)
}

// MarshalJSON always writes the Hardhat form.
func (b Bytecode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.hex)
}

func (b Bytecode) String() string {
	return b.hex
}

// Bytes decodes the bytecode. Unlinked library placeholders are rejected.
func (b Bytecode) Bytes() ([]byte, error) {
	h := strings.TrimSpace(b.hex)
	if h == "" || h == "0x" {
		return nil, fmt.Errorf("empty bytecode")
	}
	if strings.Contains(h, "__") {
		return nil, fmt.Errorf("bytecode has unlinked library references")
	}
	if !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}
	code, err := hexutil.Decode(h)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode: %w", err)
	}
	return code, nil
}

// Path returns the file the artifact was loaded from, if any.
func (a *Artifact) Path() string {
	return a.path
}

// Parse decodes an artifact document.
func Parse(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if len(a.ABI) == 0 {
		return nil, fmt.Errorf("artifact has no abi")
	}
	return &a, nil
}

// ParsedABI returns the parsed ABI.
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	return abi.JSON(bytes.NewReader(a.ABI))
}

// EncodeConstructorArgs ABI-encodes args against the constructor inputs. The result carries
// no bytecode and is what block explorers expect as constructor arguments.
func (a *Artifact) EncodeConstructorArgs(args ...any) ([]byte, error) {
	parsed, err := a.ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("%s abi: %w", a.ContractName, err)
	}

	if len(parsed.Constructor.Inputs) != len(args) {
		return nil, fmt.Errorf("constructor of %s takes %d arguments, got %d",
			a.ContractName, len(parsed.Constructor.Inputs), len(args))
	}
	if len(args) == 0 {
		return nil, nil
	}

	encoded, err := parsed.Constructor.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s constructor: %w", a.ContractName, err)
	}
	return encoded, nil
}

// DeployData returns the creation bytecode with the encoded constructor arguments appended.
func (a *Artifact) DeployData(args ...any) ([]byte, error) {
	code, err := a.Bytecode.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.ContractName, err)
	}
	encoded, err := a.EncodeConstructorArgs(args...)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(code)+len(encoded))
	data = append(data, code...)
	return append(data, encoded...), nil
}

// EncodeFunctionCall returns the calldata for method.
func (a *Artifact) EncodeFunctionCall(method string, args ...any) ([]byte, error) {
	parsed, err := a.ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("%s abi: %w", a.ContractName, err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s.%s: %w", a.ContractName, method, err)
	}
	return data, nil
}
