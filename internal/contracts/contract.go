// Package contracts provides typed clients for the Lottery contract and the VRF
// coordinator mock on top of their ABIs.
package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/nathanTypo/lottery-pc/internal/chain"
)

// Contract binds an ABI at an address to a chain client, and optionally to a sender.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI

	client chain.Client
	sender *chain.Sender
}

// New binds a parsed ABI. sender may be nil for a read-only binding.
func New(name string, address common.Address, parsed abi.ABI, client chain.Client, sender *chain.Sender) *Contract {
	return &Contract{
		Name:    name,
		Address: address,
		ABI:     parsed,
		client:  client,
		sender:  sender,
	}
}

// NewFromJSON binds a JSON ABI document.
func NewFromJSON(name string, address common.Address, abiJSON json.RawMessage, client chain.Client, sender *chain.Sender) (*Contract, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse %s ABI: %w", name, err)
	}
	return New(name, address, parsed, client, sender), nil
}

// Connect returns a copy of the binding that transacts from another account.
func (c *Contract) Connect(sender *chain.Sender) *Contract {
	cp := *c
	cp.sender = sender
	return &cp
}

// Sender returns the bound sender, or nil.
func (c *Contract) Sender() *chain.Sender {
	return c.sender
}

// Call executes a read-only method against the latest block and unpacks its outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s.%s: %w", c.Name, method, err)
	}

	msg := ethereum.CallMsg{To: &c.Address, Data: data}
	if c.sender != nil {
		msg.From = c.sender.From()
	}

	out, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, c.decodeError(method, err)
	}

	values, err := c.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s.%s: %w", c.Name, method, err)
	}
	return values, nil
}

// Transact sends a state-changing method call with value attached and waits for it.
func (c *Contract) Transact(ctx context.Context, value *big.Int, method string, args ...any) (*types.Receipt, error) {
	if c.sender == nil {
		return nil, fmt.Errorf("%s.%s: contract is bound read-only", c.Name, method)
	}

	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s.%s: %w", c.Name, method, err)
	}

	receipt, err := c.sender.Send(ctx, chain.TxRequest{
		To:    &c.Address,
		Value: value,
		Data:  data,
		Label: c.Name + "." + method,
	})
	if err != nil {
		return receipt, c.decodeError(method, err)
	}
	return receipt, nil
}

// Event is a decoded log.
type Event struct {
	Name string
	Args map[string]any
	Log  types.Log
}

// ParseLog decodes a log emitted by this contract. ok is false for logs from other
// addresses or with unknown topics.
func (c *Contract) ParseLog(l types.Log) (Event, bool, error) {
	if l.Address != c.Address || len(l.Topics) == 0 {
		return Event{}, false, nil
	}
	ev, err := c.ABI.EventByID(l.Topics[0])
	if err != nil {
		return Event{}, false, nil
	}

	args := make(map[string]any)
	if len(l.Data) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(args, l.Data); err != nil {
			return Event{}, false, fmt.Errorf("unpack %s data: %w", ev.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, l.Topics[1:]); err != nil {
			return Event{}, false, fmt.Errorf("unpack %s topics: %w", ev.Name, err)
		}
	}

	return Event{Name: ev.Name, Args: args, Log: l}, true, nil
}

// Events returns this contract's decoded events in a receipt, in log order.
func (c *Contract) Events(receipt *types.Receipt) ([]Event, error) {
	var out []Event
	for _, l := range receipt.Logs {
		ev, ok, err := c.ParseLog(*l)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

// EventsNamed filters Events by name.
func (c *Contract) EventsNamed(receipt *types.Receipt, name string) ([]Event, error) {
	all, err := c.Events(receipt)
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, ev := range all {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out, nil
}

// FilterEvents queries the chain for a named event emitted at or after fromBlock.
func (c *Contract) FilterEvents(ctx context.Context, name string, fromBlock uint64) ([]Event, error) {
	ev, ok := c.ABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("%s has no event %s", c.Name, name)
	}

	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{c.Address},
		Topics:    [][]common.Hash{{ev.ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", name, err)
	}

	out := make([]Event, 0, len(logs))
	for _, l := range logs {
		decoded, ok, err := c.ParseLog(l)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, decoded)
		}
	}
	return out, nil
}

func (c *Contract) decodeError(method string, err error) error {
	if rerr := decodeRevert(c.Name, c.ABI, err); rerr != nil {
		return rerr
	}
	return fmt.Errorf("%s.%s: %w", c.Name, method, err)
}
