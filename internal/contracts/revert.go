package contracts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RevertError is a call or transaction the contract rejected.
type RevertError struct {
	Contract string
	// CustomError is the Solidity custom error name, when the data matched one in the ABI.
	CustomError string
	Args        []any
	// Reason is the Error(string) or Panic(uint256) message.
	Reason string
	Data   []byte
	Err    error
}

func (e *RevertError) Error() string {
	switch {
	case e.CustomError != "":
		return fmt.Sprintf("%s reverted with custom error '%s'", e.Contract, e.CustomError)
	case e.Reason != "":
		return fmt.Sprintf("%s reverted with reason '%s'", e.Contract, e.Reason)
	default:
		return fmt.Sprintf("%s reverted without a reason", e.Contract)
	}
}

func (e *RevertError) Unwrap() error {
	return e.Err
}

// IsCustomError reports whether err is a revert with the named custom error.
func IsCustomError(err error, name string) bool {
	var rerr *RevertError
	return errors.As(err, &rerr) && rerr.CustomError == name
}

// IsRevertedWith reports whether err is a revert with the given reason string.
func IsRevertedWith(err error, reason string) bool {
	var rerr *RevertError
	return errors.As(err, &rerr) && rerr.Reason == reason
}

// IsReverted reports whether err is any revert.
func IsReverted(err error) bool {
	var rerr *RevertError
	return errors.As(err, &rerr)
}

// decodeRevert returns a *RevertError when err carries revert data, or nil.
func decodeRevert(contract string, parsed abi.ABI, err error) error {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil
	}
	data, ok := revertData(de.ErrorData())
	if !ok {
		return nil
	}
	return DecodeRevertData(contract, parsed, data, err)
}

// DecodeRevertData interprets raw revert data against an ABI's custom errors.
func DecodeRevertData(contract string, parsed abi.ABI, data []byte, cause error) *RevertError {
	rerr := &RevertError{Contract: contract, Data: data, Err: cause}
	if len(data) < 4 {
		return rerr
	}

	for _, e := range parsed.Errors {
		if !bytes.Equal(e.ID[:4], data[:4]) {
			continue
		}
		rerr.CustomError = e.Name
		if args, err := e.Inputs.Unpack(data[4:]); err == nil {
			rerr.Args = args
		}
		return rerr
	}

	if reason, err := abi.UnpackRevert(data); err == nil {
		rerr.Reason = reason
	}
	return rerr
}

func revertData(v any) ([]byte, bool) {
	switch d := v.(type) {
	case string:
		if !strings.HasPrefix(d, "0x") {
			return nil, false
		}
		b, err := hexutil.Decode(d)
		return b, err == nil
	case []byte:
		return d, true
	case hexutil.Bytes:
		return d, true
	default:
		return nil, false
	}
}
