package contracts

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/nathanTypo/lottery-pc/internal/chain"
)

// Contract names as deployed and stored.
const (
	LotteryName            = "Lottery"
	VRFCoordinatorMockName = "VRFCoordinatorV2Mock"
)

// Lottery custom errors.
const (
	ErrNotEnoughEthEntered = "Lottery__NotEnoughEthEntered"
	ErrNotOpen             = "Lottery__NotOpen"
	ErrUpkeepNotNeeded     = "Lottery__UpkeepNotNeeded"
)

// Lottery events.
const (
	EventLotteryEnter           = "LotteryEnter"
	EventRequestedLotteryWinner = "RequestedLotteryWinner"
	EventWinnerPicked           = "WinnerPicked"
)

// LotteryState mirrors the contract's state enum.
type LotteryState uint8

const (
	StateOpen        LotteryState = 0
	StateCalculating LotteryState = 1
)

func (s LotteryState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateCalculating:
		return "CALCULATING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// Lottery is a client for the deployed Lottery contract.
type Lottery struct {
	*Contract
}

// NewLottery wraps a bound contract.
func NewLottery(c *Contract) *Lottery {
	return &Lottery{Contract: c}
}

// Connect returns a client that transacts as another player.
func (l *Lottery) Connect(sender *chain.Sender) *Lottery {
	return NewLottery(l.Contract.Connect(sender))
}

// EnterLottery pays value into the lottery from the bound account.
func (l *Lottery) EnterLottery(ctx context.Context, value *big.Int) (*types.Receipt, error) {
	return l.Transact(ctx, value, "enterLottery")
}

// CheckUpkeep calls checkUpkeep without sending a transaction.
func (l *Lottery) CheckUpkeep(ctx context.Context, checkData []byte) (bool, []byte, error) {
	out, err := l.Call(ctx, "checkUpkeep", nonNil(checkData))
	if err != nil {
		return false, nil, err
	}
	needed, err := as[bool](out, 0)
	if err != nil {
		return false, nil, err
	}
	var performData []byte
	if len(out) > 1 {
		performData, _ = out[1].([]byte)
	}
	return needed, performData, nil
}

// PerformUpkeep sends performUpkeep and returns the VRF request ID it emitted.
func (l *Lottery) PerformUpkeep(ctx context.Context, performData []byte) (*types.Receipt, *big.Int, error) {
	receipt, err := l.Transact(ctx, nil, "performUpkeep", nonNil(performData))
	if err != nil {
		return receipt, nil, err
	}

	requestID, err := l.RequestID(receipt)
	if err != nil {
		return receipt, nil, err
	}
	return receipt, requestID, nil
}

// RequestID extracts the VRF request ID from a performUpkeep receipt. The coordinator
// emits its own request event first; the Lottery's event carries the same ID.
func (l *Lottery) RequestID(receipt *types.Receipt) (*big.Int, error) {
	events, err := l.Events(receipt)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if id, ok := ev.Args["requestId"].(*big.Int); ok {
			return id, nil
		}
	}
	return nil, fmt.Errorf("no %s event in receipt %s", EventRequestedLotteryWinner, receipt.TxHash.Hex())
}

// GetEntranceFee returns the minimum entry payment in wei.
func (l *Lottery) GetEntranceFee(ctx context.Context) (*big.Int, error) {
	return l.callBig(ctx, "getEntranceFee")
}

// GetInterval returns the upkeep interval in seconds.
func (l *Lottery) GetInterval(ctx context.Context) (*big.Int, error) {
	return l.callBig(ctx, "getInterval")
}

// GetLotteryState returns whether the lottery is open or picking a winner.
func (l *Lottery) GetLotteryState(ctx context.Context) (LotteryState, error) {
	out, err := l.Call(ctx, "getLotteryState")
	if err != nil {
		return 0, err
	}
	v, err := as[uint8](out, 0)
	return LotteryState(v), err
}

// GetPlayer returns the player at index i.
func (l *Lottery) GetPlayer(ctx context.Context, i int64) (common.Address, error) {
	out, err := l.Call(ctx, "getPlayer", big.NewInt(i))
	if err != nil {
		return common.Address{}, err
	}
	return as[common.Address](out, 0)
}

// GetNumberOfPlayers returns how many entries the current round has.
func (l *Lottery) GetNumberOfPlayers(ctx context.Context) (*big.Int, error) {
	return l.callBig(ctx, "getNumberOfPlayers")
}

// GetRecentWinner returns the last round's winner, or the zero address.
func (l *Lottery) GetRecentWinner(ctx context.Context) (common.Address, error) {
	out, err := l.Call(ctx, "getRecentWinner")
	if err != nil {
		return common.Address{}, err
	}
	return as[common.Address](out, 0)
}

// GetLatestTimeStamp returns the block timestamp the current round started at.
func (l *Lottery) GetLatestTimeStamp(ctx context.Context) (*big.Int, error) {
	return l.callBig(ctx, "getLatestTimeStamp")
}

// WaitForWinnerPicked polls for a WinnerPicked event at or after fromBlock and returns
// the winner. It returns when one is found or ctx is done.
func (l *Lottery) WaitForWinnerPicked(ctx context.Context, fromBlock uint64, pollInterval time.Duration) (common.Address, *Event, error) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		events, err := l.FilterEvents(ctx, EventWinnerPicked, fromBlock)
		if err != nil {
			return common.Address{}, nil, err
		}
		if len(events) > 0 {
			ev := events[0]
			for _, v := range ev.Args {
				if winner, ok := v.(common.Address); ok {
					return winner, &ev, nil
				}
			}
			return common.Address{}, &ev, fmt.Errorf("%s event has no address argument", EventWinnerPicked)
		}

		select {
		case <-ctx.Done():
			return common.Address{}, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Lottery) callBig(ctx context.Context, method string) (*big.Int, error) {
	out, err := l.Call(ctx, method)
	if err != nil {
		return nil, err
	}
	return as[*big.Int](out, 0)
}

func as[T any](out []any, i int) (T, error) {
	var zero T
	if i >= len(out) {
		return zero, fmt.Errorf("missing output %d", i)
	}
	v, ok := out[i].(T)
	if !ok {
		return zero, fmt.Errorf("output %d is %T, want %T", i, out[i], zero)
	}
	return v, nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
