package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/nathanTypo/lottery-pc/internal/chain"
)

// EventSubscriptionCreated is emitted by createSubscription.
const EventSubscriptionCreated = "SubscriptionCreated"

// VRFCoordinatorMock is a client for VRFCoordinatorV2Mock, the local stand-in for the
// Chainlink VRF coordinator.
type VRFCoordinatorMock struct {
	*Contract
}

// NewVRFCoordinatorMock wraps a bound contract.
func NewVRFCoordinatorMock(c *Contract) *VRFCoordinatorMock {
	return &VRFCoordinatorMock{Contract: c}
}

// Connect returns a client that transacts from another account.
func (m *VRFCoordinatorMock) Connect(sender *chain.Sender) *VRFCoordinatorMock {
	return NewVRFCoordinatorMock(m.Contract.Connect(sender))
}

// CreateSubscription creates a subscription and returns its ID, read from the
// SubscriptionCreated event.
func (m *VRFCoordinatorMock) CreateSubscription(ctx context.Context) (uint64, *types.Receipt, error) {
	receipt, err := m.Transact(ctx, nil, "createSubscription")
	if err != nil {
		return 0, receipt, err
	}

	events, err := m.EventsNamed(receipt, EventSubscriptionCreated)
	if err != nil {
		return 0, receipt, err
	}
	if len(events) == 0 {
		return 0, receipt, fmt.Errorf("no %s event in receipt %s", EventSubscriptionCreated, receipt.TxHash.Hex())
	}

	subID, ok := events[0].Args["subId"].(uint64)
	if !ok {
		return 0, receipt, fmt.Errorf("%s event has no uint64 subId", EventSubscriptionCreated)
	}
	return subID, receipt, nil
}

// FundSubscription credits the subscription with LINK (18 decimals).
func (m *VRFCoordinatorMock) FundSubscription(ctx context.Context, subID uint64, amount *big.Int) (*types.Receipt, error) {
	return m.Transact(ctx, nil, "fundSubscription", subID, amount)
}

// AddConsumer authorises a consumer contract to request randomness on the subscription.
func (m *VRFCoordinatorMock) AddConsumer(ctx context.Context, subID uint64, consumer common.Address) (*types.Receipt, error) {
	return m.Transact(ctx, nil, "addConsumer", subID, consumer)
}

// FulfillRandomWords answers a pending randomness request, calling back into consumer.
func (m *VRFCoordinatorMock) FulfillRandomWords(ctx context.Context, requestID *big.Int, consumer common.Address) (*types.Receipt, error) {
	return m.Transact(ctx, nil, "fulfillRandomWords", requestID, consumer)
}
