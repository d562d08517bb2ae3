package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ReceiptObserver is notified of every mined transaction the sender submits.
type ReceiptObserver interface {
	ObserveReceipt(ctx context.Context, label string, receipt *types.Receipt)
}

// TxRequest describes a transaction to send. A nil To deploys a contract.
type TxRequest struct {
	To       *common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
	// Label names the transaction in logs, metrics and the gas report ("Lottery.enterLottery").
	Label string
	// Confirmations overrides the sender's default when non-zero.
	Confirmations uint64
}

// Sender signs, submits and awaits transactions for one account, one at a time.
type Sender struct {
	client        Client
	signer        *LocalSigner
	logger        *slog.Logger
	confirmations uint64
	pollInterval  time.Duration
	observers     []ReceiptObserver
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithConfirmations sets how many blocks a receipt must be buried under, counting its own.
func WithConfirmations(n uint64) SenderOption {
	return func(s *Sender) {
		if n > 0 {
			s.confirmations = n
		}
	}
}

// WithPollInterval sets how often confirmations are re-checked.
func WithPollInterval(d time.Duration) SenderOption {
	return func(s *Sender) { s.pollInterval = d }
}

// WithObservers registers receipt observers.
func WithObservers(obs ...ReceiptObserver) SenderOption {
	return func(s *Sender) { s.observers = append(s.observers, obs...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SenderOption {
	return func(s *Sender) { s.logger = l }
}

// NewSender creates a sender for the given account.
func NewSender(client Client, signer *LocalSigner, opts ...SenderOption) *Sender {
	s := &Sender{
		client:        client,
		signer:        signer,
		logger:        slog.Default(),
		confirmations: 1,
		pollInterval:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// From returns the sending account's address.
func (s *Sender) From() common.Address {
	return s.signer.Address()
}

// Client returns the underlying chain client.
func (s *Sender) Client() Client {
	return s.client
}

// WithSigner returns a sender for another account sharing this sender's settings.
func (s *Sender) WithSigner(signer *LocalSigner) *Sender {
	cp := *s
	cp.signer = signer
	return &cp
}

// Send estimates, signs and submits a transaction, then waits for it to be mined and
// confirmed. A reverted estimate is returned as-is so callers can decode its revert data.
func (s *Sender) Send(ctx context.Context, req TxRequest) (*types.Receipt, error) {
	from := s.signer.Address()
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		estimated, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    req.To,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		// Add 20% buffer to gas limit
		gasLimit = estimated * 120 / 100
	}

	tx, err := s.buildTx(ctx, nonce, req.To, value, gasLimit, req.Data)
	if err != nil {
		return nil, err
	}

	signedTx, err := s.signer.SignTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	s.logger.Debug("transaction sent",
		slog.String("label", req.Label),
		slog.String("tx_hash", signedTx.Hash().Hex()),
		slog.Uint64("nonce", nonce),
		slog.Uint64("gas_limit", gasLimit),
	)

	receipt, err := bind.WaitMined(ctx, s.client, signedTx)
	if err != nil {
		return nil, fmt.Errorf("wait for receipt: %w", err)
	}

	confirmations := s.confirmations
	if req.Confirmations > 0 {
		confirmations = req.Confirmations
	}
	if err := s.waitConfirmations(ctx, receipt, confirmations); err != nil {
		return receipt, err
	}

	for _, o := range s.observers {
		o.ObserveReceipt(ctx, req.Label, receipt)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", signedTx.Hash().Hex())
	}
	return receipt, nil
}

func (s *Sender) buildTx(ctx context.Context, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, data []byte) (*types.Transaction, error) {
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get latest header: %w", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := s.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("get gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       to,
			Value:    value,
			Gas:      gasLimit,
			GasPrice: gasPrice,
			Data:     data,
		}), nil
	}

	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas tip cap: %w", err)
	}
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.signer.ChainID(),
		Nonce:     nonce,
		To:        to,
		Value:     value,
		Gas:       gasLimit,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Data:      data,
	}), nil
}

func (s *Sender) waitConfirmations(ctx context.Context, receipt *types.Receipt, confirmations uint64) error {
	if confirmations <= 1 || receipt.BlockNumber == nil {
		return nil
	}
	target := receipt.BlockNumber.Uint64() + confirmations - 1

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		head, err := s.client.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get block number: %w", err)
		}
		if head >= target {
			return nil
		}
		s.logger.Debug("waiting for confirmations",
			slog.String("tx_hash", receipt.TxHash.Hex()),
			slog.Uint64("head", head),
			slog.Uint64("target", target),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
