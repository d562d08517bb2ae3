// Package repository records deploy runs and the transactions they sent in PostgreSQL.
package repository

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the deploy run status.
type Status string

const (
	// StatusRunning indicates the run is in progress.
	StatusRunning Status = "running"
	// StatusCompleted indicates every selected step finished.
	StatusCompleted Status = "completed"
	// StatusFailed indicates a step returned an error.
	StatusFailed Status = "failed"
)

// Run is one invocation of the deploy pipeline against a network.
type Run struct {
	ID           uuid.UUID `json:"id"`
	Network      string    `json:"network"`
	ChainID      int64     `json:"chainId"`
	Tags         []string  `json:"tags"`
	Deployer     string    `json:"deployer"`
	Status       Status    `json:"status"`
	CurrentStep  *string   `json:"currentStep,omitempty"`
	ErrorMessage *string   `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Transaction is a mined transaction sent during a run.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"runId"`
	Step        string    `json:"step"`
	Label       string    `json:"label"`
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	GasUsed     uint64    `json:"gasUsed"`
	Status      uint64    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}
