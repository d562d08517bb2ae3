package metrics

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/olekukonko/tablewriter"
)

type gasStats struct {
	calls uint64
	min   uint64
	max   uint64
	total uint64
}

// GasReporter aggregates gas used per contract method and deployment.
// Safe for concurrent use.
type GasReporter struct {
	mu    sync.Mutex
	stats map[string]*gasStats
}

// NewGasReporter creates an empty reporter.
func NewGasReporter() *GasReporter {
	return &GasReporter{stats: make(map[string]*gasStats)}
}

// ObserveReceipt implements chain.ReceiptObserver.
func (g *GasReporter) ObserveReceipt(_ context.Context, label string, receipt *types.Receipt) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.stats[label]
	if !ok {
		s = &gasStats{min: math.MaxUint64}
		g.stats[label] = s
	}
	s.calls++
	s.total += receipt.GasUsed
	s.min = min(s.min, receipt.GasUsed)
	s.max = max(s.max, receipt.GasUsed)
}

// Empty reports whether nothing was observed.
func (g *GasReporter) Empty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.stats) == 0
}

// Render writes the report as a table sorted by contract and method.
func (g *GasReporter) Render(w io.Writer) {
	g.mu.Lock()
	labels := make([]string, 0, len(g.stats))
	for label := range g.stats {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		s := g.stats[label]
		contract, method := SplitLabel(label)
		rows = append(rows, []string{
			contract,
			method,
			strconv.FormatUint(s.calls, 10),
			strconv.FormatUint(s.min, 10),
			strconv.FormatUint(s.max, 10),
			strconv.FormatUint(s.total/s.calls, 10),
		})
	}
	g.mu.Unlock()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Contract", "Method", "Calls", "Min", "Max", "Avg"})
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
}

// WriteFile renders the report to a file, replacing it.
func (g *GasReporter) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gas report: %w", err)
	}
	g.Render(f)
	if err := f.Close(); err != nil {
		return fmt.Errorf("write gas report: %w", err)
	}
	return nil
}
