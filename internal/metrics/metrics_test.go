package metrics

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receipt(gas uint64, status uint64) *types.Receipt {
	return &types.Receipt{GasUsed: gas, Status: status}
}

func TestObserveStepAndReceipt(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.ObserveStep("localhost", "01-deploy-lottery", nil, time.Second)
	m.ObserveStep("localhost", "01-deploy-lottery", errors.New("boom"), time.Second)
	m.ObserveReceipt(ctx, "Lottery.enterLottery", receipt(50000, types.ReceiptStatusSuccessful))
	m.ObserveReceipt(ctx, "Lottery.enterLottery", receipt(30000, types.ReceiptStatusSuccessful))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepsTotal.WithLabelValues("localhost", "01-deploy-lottery", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepsTotal.WithLabelValues("localhost", "01-deploy-lottery", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.txTotal.WithLabelValues("Lottery", "enterLottery", "success")))
	assert.Equal(t, 80000.0, testutil.ToFloat64(m.gasUsed.WithLabelValues("Lottery", "enterLottery")))
}

func TestPush(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.RunFinished(time.Unix(1700000000, 0))
	require.NoError(t, m.Push(context.Background(), srv.URL, "lottery_deploy"))
	assert.Equal(t, "/metrics/job/lottery_deploy", path)
}

func TestSplitLabel(t *testing.T) {
	c, m := SplitLabel("VRFCoordinatorV2Mock.fundSubscription")
	assert.Equal(t, "VRFCoordinatorV2Mock", c)
	assert.Equal(t, "fundSubscription", m)

	c, m = SplitLabel("transfer")
	assert.Empty(t, c)
	assert.Equal(t, "transfer", m)
}

func TestGasReport(t *testing.T) {
	g := NewGasReporter()
	assert.True(t, g.Empty())

	ctx := context.Background()
	g.ObserveReceipt(ctx, "Lottery.enterLottery", receipt(70000, 1))
	g.ObserveReceipt(ctx, "Lottery.enterLottery", receipt(50000, 1))
	g.ObserveReceipt(ctx, "Lottery.deploy", receipt(1200000, 1))

	var buf bytes.Buffer
	g.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, "Contract")
	lines := strings.Split(out, "\n")
	var enter string
	for _, l := range lines {
		if strings.Contains(l, "enterLottery") {
			enter = l
		}
	}
	require.NotEmpty(t, enter)
	assert.Contains(t, enter, "50000")
	assert.Contains(t, enter, "70000")
	assert.Contains(t, enter, "60000")
	assert.Less(t, strings.Index(out, "deploy"), strings.Index(out, "enterLottery"))

	path := filepath.Join(t.TempDir(), "gas-report.txt")
	require.NoError(t, g.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}
