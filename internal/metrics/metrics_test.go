package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })
	require.Panics(t, func() { RegisterCollectors(reg) })
}

func TestResult(t *testing.T) {
	require.Equal(t, "ok", Result(nil))
	require.Equal(t, "error", Result(errors.New("boom")))
}

func TestBlobOpsCounter(t *testing.T) {
	before := testutil.ToFloat64(BlobOps.WithLabelValues("put", "ok"))
	BlobOps.WithLabelValues("put", "ok").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(BlobOps.WithLabelValues("put", "ok")))
}
