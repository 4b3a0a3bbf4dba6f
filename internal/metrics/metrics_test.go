package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDecode(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordDecode(3, 120, 2, 0.01)
	m.RecordDecode(1, 10, 0, 0.02)

	if got := testutil.ToFloat64(m.DecodeCalls); got != 2 {
		t.Errorf("DecodeCalls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BatchItems); got != 4 {
		t.Errorf("BatchItems = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.Timesteps); got != 130 {
		t.Errorf("Timesteps = %v, want 130", got)
	}
	if got := testutil.ToFloat64(m.CapacityShortage); got != 2 {
		t.Errorf("CapacityShortage = %v, want 2", got)
	}
}

func TestRecordDecodeError(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordDecodeError("shape")
	m.RecordDecodeError("shape")
	m.RecordDecodeError("config")

	if got := testutil.ToFloat64(m.DecodeErrors.WithLabelValues("shape")); got != 2 {
		t.Errorf("DecodeErrors{shape} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DecodeErrors.WithLabelValues("config")); got != 1 {
		t.Errorf("DecodeErrors{config} = %v, want 1", got)
	}
}

func TestRecordTrieBuild(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordTrieBuild(10, 2, nil)
	m.RecordTrieBuild(0, 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.TrieBuilds.WithLabelValues("ok")); got != 1 {
		t.Errorf("TrieBuilds{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TrieBuilds.WithLabelValues("failed")); got != 1 {
		t.Errorf("TrieBuilds{failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TrieWords); got != 10 {
		t.Errorf("TrieWords = %v, want 10", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordDecode(1, 1, 1, 1)
	m.RecordDecodeError("config")
	m.RecordTrieBuild(1, 0, nil)
	m.RecordReconfigure()
}
