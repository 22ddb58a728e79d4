package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_RegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveTransform("stack", ResultApplied, 5*time.Millisecond)
	pr.ObserveTransform("stack", ResultNoop, time.Millisecond)
	pr.SetIndexSize(3)
	pr.ObserveSweep(2, 10*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["imgstack_transforms_total"])
	require.True(t, names["imgstack_transform_duration_seconds"])
	require.True(t, names["imgstack_index_files"])
	require.True(t, names["imgstack_sweep_blocks_merged_total"])
}
