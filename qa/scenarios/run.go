package scenarios

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/vppsim/core/dispatch"
	coremetrics "github.com/kilianp07/vppsim/core/metrics"
	"github.com/kilianp07/vppsim/infra/metrics"
)

const settleTimeout = 2 * time.Second

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	clock := clockwork.NewFakeClock()
	ctl, err := dispatch.New(sc.Dispatch, dispatch.WithClock(clock))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	defer ctl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	collected := metrics.StartDispatchCollector(ctx, ctl, sink)

	rejected := 0
	for i, st := range sc.Steps {
		if st.Submit != nil {
			want, _ := expectedError(st.ExpectError)
			_, err := ctl.Submit(st.Submit.Asset, st.Submit.TargetMW)
			switch {
			case want == nil && err != nil:
				t.Fatalf("step %d: unexpected error %v", i, err)
			case want != nil && !errors.Is(err, want):
				t.Fatalf("step %d: expected %v, got %v", i, want, err)
			case err != nil:
				rejected++
			}
		}
		if st.AdvanceMS > 0 {
			clock.Advance(time.Duration(st.AdvanceMS) * time.Millisecond)
		}
		if st.WaitIdle && !waitFor(func() bool { return !ctl.Busy() }) {
			t.Fatalf("step %d: command still in flight", i)
		}
	}

	completed := 0
	for _, c := range ctl.Commands() {
		if c.Status == dispatch.StatusCompleted {
			completed++
		}
	}
	if completed != sc.Expected.Completed {
		t.Errorf("scenario %s expected %d completed, got %d", sc.Name, sc.Expected.Completed, completed)
	}
	if rejected != sc.Expected.Rejected {
		t.Errorf("scenario %s expected %d rejected, got %d", sc.Name, sc.Expected.Rejected, rejected)
	}
	if !waitFor(func() bool { return completedTransitions(t, reg) == float64(completed) }) {
		t.Errorf("scenario %s: prometheus recorded %v completions, want %d", sc.Name, completedTransitions(t, reg), completed)
	}
	cancel()
	<-collected
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(settleTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
	return true
}

func completedTransitions(t *testing.T, reg *prometheus.Registry) float64 {
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != "vpp_dispatch_transitions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" && lp.GetValue() == string(dispatch.StatusCompleted) {
					sum += m.GetCounter().GetValue()
				}
			}
		}
	}
	return sum
}
