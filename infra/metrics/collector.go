package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/vppsim/core/dispatch"
	coremetrics "github.com/kilianp07/vppsim/core/metrics"
	"github.com/kilianp07/vppsim/core/store"
	"github.com/kilianp07/vppsim/infra/logger"
)

// Source is a subscribable event stream such as the store or the dispatch
// controller.
type Source[T any] interface {
	Subscribe() <-chan T
	Unsubscribe(ch <-chan T)
}

// StartCollector subscribes to src and passes each event to handle until ctx
// is cancelled or the source closes. The returned channel is closed once
// the collector has unsubscribed.
func StartCollector[T any](ctx context.Context, src Source[T], handle func(T)) <-chan struct{} {
	done := make(chan struct{})
	sub := src.Subscribe()
	go func() {
		defer close(done)
		defer src.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				handle(ev)
			}
		}
	}()
	return done
}

// StartStoreCollector records store changes on sink.
func StartStoreCollector(ctx context.Context, st Source[store.Change], sink coremetrics.MetricsSink) <-chan struct{} {
	log := logger.New("metrics_collector")
	return StartCollector(ctx, st, func(c store.Change) {
		if err := recordChange(sink, c, time.Now()); err != nil {
			log.Warnf("record %s: %v", c.Kind, err)
		}
	})
}

func recordChange(sink coremetrics.MetricsSink, c store.Change, now time.Time) error {
	switch c.Kind {
	case store.ChangeSnapshot:
		return sink.RecordSnapshot(coremetrics.SnapshotEvent{Snapshot: c.Snapshot, Time: now})
	case store.ChangeAlertAdded:
		if r, ok := sink.(coremetrics.AlertRecorder); ok && c.Alert != nil {
			return r.RecordAlert(coremetrics.AlertEvent{Alert: *c.Alert, LogSize: c.AlertCount, Time: now})
		}
	case store.ChangeAlertsCleared:
		if r, ok := sink.(coremetrics.AlertLogRecorder); ok {
			return r.RecordAlertLogSize(c.AlertCount)
		}
	}
	return nil
}

// StartDispatchCollector records dispatch status changes on sink.
func StartDispatchCollector(ctx context.Context, src Source[dispatch.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	log := logger.New("metrics_collector")
	r, ok := sink.(coremetrics.DispatchRecorder)
	return StartCollector(ctx, src, func(ev dispatch.Event) {
		if !ok {
			return
		}
		cmd := ev.Command
		err := r.RecordDispatch(coremetrics.DispatchEvent{
			CommandID: cmd.ID,
			AssetID:   cmd.AssetID,
			Status:    string(cmd.Status),
			TargetMW:  cmd.TargetMW,
			Time:      cmd.UpdatedAt,
		})
		if err != nil {
			log.Warnf("record dispatch %s: %v", cmd.ID, err)
		}
	})
}
