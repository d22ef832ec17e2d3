package tasks

import (
	"context"

	"github.com/lysyi3m/motd-comb/app/database"
	"github.com/lysyi3m/motd-comb/app/motd"
	"github.com/lysyi3m/motd-comb/app/snapshot"
)

// TaskSchedulerInterface is what the server needs from the scheduler.
//
//	scheduler := NewScheduler(deps, interval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	records, err := scheduler.RunUpdate(ctx)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RunUpdate(ctx context.Context) ([]database.Record, error)
	EnqueueExport() error
}

// Triggers starts follow-up work without waiting for it. Failures are
// reported by the implementation, never to the caller.
type Triggers interface {
	Announce(ctx context.Context, status string)
	Export(ctx context.Context)
}

type MOTDSource interface {
	GetMOTDs(ctx context.Context) ([]motd.RawRecord, error)
}

type SnapshotBuilder interface {
	Build(ctx context.Context) (*snapshot.Snapshot, error)
}
