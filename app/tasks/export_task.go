package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/motd-comb/app/publish"
	"github.com/lysyi3m/motd-comb/app/snapshot"
)

type ExportTask struct {
	Task
	builder   SnapshotBuilder
	publisher publish.Publisher
	name      string
}

func NewExportTask(builder SnapshotBuilder, publisher publish.Publisher, name string) *ExportTask {
	return &ExportTask{
		Task:      NewTask(TaskTypeExport),
		builder:   builder,
		publisher: publisher,
		name:      name,
	}
}

func (t *ExportTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s, err := t.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	body, err := snapshot.Encode(s)
	if err != nil {
		return err
	}

	err = t.publisher.Publish(ctx, publish.Blob{
		Name:            t.name,
		Body:            body,
		ContentType:     snapshot.ContentType,
		ContentEncoding: snapshot.ContentEncoding,
	})
	if err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	slog.Info("Snapshot published", "name", t.name, "motds", len(s.MOTDs), "bytes", len(body))
	return nil
}
