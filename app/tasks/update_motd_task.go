package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/motd-comb/app/database"
	"github.com/lysyi3m/motd-comb/app/motd"
)

// UpdateMOTDTask fetches the feed, stores records it has not seen yet and
// fires the announcement and export triggers.
type UpdateMOTDTask struct {
	Task
	source   MOTDSource
	store    database.Store
	triggers Triggers
	baseURL  string
}

func NewUpdateMOTDTask(source MOTDSource, store database.Store, triggers Triggers, baseURL string) *UpdateMOTDTask {
	return &UpdateMOTDTask{
		Task:     NewTask(TaskTypeUpdateMOTD),
		source:   source,
		store:    store,
		triggers: triggers,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

func (t *UpdateMOTDTask) Execute(ctx context.Context) error {
	records, err := t.Run(ctx)
	if err != nil {
		return err
	}

	slog.Debug("MOTD feed processed", "id", t.ID, "records", len(records))
	return nil
}

// Run returns every record derived from the feed, newest first, whether or
// not it was new. Records are walked oldest first so that the newest one is
// stored last.
func (t *UpdateMOTDTask) Run(ctx context.Context) ([]database.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	raws, err := t.source.GetMOTDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch motds: %w", err)
	}

	records := make([]database.Record, len(raws))
	for i, raw := range raws {
		records[i], err = storedRecord(raw)
		if err != nil {
			return nil, err
		}
	}

	changed := false
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		newest := i == 0

		existing, err := t.store.Get(ctx, rec.Key, newest)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		inserted, err := t.store.InsertIfAbsent(ctx, rec)
		if err != nil {
			return nil, err
		}
		if !inserted {
			slog.Debug("MOTD stored by a concurrent run", "key", rec.Key)
			continue
		}

		changed = true
		title := raws[i].String(motd.FieldTitle)
		slog.Info("MOTD stored", "key", rec.Key, "title", title)

		if newest {
			t.triggers.Announce(ctx, t.status(title, rec.Key))
		}
	}

	if changed {
		t.triggers.Export(ctx)
	}

	return records, nil
}

func (t *UpdateMOTDTask) status(title string, key int64) string {
	return fmt.Sprintf("%s - %s/?id=%d", title, t.baseURL, key)
}

func storedRecord(raw motd.RawRecord) (database.Record, error) {
	key, err := raw.Key()
	if err != nil {
		return database.Record{}, err
	}
	value, err := raw.Canonical()
	if err != nil {
		return database.Record{}, err
	}
	return database.Record{Key: key, Value: value}, nil
}
