package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/motd-comb/app/announce"
)

// AnnounceTask posts one status at most once, so it is never retried.
type AnnounceTask struct {
	Task
	announcer announce.Announcer
	Status    string
}

func NewAnnounceTask(announcer announce.Announcer, status string) *AnnounceTask {
	task := NewTask(TaskTypeAnnounce)
	task.MaxRetries = 0

	return &AnnounceTask{
		Task:      task,
		announcer: announcer,
		Status:    status,
	}
}

func (t *AnnounceTask) Execute(ctx context.Context) error {
	if err := t.announcer.Post(ctx, t.Status); err != nil {
		return fmt.Errorf("failed to announce: %w", err)
	}

	slog.Debug("Announcement posted", "id", t.ID)
	return nil
}
