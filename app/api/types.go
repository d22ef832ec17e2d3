package api

import (
	"io"

	"github.com/lysyi3m/motd-comb/app/database"
	"github.com/lysyi3m/motd-comb/app/feed"
	"github.com/lysyi3m/motd-comb/app/motd"
	"github.com/lysyi3m/motd-comb/app/publish"
	"github.com/lysyi3m/motd-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, motds []motd.CleanedRecord) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type BlobSource interface {
	Open(name string) (io.ReadSeeker, publish.Metadata, error)
}

var _ BlobSource = (*publish.FilePublisher)(nil)

type Options struct {
	SnapshotName string
	FeedMaxItems int
	BaseURL      string
	Version      string
}

type Handler struct {
	store     database.Store
	blobs     BlobSource
	scheduler tasks.TaskSchedulerInterface
	generator GeneratorInterface
	opts      Options
}

type motdResponse struct {
	Key   int64               `json:"key"`
	Raw   any                 `json:"raw"`
	Clean *motd.CleanedRecord `json:"motd"`
}
