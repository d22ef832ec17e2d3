// Package snapshot assembles the published history document.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/lysyi3m/motd-comb/app/database"
	"github.com/lysyi3m/motd-comb/app/motd"
	"github.com/lysyi3m/motd-comb/app/smite"
)

const (
	ContentType     = "application/json"
	ContentEncoding = "gzip"
)

type GodEntry struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type Snapshot struct {
	MOTDs []motd.CleanedRecord `json:"motds"`
	Gods  map[int]GodEntry     `json:"gods"`
}

type GodSource interface {
	GetGods(ctx context.Context) ([]smite.God, error)
}

type Builder struct {
	store database.Store
	gods  GodSource
}

func NewBuilder(store database.Store, gods GodSource) *Builder {
	return &Builder{store: store, gods: gods}
}

// Build reads every stored record with consistent reads. A record that fails
// to parse fails the whole build.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	records, err := database.ScanAll(ctx, b.store, true)
	if err != nil {
		return nil, err
	}

	motds, err := CleanRecords(records)
	if err != nil {
		return nil, err
	}

	roster, err := b.gods.GetGods(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gods: %w", err)
	}

	slog.Debug("Snapshot built", "motds", len(motds), "gods", len(roster))

	return &Snapshot{MOTDs: motds, Gods: Roster(roster)}, nil
}

// CleanRecords parses stored records and orders them newest first.
func CleanRecords(records []database.Record) ([]motd.CleanedRecord, error) {
	motds := make([]motd.CleanedRecord, 0, len(records))
	for _, rec := range records {
		raw, err := motd.DecodeRecord(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode motd %d: %w", rec.Key, err)
		}
		clean, err := motd.Parse(raw)
		if err != nil {
			return nil, err
		}
		motds = append(motds, *clean)
	}

	sort.SliceStable(motds, func(i, j int) bool {
		return motds[i].StartTime > motds[j].StartTime
	})

	return motds, nil
}

func Roster(gods []smite.God) map[int]GodEntry {
	roster := make(map[int]GodEntry, len(gods))
	for _, god := range gods {
		roster[god.ID] = GodEntry{
			Name: god.Name,
			Icon: strings.ReplaceAll(god.IconURL, "http://", "https://"),
		}
	}
	return roster
}

// Encode returns the gzip-compressed JSON document.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(blob []byte) (*Snapshot, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	defer zr.Close()

	var s Snapshot
	if err := json.NewDecoder(zr).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
