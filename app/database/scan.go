package database

import (
	"context"
	"fmt"
)

// ScanAll pages through the whole store. Backends whose cursors may repeat a
// key across pages are tolerated: each key is returned once.
func ScanAll(ctx context.Context, store Store, consistent bool) ([]Record, error) {
	var records []Record
	seen := make(map[int64]struct{})

	cursor := ""
	for {
		page, err := store.Scan(ctx, cursor, consistent)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}

		for _, rec := range page.Records {
			if _, ok := seen[rec.Key]; ok {
				continue
			}
			seen[rec.Key] = struct{}{}
			records = append(records, rec)
		}

		if page.Next == "" {
			return records, nil
		}
		cursor = page.Next
	}
}
