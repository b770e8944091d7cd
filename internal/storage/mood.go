package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
)

// MoodNamespace holds the mood tracker's daily readings.
const MoodNamespace = "mood"

// MoodRepository exposes the mood tracker's data keyed by calendar date.
// The finance core only reads it; Record exists for the tracker side and tooling.
type MoodRepository struct {
	store NamespaceStore
}

func NewMoodRepository(store NamespaceStore) *MoodRepository {
	return &MoodRepository{store: store}
}

// Moods returns every recorded day.
func (r *MoodRepository) Moods(ctx context.Context) (map[core.Date]core.MoodEntry, error) {
	raw, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[core.Date]core.MoodEntry, len(raw))
	for key, entry := range raw {
		d, err := core.ParseDate(key)
		if err != nil {
			// Entries keyed by something other than a date are not mood days.
			continue
		}
		out[d] = entry
	}
	return out, nil
}

// Record stores or replaces the entry for one day.
func (r *MoodRepository) Record(ctx context.Context, date core.Date, entry core.MoodEntry) error {
	raw, revision, err := r.load(ctx)
	if err != nil {
		return err
	}
	raw[date.String()] = entry

	body, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode mood entries: %w", err)
	}
	if _, err := r.store.SaveNamespace(ctx, MoodNamespace, body, revision); err != nil {
		return fmt.Errorf("save mood entries: %w", err)
	}
	return nil
}

func (r *MoodRepository) load(ctx context.Context) (map[string]core.MoodEntry, int64, error) {
	body, revision, err := r.store.LoadNamespace(ctx, MoodNamespace)
	if err != nil {
		return nil, 0, fmt.Errorf("load mood entries: %w", err)
	}

	raw := make(map[string]core.MoodEntry)
	if body == nil {
		return raw, revision, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode mood entries: %w", err)
	}
	return raw, revision, nil
}
