package store

import (
	"time"

	"github.com/tempvault/tempvault/internal/model"
)

// activityLimit bounds the usage-event ring; the oldest entries are evicted
// first once the limit is exceeded.
const activityLimit = 50

// Activity is one recorded usage event.
type Activity struct {
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurredAt"`
}

// RecordActivity appends a usage event and trims the ring to its bound.
func (s *Store) RecordActivity(kind, detail string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT INTO activity (kind, detail, occurred_at) VALUES (?, ?, ?)`,
		kind, detail, time.Now().UTC().Format(model.TimeLayout))
	if err != nil {
		return storageErr("record activity", err)
	}

	_, err = db.Exec(`
		DELETE FROM activity WHERE id NOT IN (
			SELECT id FROM activity ORDER BY id DESC LIMIT ?
		)
	`, activityLimit)
	return storageErr("trim activity", err)
}

// RecentActivity returns the n most recent usage events, newest first.
func (s *Store) RecentActivity(n int) ([]Activity, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT kind, detail, occurred_at FROM activity
		ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, storageErr("list activity", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.Kind, &a.Detail, &a.OccurredAt); err != nil {
			return nil, storageErr("scan activity", err)
		}
		out = append(out, a)
	}
	return out, storageErr("list activity", rows.Err())
}
