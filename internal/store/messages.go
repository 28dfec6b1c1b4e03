package store

import (
	"database/sql"
	"time"

	"github.com/tempvault/tempvault/internal/attach"
	"github.com/tempvault/tempvault/internal/filter"
	"github.com/tempvault/tempvault/internal/model"
)

const messageColumns = `id, from_addr, subject, body, created_at, is_read, starred, has_attachments, updated_at`

// Put upserts a message by id. The store stamps HasAttachments (via the
// attachment detector) and UpdatedAt on every save; whatever the caller set
// on those fields is discarded. An empty ID is derived from (CreatedAt, From).
// Returns the message as stored.
func (s *Store) Put(m model.Message) (model.Message, error) {
	if m.ID == "" {
		m.ID = model.MessageID(m.CreatedAt, m.From)
	}
	m.HasAttachments = len(attach.Detect(m.Body)) > 0
	m.UpdatedAt = time.Now().UTC().Format(model.TimeLayout)

	db, err := s.conn()
	if err != nil {
		return model.Message{}, err
	}

	_, err = db.Exec(`
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			from_addr = excluded.from_addr,
			subject = excluded.subject,
			body = excluded.body,
			created_at = excluded.created_at,
			is_read = excluded.is_read,
			starred = excluded.starred,
			has_attachments = excluded.has_attachments,
			updated_at = excluded.updated_at
	`, m.ID, m.From, m.Subject, m.Body, m.CreatedAt, m.IsRead, m.Starred, m.HasAttachments, m.UpdatedAt)
	if err != nil {
		return model.Message{}, storageErr("put message", err)
	}
	return m, nil
}

// restore writes a message verbatim inside a transaction, re-deriving only
// HasAttachments so the stored record stays consistent with its body.
// Used by Import, where UpdatedAt must survive the round trip.
func restore(tx *sql.Tx, m model.Message) error {
	if m.ID == "" {
		m.ID = model.MessageID(m.CreatedAt, m.From)
	}
	m.HasAttachments = len(attach.Detect(m.Body)) > 0
	if m.UpdatedAt == "" {
		m.UpdatedAt = time.Now().UTC().Format(model.TimeLayout)
	}
	_, err := tx.Exec(`
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			from_addr = excluded.from_addr,
			subject = excluded.subject,
			body = excluded.body,
			created_at = excluded.created_at,
			is_read = excluded.is_read,
			starred = excluded.starred,
			has_attachments = excluded.has_attachments,
			updated_at = excluded.updated_at
	`, m.ID, m.From, m.Subject, m.Body, m.CreatedAt, m.IsRead, m.Starred, m.HasAttachments, m.UpdatedAt)
	return err
}

func scanMessage(rows interface{ Scan(...interface{}) error }) (model.Message, error) {
	var m model.Message
	err := rows.Scan(&m.ID, &m.From, &m.Subject, &m.Body, &m.CreatedAt,
		&m.IsRead, &m.Starred, &m.HasAttachments, &m.UpdatedAt)
	return m, err
}

// Get returns the message with the given id, or nil if it does not exist.
func (s *Store) Get(id string) (*model.Message, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get message", err)
	}
	return &m, nil
}

// GetAll returns every stored message. Order is unspecified; callers that
// need an order must sort explicitly.
func (s *Store) GetAll() ([]model.Message, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT ` + messageColumns + ` FROM messages`)
	if err != nil {
		return nil, storageErr("get all messages", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, storageErr("scan message", err)
		}
		out = append(out, m)
	}
	return out, storageErr("get all messages", rows.Err())
}

// ExistingIDs returns the set of all stored message ids. Sync prefetches
// this once per pass instead of issuing one lookup per remote entry.
func (s *Store) ExistingIDs() (map[string]struct{}, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT id FROM messages`)
	if err != nil {
		return nil, storageErr("list message ids", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan message id", err)
		}
		ids[id] = struct{}{}
	}
	return ids, storageErr("list message ids", rows.Err())
}

// Delete removes a message. Deleting a missing id is not an error.
func (s *Store) Delete(id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM messages WHERE id = ?`, id)
	return storageErr("delete message", err)
}

// Clear removes all messages.
func (s *Store) Clear() error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM messages`)
	return storageErr("clear messages", err)
}

// MarkRead transitions a message to read. The transition is one-way; there
// is no unread action in the normal flow. Idempotent.
func (s *Store) MarkRead(id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`UPDATE messages SET is_read = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(model.TimeLayout), id)
	return storageErr("mark read", err)
}

// MarkAllRead marks every unread message as read and returns how many
// transitioned.
func (s *Store) MarkAllRead() (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(`UPDATE messages SET is_read = 1, updated_at = ? WHERE is_read = 0`,
		time.Now().UTC().Format(model.TimeLayout))
	if err != nil {
		return 0, storageErr("mark all read", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SetStarred toggles the starred flag on a message.
func (s *Store) SetStarred(id string, starred bool) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`UPDATE messages SET starred = ?, updated_at = ? WHERE id = ?`,
		starred, time.Now().UTC().Format(model.TimeLayout), id)
	return storageErr("set starred", err)
}

// DeleteRead removes all read messages ("clear inbox") and returns how many
// were removed.
func (s *Store) DeleteRead() (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(`DELETE FROM messages WHERE is_read = 1`)
	if err != nil {
		return 0, storageErr("delete read messages", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// scanFiltered walks messages in reverse-insertion order (most recently
// inserted first), restricted to section in SQL, applying f to each row as it
// streams past. fn returns false to stop early, so paging never materializes
// more rows than it needs.
func (s *Store) scanFiltered(f filter.State, section model.Section, fn func(model.Message) bool) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	query := `SELECT ` + messageColumns + ` FROM messages`
	switch section {
	case model.SectionRead:
		query += ` WHERE is_read = 1`
	case model.SectionUnread:
		query += ` WHERE is_read = 0`
	}
	query += ` ORDER BY rowid DESC`

	rows, err := db.Query(query)
	if err != nil {
		return storageErr("scan messages", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return storageErr("scan message", err)
		}
		if !filter.Matches(m, f) {
			continue
		}
		if !fn(m) {
			break
		}
	}
	return storageErr("scan messages", rows.Err())
}

// Count returns how many messages match f within section.
func (s *Store) Count(f filter.State, section model.Section) (int, error) {
	n := 0
	err := s.scanFiltered(f, section, func(model.Message) bool {
		n++
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Page returns up to limit messages matching f within section, skipping the
// first offset matches. Iteration order is reverse-insertion.
func (s *Store) Page(limit, offset int, f filter.State, section model.Section) ([]model.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []model.Message
	skipped := 0
	err := s.scanFiltered(f, section, func(m model.Message) bool {
		if skipped < offset {
			skipped++
			return true
		}
		out = append(out, m)
		return len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
