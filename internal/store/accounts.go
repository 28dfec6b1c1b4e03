package store

import (
	"database/sql"

	"github.com/tempvault/tempvault/internal/model"
)

// Preference keys for scalar records.
const (
	prefCurrentEmail = "current_email"
	prefDarkMode     = "dark_mode"
)

// Accounts returns the known accounts in insertion order.
func (s *Store) Accounts() ([]model.Account, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT email FROM accounts ORDER BY position`)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Email); err != nil {
			return nil, storageErr("scan account", err)
		}
		out = append(out, a)
	}
	return out, storageErr("list accounts", rows.Err())
}

// AddAccount adds an account to the set. Adding an already-known email is a
// no-op; insertion order of the first add is preserved.
func (s *Store) AddAccount(email string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT OR IGNORE INTO accounts (email) VALUES (?)`, email)
	return storageErr("add account", err)
}

// RemoveAccount removes an account. If it was the current account, the first
// remaining account is promoted; with none left, no account is current.
func (s *Store) RemoveAccount(email string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM accounts WHERE email = ?`, email); err != nil {
			return storageErr("remove account", err)
		}

		var current string
		err := tx.QueryRow(`SELECT value FROM prefs WHERE key = ?`, prefCurrentEmail).Scan(&current)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return storageErr("read current account", err)
		}
		if current != email {
			return nil
		}

		var next string
		err = tx.QueryRow(`SELECT email FROM accounts ORDER BY position LIMIT 1`).Scan(&next)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.Exec(`DELETE FROM prefs WHERE key = ?`, prefCurrentEmail)
		case err == nil:
			_, err = tx.Exec(`UPDATE prefs SET value = ? WHERE key = ?`, next, prefCurrentEmail)
		}
		return storageErr("promote account", err)
	})
}

// CurrentAccount returns the current account email, or "" when none is set.
func (s *Store) CurrentAccount() (string, error) {
	v, err := s.getPref(prefCurrentEmail)
	if err != nil {
		return "", err
	}
	return v, nil
}

// SetCurrentAccount makes email the current account, adding it to the set if
// it is not yet known.
func (s *Store) SetCurrentAccount(email string) error {
	if err := s.AddAccount(email); err != nil {
		return err
	}
	return s.setPref(prefCurrentEmail, email)
}

// DarkMode returns the persisted dark mode preference.
func (s *Store) DarkMode() (bool, error) {
	v, err := s.getPref(prefDarkMode)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// SetDarkMode persists the dark mode preference.
func (s *Store) SetDarkMode(on bool) error {
	v := "false"
	if on {
		v = "true"
	}
	return s.setPref(prefDarkMode, v)
}

func (s *Store) getPref(key string) (string, error) {
	db, err := s.conn()
	if err != nil {
		return "", err
	}
	var v string
	err = db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", storageErr("read pref "+key, err)
	}
	return v, nil
}

func (s *Store) setPref(key, value string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return storageErr("write pref "+key, err)
}
