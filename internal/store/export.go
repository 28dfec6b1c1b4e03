package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tempvault/tempvault/internal/fault"
	"github.com/tempvault/tempvault/internal/model"
)

// exportVersion identifies the backup document format.
const exportVersion = 1

// ExportDoc is the backup document. It round-trips through Import without
// information loss for any Message field.
type ExportDoc struct {
	Version   int             `json:"version"`
	Timestamp string          `json:"timestamp"`
	Email     string          `json:"email"`
	Accounts  []model.Account `json:"accounts"`
	Messages  []model.Message `json:"messages"`
}

// Export captures the full cache state as a backup document.
func (s *Store) Export() (*ExportDoc, error) {
	msgs, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	accounts, err := s.Accounts()
	if err != nil {
		return nil, err
	}
	email, err := s.CurrentAccount()
	if err != nil {
		return nil, err
	}

	return &ExportDoc{
		Version:   exportVersion,
		Timestamp: time.Now().UTC().Format(model.TimeLayout),
		Email:     email,
		Accounts:  accounts,
		Messages:  msgs,
	}, nil
}

// Import restores a backup document. Any document with a messages array is
// accepted; unknown fields are ignored. A document without one is rejected
// as a validation failure and nothing is applied. Messages are written in a
// single transaction, so a storage failure midway leaves the cache unchanged.
func (s *Store) Import(data []byte) (int, error) {
	var doc struct {
		Email    string           `json:"email"`
		Accounts []model.Account  `json:"accounts"`
		Messages *[]model.Message `json:"messages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fault.New(fault.Validation, "parse import document", err)
	}
	if doc.Messages == nil {
		return 0, fault.Errorf(fault.Validation, "import document has no messages array")
	}

	msgs := *doc.Messages
	err := s.withTx(func(tx *sql.Tx) error {
		for _, m := range msgs {
			if err := restore(tx, m); err != nil {
				return storageErr("restore message", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, a := range doc.Accounts {
		if a.Email == "" {
			continue
		}
		if err := s.AddAccount(a.Email); err != nil {
			return 0, err
		}
	}
	if doc.Email != "" {
		if err := s.SetCurrentAccount(doc.Email); err != nil {
			return 0, err
		}
	}

	return len(msgs), nil
}
