package store

import "database/sql"

// Store provides access to the recorded ssh results and downloaded bundles.
type Store struct {
	db       *sql.DB
	commands *CommandStore
	bundles  *BundleStore
}

func NewStore(db *sql.DB) *Store {
	q := newLoggingQuerier(db)
	return &Store{
		db:       db,
		commands: NewCommandStore(q),
		bundles:  NewBundleStore(q),
	}
}

func (s *Store) Commands() *CommandStore {
	return s.commands
}

func (s *Store) Bundles() *BundleStore {
	return s.bundles
}

func (s *Store) Close() error {
	return s.db.Close()
}
