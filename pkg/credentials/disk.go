package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dcos/dcos-test-utils/pkg/iam"
)

const fileExt = ".json"

// DiskStore writes each account to {folder}/{uid}.json, readable by the
// owner only.
type DiskStore struct {
	folder string
	mu     sync.RWMutex
}

var _ Store = (*DiskStore)(nil)

func NewDiskStore(folder string) *DiskStore {
	return &DiskStore{folder: folder}
}

// filePath rejects uids that would leave the folder.
func (s *DiskStore) filePath(uid string) (string, error) {
	if uid == "" || strings.ContainsAny(uid, `/\`) {
		return "", fmt.Errorf("invalid service account uid %q", uid)
	}
	return filepath.Join(s.folder, uid+fileExt), nil
}

func (s *DiskStore) Save(creds iam.ServiceAccountCredentials) error {
	path, err := s.filePath(creds.UID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.folder, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (s *DiskStore) Load(uid string) (*iam.ServiceAccountCredentials, error) {
	path, err := s.filePath(uid)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var creds iam.ServiceAccountCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("decoding credentials of %s: %w", uid, err)
	}
	return &creds, nil
}

func (s *DiskStore) Delete(uid string) error {
	path, err := s.filePath(uid)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) Exists(uid string) bool {
	path, err := s.filePath(uid)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(path)
	return err == nil
}

// List returns the stored uids, sorted. A missing folder is an empty store.
func (s *DiskStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	uids := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		uids = append(uids, strings.TrimSuffix(e.Name(), fileExt))
	}
	slices.Sort(uids)
	return uids, nil
}
