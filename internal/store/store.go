// Package store persists the preference document: a single JSON file holding
// the user and channel subscription mappings. Every mutation reads the whole
// document, mutates it in memory and rewrites the whole file. A single mutex
// serializes writers so a command and a refresh job cannot interleave their
// read-modify-write cycles.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"timetable-slack-bot/internal/domain"
	"timetable-slack-bot/pkg/models"
)

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// EnsureExists creates an empty document on first start if the file is absent.
func (s *Store) EnsureExists() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat preference file: %w", err)
	}

	return s.saveLocked(models.NewDocument())
}

// Load reads the whole document.
func (s *Store) Load() (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// Save overwrites the whole document unconditionally.
func (s *Store) Save(doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(doc)
}

// Update runs load -> fn -> save as one critical section. If fn returns an
// error the document is not written back.
func (s *Store) Update(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}

	if err := fn(doc); err != nil {
		return err
	}

	return s.saveLocked(doc)
}

func (s *Store) loadLocked() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preference file: %w", err)
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptStore, err)
	}

	// Maps may come back nil from an empty or partial file.
	if doc.UserData == nil {
		doc.UserData = make(map[string]models.Subscription)
	}
	if doc.ChannelData == nil {
		doc.ChannelData = make(map[string]models.Subscription)
	}

	return doc, nil
}

func (s *Store) saveLocked(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preference document: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preference file: %w", err)
	}

	return nil
}
