// Package draft persists the in-progress submission form so it survives
// restarts of the editor.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"os"
	"slices"

	"github.com/cardtrack/cardtrack/internal/util"
)

const (
	defaultDirPerm  = 0o700
	defaultFilePerm = 0o600

	// SubmittedParam marks a landing URL reached after a successful submission.
	SubmittedParam = "submitted"
)

// State is the persisted form snapshot: header fields plus the identifier
// of every row in visual order, blanks included.
type State struct {
	Header         map[string]string `json:"header"`
	RowIdentifiers []string          `json:"rowIdentifiers"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return State{
		Header:         maps.Clone(s.Header),
		RowIdentifiers: slices.Clone(s.RowIdentifiers),
	}
}

// Store reads and writes a single draft file.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a store backed by path. The file and its directory are
// created lazily on the first Save.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{path: path, logger: logger}
}

// Path returns the draft file location.
func (s *Store) Path() string {
	return s.path
}

// Save overwrites any prior draft with state.
func (s *Store) Save(state State) error {
	if state.Header == nil {
		state.Header = map[string]string{}
	}
	if state.RowIdentifiers == nil {
		state.RowIdentifiers = []string{}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := util.WriteFileAtomic(s.path, raw, defaultDirPerm, defaultFilePerm); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	s.logger.Debug("draft saved",
		slog.String("path", s.path), slog.Int("rows", len(state.RowIdentifiers)))
	return nil
}

// Load returns the saved draft. A missing or malformed file reports
// present == false; only unexpected I/O failures are returned as errors.
func (s *Store) Load() (State, bool, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("read draft: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("ignoring malformed draft", slog.String("path", s.path), slog.Any("error", err))
		return State{}, false, nil
	}
	if state.Header == nil {
		state.Header = map[string]string{}
	}
	return state, true, nil
}

// Clear removes the draft. Clearing an absent draft is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove draft: %w", err)
	}
	s.logger.Debug("draft cleared", slog.String("path", s.path))
	return nil
}

// ClearIfSubmitted clears the draft when u carries submitted=1 and
// reports whether it did.
func (s *Store) ClearIfSubmitted(u *url.URL) (bool, error) {
	if !IsSubmitted(u) {
		return false, nil
	}
	if err := s.Clear(); err != nil {
		return false, err
	}
	return true, nil
}

// IsSubmitted reports whether u is the landing URL of a completed submission.
func IsSubmitted(u *url.URL) bool {
	return u != nil && u.Query().Get(SubmittedParam) == "1"
}
