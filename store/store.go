// Package store implements the on-disk session directory layout: atomic
// per-file writes, versioned artifact discovery, and stage-completion-by-
// presence probing, grounded on
// original_source/holodeck_core/storage/file_storage.py (reworked to the
// atomicity and non-emptiness rules of the specification, which the
// reference implementation's plain aiofiles writes did not provide).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/holodeck-scenegen/scenegen/herr"
)

// Store roots every session under <workspace>/sessions/<session_id>/.
type Store struct {
	workspace string
}

// New builds a Store rooted at workspace.
func New(workspace string) *Store {
	return &Store{workspace: workspace}
}

// SessionDir returns the directory for a session, creating it if absent.
func (s *Store) SessionDir(sessionID string) (string, error) {
	dir := filepath.Join(s.workspace, "sessions", sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", herr.New("store.SessionDir", "store", herr.KindInternalError, err)
	}
	return dir, nil
}

// Path joins the session directory with the given relative path, without
// requiring the directory to already exist.
func (s *Store) Path(sessionID string, rel ...string) string {
	parts := append([]string{s.workspace, "sessions", sessionID}, rel...)
	return filepath.Join(parts...)
}

// WriteFile atomically writes data to <sessionDir>/rel: it writes to a
// temp file in the same directory, then renames over the destination so
// concurrent readers never observe a partial file.
func (s *Store) WriteFile(sessionID, rel string, data []byte) error {
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return err
	}
	dest := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return herr.New("store.WriteFile", "store", herr.KindInternalError, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return herr.New("store.WriteFile", "store", herr.KindInternalError, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return herr.New("store.WriteFile", "store", herr.KindInternalError, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return herr.New("store.WriteFile", "store", herr.KindInternalError, err)
	}
	if err := tmp.Close(); err != nil {
		return herr.New("store.WriteFile", "store", herr.KindInternalError, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return herr.New("store.WriteFile", "store", herr.KindInternalError, err)
	}
	return nil
}

// WriteJSON marshals v and writes it atomically to <sessionDir>/rel.
func (s *Store) WriteJSON(sessionID, rel string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return herr.New("store.WriteJSON", "store", herr.KindInternalError, err)
	}
	return s.WriteFile(sessionID, rel, data)
}

// ReadJSON unmarshals <sessionDir>/rel into v.
func (s *Store) ReadJSON(sessionID, rel string, v interface{}) error {
	data, err := os.ReadFile(s.Path(sessionID, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return herr.New("store.ReadJSON", "store", herr.KindSessionNotFound, err)
		}
		return herr.New("store.ReadJSON", "store", herr.KindInternalError, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return herr.New("store.ReadJSON", "store", herr.KindSessionCorrupted, err)
	}
	return nil
}

// Exists reports whether <sessionDir>/rel exists and, for directories, is
// non-empty — the "presence and non-emptiness" rule that defines stage
// completion (no separate status field is trusted).
func (s *Store) Exists(sessionID, rel string) bool {
	path := s.Path(sessionID, rel)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

var versionedFilePattern = regexp.MustCompile(`^(.+)_v(\d+)(\.[a-zA-Z0-9]+)$`)

// LatestVersion scans the session directory for files matching
// "<prefix>_v{n}<ext>" and returns the highest n found, or 0 if none exist.
func (s *Store) LatestVersion(sessionID, prefix, ext string) (int, error) {
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, herr.New("store.LatestVersion", "store", herr.KindInternalError, err)
	}
	best := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := versionedFilePattern.FindStringSubmatch(e.Name())
		if m == nil || m[1] != prefix || m[3] != ext {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best, nil
}

// VersionedPath builds the "<prefix>_v{n}<ext>" relative path.
func VersionedPath(prefix string, version int, ext string) string {
	return fmt.Sprintf("%s_v%d%s", prefix, version, ext)
}

// ListSessions returns every session ID under the workspace, sorted.
func (s *Store) ListSessions() ([]string, error) {
	root := filepath.Join(s.workspace, "sessions")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, herr.New("store.ListSessions", "store", herr.KindInternalError, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// WriteLastError persists the most recent failure response to
// errors/last_error.json.
func (s *Store) WriteLastError(sessionID string, failure interface{}) error {
	return s.WriteJSON(sessionID, filepath.Join("errors", "last_error.json"), failure)
}

// stageArtifacts names the required outputs per stage (§4.5), used by
// StageComplete to probe completion without trusting a status field.
var stageArtifacts = map[string][]string{
	"session":     {"request.json"},
	"scene_ref":   {"scene_ref.png"},
	"extract":     {"objects.json"},
	"cards":       {"object_cards"},
	"assets":      {"assets", "asset_manifest.json"},
	"constraints": {}, // probed via LatestVersion, handled separately
	"layout":      {}, // probed via LatestVersion, handled separately
	"assemble":    {"blender_object_map.json"},
}

// StageComplete reports whether every required artifact for stage is
// present and non-empty. Stages with versioned artifacts (constraints,
// layout) are probed via LatestVersion instead and always return false
// here; callers should check those directly.
func (s *Store) StageComplete(sessionID, stage string) bool {
	paths, ok := stageArtifacts[stage]
	if !ok || len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if !s.Exists(sessionID, p) {
			return false
		}
	}
	return true
}
