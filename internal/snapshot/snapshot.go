package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/schemactl/schemactl/internal/schema"
)

// Dir is the snapshot directory name inside a workspace.
const Dir = ".schemactl"

// ErrNoSnapshot is returned by Latest when no snapshot has been persisted
// for the workspace.
var ErrNoSnapshot = errors.New("no snapshot has been persisted; run plan first")

// State is one versioned serialization of the workspace's desired tables,
// keyed by "<database>.<schema>.<table>". Snapshots are immutable once
// written; a changed desired state produces a new version.
type State struct {
	Version int
	Tables  map[string]schema.TableDefinition
}

// Store manages versioned state files under a workspace's snapshot
// directory. Versions are encoded in the filename (state_v<N>.yaml).
type Store struct {
	dir string
}

// NewStore returns a Store rooted at the given workspace path.
func NewStore(workspacePath string) *Store {
	return &Store{dir: filepath.Join(workspacePath, Dir)}
}

// Path returns the file path for a snapshot version.
func (s *Store) Path(version int) string {
	return filepath.Join(s.dir, fmt.Sprintf("state_v%d.yaml", version))
}

// LatestVersion returns the highest persisted snapshot version, 0 if none.
func (s *Store) LatestVersion() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading snapshot directory: %w", err)
	}

	latest := 0
	for _, e := range entries {
		var v int
		if _, err := fmt.Sscanf(e.Name(), "state_v%d.yaml", &v); err == nil && v > latest {
			latest = v
		}
	}
	return latest, nil
}

// Load reads the snapshot with the given version.
func (s *Store) Load(version int) (*State, error) {
	data, err := os.ReadFile(s.Path(version))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	tables := make(map[string]schema.TableDefinition)
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &State{Version: version, Tables: tables}, nil
}

// Latest loads the highest-numbered snapshot.
func (s *Store) Latest() (*State, error) {
	v, err := s.LatestVersion()
	if err != nil {
		return nil, err
	}
	if v == 0 {
		return nil, ErrNoSnapshot
	}
	return s.Load(v)
}

// PersistIfChanged writes desired as a new snapshot version only when it
// differs structurally from the latest persisted one. It returns the
// snapshot path and whether a new version was written; an unchanged desired
// state returns the existing path, making repeated planning idempotent.
func (s *Store) PersistIfChanged(desired map[string]schema.TableDefinition) (string, bool, error) {
	latest, err := s.LatestVersion()
	if err != nil {
		return "", false, err
	}

	if latest > 0 {
		prev, err := s.Load(latest)
		if err != nil {
			return "", false, err
		}
		if reflect.DeepEqual(prev.Tables, desired) {
			return s.Path(latest), false, nil
		}
	}

	next := latest + 1
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := yaml.Marshal(desired)
	if err != nil {
		return "", false, fmt.Errorf("marshaling snapshot: %w", err)
	}
	path := s.Path(next)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, fmt.Errorf("writing snapshot: %w", err)
	}
	return path, true, nil
}
