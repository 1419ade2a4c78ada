// Package settings persists small key/value settings, namespaced by
// organization and application, and the window geometry stored in them.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/internal/log"

	"fyne.io/fyne/v2"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Keys used for window geometry.
const (
	KeyPos  = "pos"
	KeySize = "size"
)

// Store is an opaque key/value settings store.
type Store interface {
	Namespace() string
	Value(key string) (string, bool)
	SetValue(key, value string)
	Sync() error
}

// Namespace joins organization and application into a store namespace.
func Namespace(organization, application string) string {
	return organization + "/" + application
}

// FileStore keeps settings in a YAML file.
type FileStore struct {
	namespace string
	path      string

	mu     sync.Mutex
	values map[string]string
	dirty  bool
}

// DefaultFilePath is <config home>/<organization>/<application>.yaml.
func DefaultFilePath(organization, application string) string {
	return filepath.Join(xdg.ConfigHome, organization, application+".yaml")
}

// OpenFileStore loads the store at path. A missing file is an empty store.
func OpenFileStore(organization, application, path string) (*FileStore, error) {
	s := &FileStore{
		namespace: Namespace(organization, application),
		path:      path,
		values:    map[string]string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, apperrors.NewSettingsError("cannot read settings", path, apperrors.SettingsReadFailed, err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, apperrors.NewSettingsError("cannot parse settings", path, apperrors.SettingsReadFailed, err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// Namespace returns organization/application.
func (s *FileStore) Namespace() string { return s.namespace }

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Value returns the value stored under key.
func (s *FileStore) Value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// SetValue stores value under key. Call Sync to persist.
func (s *FileStore) SetValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[key]; ok && old == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Keys lists stored keys in order.
func (s *FileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sync writes pending changes. The file is replaced by rename.
func (s *FileStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewSettingsError("cannot create settings directory", dir, apperrors.SettingsWriteFailed, err)
	}
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return apperrors.NewSettingsError("cannot encode settings", s.path, apperrors.SettingsWriteFailed, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return apperrors.NewSettingsError("cannot write settings", s.path, apperrors.SettingsWriteFailed, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperrors.NewSettingsError("cannot write settings", s.path, apperrors.SettingsWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return apperrors.NewSettingsError("cannot write settings", s.path, apperrors.SettingsWriteFailed, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return apperrors.NewSettingsError("cannot write settings", s.path, apperrors.SettingsWriteFailed, err)
	}
	s.dirty = false
	return nil
}

// PreferencesStore keeps settings in the toolkit's per-application
// preferences, with keys prefixed by the namespace.
type PreferencesStore struct {
	namespace string
	prefs     fyne.Preferences
}

// NewPreferencesStore wraps prefs.
func NewPreferencesStore(organization, application string, prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{
		namespace: Namespace(organization, application),
		prefs:     prefs,
	}
}

// Namespace returns organization/application.
func (s *PreferencesStore) Namespace() string { return s.namespace }

// Value returns the value stored under key.
func (s *PreferencesStore) Value(key string) (string, bool) {
	v := s.prefs.String(s.key(key))
	return v, v != ""
}

// SetValue stores value under key.
func (s *PreferencesStore) SetValue(key, value string) {
	s.prefs.SetString(s.key(key), value)
}

// Sync is a no-op; the toolkit saves preferences itself.
func (s *PreferencesStore) Sync() error { return nil }

func (s *PreferencesStore) key(k string) string {
	return s.namespace + "/" + k
}

// Point is a window position.
type Point struct {
	X, Y int
}

// Size is a window extent.
type Size struct {
	Width, Height int
}

// Geometry is the persisted window position and size.
type Geometry struct {
	Pos  Point
	Size Size
}

// DefaultGeometry is used when nothing is stored.
var DefaultGeometry = Geometry{Pos: Point{X: 200, Y: 200}, Size: Size{Width: 400, Height: 400}}

// ReadGeometry returns the stored geometry, taking each missing or malformed
// key from def.
func ReadGeometry(s Store, def Geometry) Geometry {
	g := def
	if v, ok := s.Value(KeyPos); ok {
		if x, y, err := parsePair(v); err == nil {
			g.Pos = Point{X: x, Y: y}
		} else {
			log.Warnf("ignoring stored %s %q: %v", KeyPos, v, err)
		}
	}
	if v, ok := s.Value(KeySize); ok {
		if w, h, err := parsePair(v); err == nil && w > 0 && h > 0 {
			g.Size = Size{Width: w, Height: h}
		} else {
			log.Warnf("ignoring stored %s %q", KeySize, v)
		}
	}
	return g
}

// WriteGeometry stores g and syncs the store.
func WriteGeometry(s Store, g Geometry) error {
	s.SetValue(KeyPos, formatPair(g.Pos.X, g.Pos.Y))
	s.SetValue(KeySize, formatPair(g.Size.Width, g.Size.Height))
	return s.Sync()
}

func formatPair(a, b int) string {
	return strconv.Itoa(a) + "," + strconv.Itoa(b)
}

func parsePair(v string) (int, int, error) {
	first, second, ok := strings.Cut(v, ",")
	if !ok {
		return 0, 0, fmt.Errorf("want two comma separated integers")
	}
	a, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
