package settings

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/pkg/testutils"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "McGill University", "pyXRayPhaseMap.yaml")

	s, err := OpenFileStore("McGill University", "pyXRayPhaseMap", path)
	require.NoError(t, err)
	assert.Equal(t, "McGill University/pyXRayPhaseMap", s.Namespace())
	assert.Empty(t, s.Keys())

	g := ReadGeometry(s, DefaultGeometry)
	assert.Equal(t, Point{X: 200, Y: 200}, g.Pos)
	assert.Equal(t, Size{Width: 400, Height: 400}, g.Size)

	require.NoError(t, s.Sync())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "a clean store does not create its file")
}

func TestGeometryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org", "app.yaml")

	s, err := OpenFileStore("org", "app", path)
	require.NoError(t, err)

	written := Geometry{Pos: Point{X: 35, Y: -12}, Size: Size{Width: 1024, Height: 768}}
	require.NoError(t, WriteGeometry(s, written))

	reopened, err := OpenFileStore("org", "app", path)
	require.NoError(t, err)
	assert.Equal(t, written, ReadGeometry(reopened, DefaultGeometry))
	assert.Equal(t, []string{KeyPos, KeySize}, reopened.Keys())
}

func TestReadGeometryMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pos: nowhere\nsize: 0,10\n"), 0644))

	s, err := OpenFileStore("org", "app", path)
	require.NoError(t, err)

	assert.Equal(t, DefaultGeometry, ReadGeometry(s, DefaultGeometry))
}

func TestOpenFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0644))

	_, err := OpenFileStore("org", "app", path)
	require.Error(t, err)
	var settingsErr *apperrors.SettingsError
	require.True(t, apperrors.As(err, &settingsErr))
	assert.Equal(t, path, settingsErr.Key())
	assert.Equal(t, apperrors.SettingsReadFailed, apperrors.KindOf(err))
}

func TestFileStoreSyncFailure(t *testing.T) {
	s, err := OpenFileStore("org", "app", testutils.UncreatablePath(t, "app.yaml"))
	require.NoError(t, err)

	err = WriteGeometry(s, DefaultGeometry)
	require.Error(t, err)
	assert.Equal(t, apperrors.SettingsWriteFailed, apperrors.KindOf(err))
}

func TestPreferencesStore(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := NewPreferencesStore("org", "app", a.Preferences())
	assert.Equal(t, DefaultGeometry, ReadGeometry(s, DefaultGeometry))

	written := Geometry{Pos: Point{X: 1, Y: 2}, Size: Size{Width: 300, Height: 500}}
	require.NoError(t, WriteGeometry(s, written))
	assert.Equal(t, written, ReadGeometry(s, DefaultGeometry))
	assert.Equal(t, "1,2", a.Preferences().String("org/app/pos"))
}
