package jpg

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

func TestFormatExifTime(t *testing.T) {
	// Epoch 1631456389 is 2021-09-12T14:19:49Z.
	assert.Equal(t, "2021:09:12 14:19:49", FormatExifTime(1631456389, time.UTC))

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "2021:09:12 16:19:49", FormatExifTime(1631456389, berlin))
}

func TestApplyNoRelevantData(t *testing.T) {
	// The guard fires before the file is even opened, so the original is
	// never at risk from an empty record.
	path := writeOriginal(t, "not even a jpeg")

	w := NewWriter(nil)
	err := w.Apply(path, &core.SidecarRecord{}, false)
	assert.ErrorIs(t, err, core.ErrNoRelevantData)

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "not even a jpeg", string(data))
}

func writeOriginal(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCommitReplacesOriginal(t *testing.T) {
	path := writeOriginal(t, "original bytes")

	err := Commit(path, func(w io.Writer) error {
		_, err := w.Write([]byte("updated bytes"))
		return err
	}, false)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "updated bytes", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a commit")
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "no backup requested")
}

func TestCommitBackupFidelity(t *testing.T) {
	path := writeOriginal(t, "pristine original")

	err := Commit(path, func(w io.Writer) error {
		_, err := w.Write([]byte("new content"))
		return err
	}, true)
	require.NoError(t, err)

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "pristine original", string(bak))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}

func TestCommitSerializeFailureLeavesOriginal(t *testing.T) {
	path := writeOriginal(t, "untouchable")

	boom := errors.New("codec exploded")
	err := Commit(path, func(w io.Writer) error {
		io.WriteString(w, "partial garbage")
		return boom
	}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "untouchable", string(data), "original must stay byte-identical")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "failed commit must clean up its temp file")
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "no backup may be taken on a failed stage")
}

func TestCommitOverwritesStaleBackup(t *testing.T) {
	path := writeOriginal(t, "version two")
	require.NoError(t, os.WriteFile(path+".bak", []byte("version one"), 0644))

	err := Commit(path, func(w io.Writer) error {
		_, err := w.Write([]byte("version three"))
		return err
	}, true)
	require.NoError(t, err)

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "version two", string(bak))
}
