package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/api/files")
	require.NoError(t, err)

	info, err := store.Save(context.Background(),
		"org1/app1/passport/abc_scan.pdf", strings.NewReader("%PDF-1.4 test"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "/api/files/org1/app1/passport/abc_scan.pdf", info.URL)
	assert.Equal(t, "abc_scan.pdf", info.FileName)
	assert.Equal(t, int64(len("%PDF-1.4 test")), info.FileSize)

	onDisk, err := store.Path("org1/app1/passport/abc_scan.pdf")
	require.NoError(t, err)
	_, err = os.Stat(onDisk)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "org1/app1/passport/abc_scan.pdf"))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreDeleteMissingIsNoError(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/api/files")
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "never/uploaded.pdf"))
}

func TestLocalStoreNeutralizesPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/api/files")
	require.NoError(t, err)

	// Keys are rooted before cleaning, so ".." segments cannot escape the
	// upload directory.
	for _, key := range []string{"../outside.pdf", "a/../../etc/passwd", "/../../tmp/x"} {
		p, err := store.Path(key)
		require.NoError(t, err, "key %q", key)
		assert.True(t, strings.HasPrefix(p, filepath.Clean(dir)+string(os.PathSeparator)),
			"key %q resolved outside upload dir: %s", key, p)
	}
}
