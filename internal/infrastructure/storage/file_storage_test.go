package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_CreateCommit(t *testing.T) {
	ctx := context.Background()
	baseDir := filepath.Join(t.TempDir(), "exports")
	fs := NewLocalFileStorage(baseDir, zap.NewNop())

	t.Run("commit publishes file", func(t *testing.T) {
		f, err := fs.Create(ctx, "bjr_sola24.xlsx")
		require.NoError(t, err)

		_, err = io.WriteString(f, "workbook")
		require.NoError(t, err)
		assert.NoFileExists(t, fs.Path("bjr_sola24.xlsx"))

		require.NoError(t, f.Commit())
		assert.Error(t, f.Commit())

		r, err := fs.Open(ctx, "bjr_sola24.xlsx")
		require.NoError(t, err)
		defer r.Close()
		content, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "workbook", string(content))
	})

	t.Run("commit overwrites existing file", func(t *testing.T) {
		for _, content := range []string{"original", "updated"} {
			f, err := fs.Create(ctx, "overwrite.csv")
			require.NoError(t, err)
			_, err = io.WriteString(f, content)
			require.NoError(t, err)
			require.NoError(t, f.Commit())
		}

		content, err := os.ReadFile(fs.Path("overwrite.csv"))
		require.NoError(t, err)
		assert.Equal(t, "updated", string(content))
	})

	t.Run("discard leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		fs := NewLocalFileStorage(dir, zap.NewNop())

		f, err := fs.Create(ctx, "failed.xlsx")
		require.NoError(t, err)
		_, err = io.WriteString(f, "partial")
		require.NoError(t, err)

		require.NoError(t, f.Discard())
		require.NoError(t, f.Discard())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestLocalFileStorage_ValidatePath(t *testing.T) {
	ctx := context.Background()
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "plain name", file: "bjr.xlsx"},
		{name: "nested name", file: "2024/bjr.xlsx"},
		{name: "parent traversal", file: "../escape.xlsx", wantErr: true},
		{name: "base directory itself", file: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := fs.Create(ctx, tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, f.Discard())
		})
	}

	_, err := fs.Open(ctx, "../escape.xlsx")
	assert.Error(t, err)
}
