package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/models"
)

func TestSaveUpload(t *testing.T) {
	db := newTestDB(t)
	fs, err := NewFileService(t.TempDir())
	require.NoError(t, err)

	document, err := fs.SaveUpload(db, strings.NewReader("lecture notes content"), "Lecture 1.txt", 3)
	require.NoError(t, err)

	assert.Equal(t, "Lecture 1.txt", document.OriginalFilename)
	assert.Equal(t, "txt", document.FileType)
	assert.Equal(t, int64(len("lecture notes content")), document.FileSize)
	assert.Equal(t, uint(3), document.CourseID)
	assert.False(t, document.IsProcessed)

	// stored name is a fresh UUID, not the user's filename
	assert.NotEqual(t, "Lecture 1.txt", document.Filename)
	assert.True(t, strings.HasSuffix(document.Filename, ".txt"))

	content, err := os.ReadFile(document.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "lecture notes content", string(content))

	var saved models.Document
	require.NoError(t, db.First(&saved, document.ID).Error)
	assert.Equal(t, document.Filename, saved.Filename)
}

func TestSaveUploadRejectsUnsupportedTypes(t *testing.T) {
	db := newTestDB(t)
	fs, err := NewFileService(t.TempDir())
	require.NoError(t, err)

	_, err = fs.SaveUpload(db, strings.NewReader("x"), "malware.exe", 1)
	assert.Error(t, err)

	_, err = fs.SaveUpload(db, strings.NewReader("x"), "noextension", 1)
	assert.Error(t, err)

	var count int64
	db.Model(&models.Document{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeleteFile(t *testing.T) {
	fs, err := NewFileService(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(fs.UploadDir, "stored.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	document := &models.Document{FilePath: path}
	require.NoError(t, fs.DeleteFile(document))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// deleting again must not fail
	assert.NoError(t, fs.DeleteFile(document))
}
