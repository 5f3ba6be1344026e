package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// AssetStore persists recorded audio files under one directory per song.
type AssetStore struct {
	baseDir string
	logger  *log.Logger
}

// NewAssetStore creates an AssetStore rooted at baseDir.
func NewAssetStore(baseDir string, logger *log.Logger) *AssetStore {
	return &AssetStore{baseDir: baseDir, logger: logger}
}

// BaseDir returns the root recordings directory.
func (a *AssetStore) BaseDir() string { return a.baseDir }

// Save copies the audio file at sourcePath into the song's directory and
// returns the generated file name and its durable location.
func (a *AssetStore) Save(songID, sourcePath string) (fileName, localURL string, err error) {
	ext := filepath.Ext(sourcePath)
	if ext == "" {
		ext = ".m4a"
	}
	fileName = fmt.Sprintf("%s_%d%s", songID, time.Now().UnixMilli(), ext)

	dir := filepath.Join(a.baseDir, songID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create recordings directory: %w", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to open recording: %w", err)
	}
	defer src.Close()

	localURL = filepath.Join(dir, fileName)
	dst, err := os.Create(localURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to create audio file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(localURL)
		return "", "", fmt.Errorf("failed to copy audio file: %w", err)
	}

	return fileName, localURL, nil
}

// Delete removes a stored audio file. Cleanup is best-effort: failures are
// logged, never propagated.
func (a *AssetStore) Delete(localURL string) {
	if localURL == "" {
		return
	}
	if err := os.Remove(localURL); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("failed to delete audio file", "path", localURL, "error", err)
	}
}

// DeleteSongDir removes every recording belonging to a song.
func (a *AssetStore) DeleteSongDir(songID string) {
	if songID == "" {
		return
	}
	dir := filepath.Join(a.baseDir, songID)
	if err := os.RemoveAll(dir); err != nil {
		a.logger.Warn("failed to delete recordings directory", "path", dir, "error", err)
	}
}
