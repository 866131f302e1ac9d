// Package fileutil provides file system utility functions.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches for a file with the given name in the specified directory.
// The search is case-insensitive, so "Song.CSV" finds "song.csv" on case-sensitive file systems.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, os.ErrNotExist)
}

// Resolve は path をそのまま試し、見つからなければ大文字小文字を無視して検索する
func Resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
}

// Ext は小文字化した拡張子を返す（".MID" → ".mid"）
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSMF は拡張子から標準MIDIファイルかどうかを判定する
func IsSMF(path string) bool {
	switch Ext(path) {
	case ".mid", ".midi", ".smf":
		return true
	}
	return false
}
