package fitsimg

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListFITS returns the sorted paths of the .fits files directly inside folder.
func ListFITS(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	var fitsPaths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".fits") {
			fitsPaths = append(fitsPaths, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(fitsPaths)
	return fitsPaths, nil
}

func IsDirectory(path string) bool {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fileInfo.IsDir()
}

func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
