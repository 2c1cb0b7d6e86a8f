package display

import "naojutils/internal/fitsimg"

// AddPath appends path to the folder history unless it is already there.
func AddPath(history []string, path string) []string {
	for _, p := range history {
		if p == path {
			return history
		}
	}
	return append(history, path)
}

// RemovePath drops every occurrence of path.
func RemovePath(history []string, path string) []string {
	var out []string
	for _, p := range history {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

// TidyHistory removes entries that are no longer directories.
func TidyHistory(history []string) []string {
	var out []string
	for _, p := range history {
		if fitsimg.IsDirectory(p) {
			out = append(out, p)
		}
	}
	return out
}
