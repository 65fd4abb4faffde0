package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options tunes which paths the watcher reports and how long a new file
// must stay quiet before it counts as available.
type Options struct {
	// IgnorePatterns are filepath.Match patterns tested against the base
	// name. Nil selects defaultIgnorePatterns and hides dot paths.
	IgnorePatterns []string
	// SettleDelay is how long a created file waits for further writes
	// before it is reported. Zero means 250ms.
	SettleDelay time.Duration
	// IgnoreHidden drops paths with any dot-prefixed component.
	IgnoreHidden bool
}

// defaultIgnorePatterns covers download leftovers, editor lock files and
// desktop metadata that can sit next to book files.
var defaultIgnorePatterns = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"*.tmp",
	"*.part",
	"*.crdownload",
	"~$*",
}

func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 250 * time.Millisecond
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = defaultIgnorePatterns
		o.IgnoreHidden = true
	}
}

// shouldIgnore reports whether events for path are dropped.
func (o *Options) shouldIgnore(path string) bool {
	if o.IgnoreHidden && hasHiddenComponent(path) {
		return true
	}
	return matchesAny(filepath.Base(path), o.IgnorePatterns)
}

func hasHiddenComponent(path string) bool {
	for _, part := range strings.Split(filepath.Clean(path), string(filepath.Separator)) {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// matchesAny skips malformed patterns rather than failing the event.
func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
