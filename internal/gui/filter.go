package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"github.com/gobwas/glob"
)

// globFilter accepts files whose base name matches any of its patterns.
type globFilter struct {
	patterns []string
	globs    []glob.Glob
}

var _ storage.FileFilter = (*globFilter)(nil)

// NewGlobFilter compiles patterns such as "*.txt" or "*.{dat,msa}" into a
// file dialog filter. It returns nil when there are no patterns, which the
// dialog treats as "show everything".
func NewGlobFilter(patterns []string) (storage.FileFilter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	f := &globFilter{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid file filter %q: %w", p, err)
		}
		f.patterns = append(f.patterns, p)
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Matches implements storage.FileFilter.
func (f *globFilter) Matches(uri fyne.URI) bool {
	name := uri.Name()
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (f *globFilter) String() string {
	return strings.Join(f.patterns, " ")
}
