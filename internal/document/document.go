// Package document implements the lifecycle of the plain-text document shown
// in the main window: new, open, save, save as, and the maybe-save gate that
// runs before anything would discard unsaved edits.
//
// The controller never talks to a toolkit directly. Prompts and messages go
// through Interaction, whose methods take a continuation so they can be backed
// by asynchronous dialogs or answered synchronously in tests.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/internal/log"
)

// UntitledName is shown for a document that has no path yet.
const UntitledName = "untitled.txt"

// StatusTimeout is how long transient status messages stay visible.
const StatusTimeout = 2 * time.Second

const dialogTitle = "Application"

// AboutTitle and AboutText are shown by About.
const (
	AboutTitle = "About Application"
	AboutText  = "pyXRayPhaseMap is the desktop shell of the x-ray phase map viewer.\n" +
		"It has a menu bar, toolbars, a status bar, a text editor and a plot panel."
)

// Choice answers the maybe-save prompt.
type Choice int

const (
	ChoiceSave Choice = iota
	ChoiceDiscard
	ChoiceCancel
)

func (c Choice) String() string {
	switch c {
	case ChoiceSave:
		return "save"
	case ChoiceDiscard:
		return "discard"
	case ChoiceCancel:
		return "cancel"
	}
	return fmt.Sprintf("Choice(%d)", int(c))
}

// Interaction is the user-facing side of the controller. Every prompt
// eventually calls its continuation exactly once.
type Interaction interface {
	// ChooseOpenPath asks for a file to open. done receives "" on cancel.
	ChooseOpenPath(done func(path string))
	// ChooseSavePath asks for a destination. done receives "" on cancel.
	ChooseSavePath(suggested string, done func(path string))
	// ConfirmSave asks whether to save a modified document.
	ConfirmSave(done func(Choice))
	// Warn shows a blocking warning.
	Warn(title, message string)
	// ShowStatus shows a transient status message.
	ShowStatus(message string, timeout time.Duration)
	// ShowAbout shows an informational dialog.
	ShowAbout(title, message string)
}

// Buffer is the in-memory text of the document.
type Buffer interface {
	Text() string
	SetText(text string)
}

// PathWatcher follows the file currently open.
type PathWatcher interface {
	Watch(path string) error
}

// Phase is the document lifecycle state.
type Phase int

const (
	UntitledClean Phase = iota
	UntitledModified
	SavedClean
	SavedModified
)

func (p Phase) String() string {
	switch p {
	case UntitledClean:
		return "untitled-clean"
	case UntitledModified:
		return "untitled-modified"
	case SavedClean:
		return "saved-clean"
	case SavedModified:
		return "saved-modified"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// DiskState compares the open file with what was last loaded or saved.
type DiskState int

const (
	DiskUnchanged DiskState = iota
	DiskModified
	DiskRemoved
)

func (d DiskState) String() string {
	switch d {
	case DiskUnchanged:
		return "unchanged"
	case DiskModified:
		return "modified"
	case DiskRemoved:
		return "removed"
	}
	return fmt.Sprintf("DiskState(%d)", int(d))
}

// State is a snapshot of the document.
type State struct {
	Path     string
	Modified bool
}

// Phase derives the lifecycle state.
func (s State) Phase() Phase {
	switch {
	case s.Path == "" && !s.Modified:
		return UntitledClean
	case s.Path == "":
		return UntitledModified
	case !s.Modified:
		return SavedClean
	}
	return SavedModified
}

// DisplayName is the base name of the path, or UntitledName.
func (s State) DisplayName() string {
	if s.Path == "" {
		return UntitledName
	}
	return filepath.Base(s.Path)
}

// Title formats a window title such as "notes.txt* - pyXRayPhaseMap".
func (s State) Title(application string) string {
	mark := ""
	if s.Modified {
		mark = "*"
	}
	return fmt.Sprintf("%s%s - %s", s.DisplayName(), mark, application)
}

// Controller drives the document lifecycle.
type Controller struct {
	ui     Interaction
	buf    Buffer
	logger *log.Logger

	mu       sync.Mutex
	path     string
	modified bool
	synced   string
	saving   int

	watcher   PathWatcher
	listeners []func(State)
}

// NewController returns a controller for an untitled, clean document.
// A nil logger uses the process-wide logger.
func NewController(ui Interaction, buf Buffer, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default().Named("MainWindow")
	}
	return &Controller{ui: ui, buf: buf, logger: logger}
}

// SetWatcher installs w and points it at the current file.
func (c *Controller) SetWatcher(w PathWatcher) {
	c.watcher = w
	c.watch(c.State().Path)
}

// OnStateChanged registers fn to run after every state change.
func (c *Controller) OnStateChanged(fn func(State)) {
	c.listeners = append(c.listeners, fn)
}

// State returns the current document state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Path: c.path, Modified: c.modified}
}

// DocumentWasModified records an edit of the buffer.
func (c *Controller) DocumentWasModified() {
	c.trace("documentWasModified")
	c.mu.Lock()
	changed := !c.modified
	c.modified = true
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// New clears the buffer and forgets the path once the maybe-save gate passes.
func (c *Controller) New() {
	c.trace("newFile")
	c.MaybeSave(func(proceed bool) {
		if !proceed {
			return
		}
		c.buf.SetText("")
		c.setCurrentFile("", "")
	})
}

// Open asks for a file and loads it once the maybe-save gate passes.
func (c *Controller) Open() {
	c.trace("open")
	c.MaybeSave(func(proceed bool) {
		if !proceed {
			return
		}
		c.ui.ChooseOpenPath(func(path string) {
			if path == "" {
				return
			}
			_ = c.LoadFile(path)
		})
	})
}

// Save writes to the current path, or falls back to SaveAs. done, if not
// nil, receives whether the document was written.
func (c *Controller) Save(done func(ok bool)) {
	c.trace("save")
	if path := c.State().Path; path != "" {
		finish(done, c.SaveFile(path) == nil)
		return
	}
	c.SaveAs(done)
}

// SaveAs asks for a destination and writes there. Cancelling the prompt
// reports failure.
func (c *Controller) SaveAs(done func(ok bool)) {
	c.trace("saveAs")
	c.ui.ChooseSavePath(c.State().DisplayName(), func(path string) {
		if path == "" {
			finish(done, false)
			return
		}
		finish(done, c.SaveFile(path) == nil)
	})
}

// RequestClose runs the maybe-save gate for a window close. done receives
// whether the close may go ahead.
func (c *Controller) RequestClose(done func(allowed bool)) {
	c.trace("closeEvent")
	c.MaybeSave(func(proceed bool) {
		finish(done, proceed)
	})
}

// About shows the about dialog.
func (c *Controller) About() {
	c.trace("about")
	c.ui.ShowAbout(AboutTitle, AboutText)
}

// MaybeSave calls proceed(true) right away for a clean document. For a
// modified one it asks first: save proceeds only if the save succeeds,
// discard proceeds, cancel does not.
func (c *Controller) MaybeSave(proceed func(bool)) {
	c.trace("maybeSave")
	if !c.State().Modified {
		proceed(true)
		return
	}
	c.ui.ConfirmSave(func(choice Choice) {
		c.logger.Debugf("maybe-save answered %s", choice)
		switch choice {
		case ChoiceSave:
			c.Save(proceed)
		case ChoiceDiscard:
			proceed(true)
		default:
			proceed(false)
		}
	})
}

// LoadFile replaces the buffer with the contents of path. On failure the
// user is warned and the document is left as it was.
func (c *Controller) LoadFile(path string) error {
	c.trace("loadFile")
	data, err := os.ReadFile(path)
	if err != nil {
		fileErr := apperrors.FromIO("cannot read file", path, apperrors.FileReadFailed, err)
		c.logError(fileErr, "load failed")
		c.ui.Warn(dialogTitle, fmt.Sprintf("Cannot read file %s:\n%s.", path, fileErr.Cause()))
		return fileErr
	}

	text := string(data)
	c.buf.SetText(text)
	c.setCurrentFile(path, text)
	c.ui.ShowStatus("File loaded", StatusTimeout)
	return nil
}

// SaveFile writes the buffer to path. On failure the user is warned and the
// document keeps its path and modified flag.
func (c *Controller) SaveFile(path string) error {
	c.trace("saveFile")
	c.mu.Lock()
	c.saving++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.saving--
		c.mu.Unlock()
	}()

	text := c.buf.Text()
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		fileErr := apperrors.FromIO("cannot write file", path, apperrors.FileWriteFailed, err)
		c.logError(fileErr, "save failed")
		c.ui.Warn(dialogTitle, fmt.Sprintf("Cannot write file %s:\n%s.", path, fileErr.Cause()))
		return fileErr
	}

	c.setCurrentFile(path, text)
	c.ui.ShowStatus("File saved", StatusTimeout)
	return nil
}

// CheckDisk compares the open file with what was last loaded or saved. An
// untitled document, or one whose save is still in progress, is unchanged.
// A file that exists but cannot be read counts as modified.
func (c *Controller) CheckDisk() DiskState {
	c.mu.Lock()
	path, synced, saving := c.path, c.synced, c.saving
	c.mu.Unlock()
	if path == "" || saving > 0 {
		return DiskUnchanged
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if apperrors.IsFileNotFound(apperrors.FromIO("cannot read file", path, apperrors.FileReadFailed, err)) {
			return DiskRemoved
		}
		return DiskModified
	}
	if string(data) != synced {
		return DiskModified
	}
	return DiskUnchanged
}

func (c *Controller) setCurrentFile(path, text string) {
	c.trace("setCurrentFile")
	c.mu.Lock()
	c.path = path
	c.modified = false
	c.synced = text
	c.mu.Unlock()
	c.watch(path)
	c.notify()
}

func (c *Controller) watch(path string) {
	if c.watcher == nil {
		return
	}
	if err := c.watcher.Watch(path); err != nil {
		c.logger.Warnf("cannot watch %s: %v", path, err)
	}
}

func (c *Controller) notify() {
	s := c.State()
	for _, fn := range c.listeners {
		fn(s)
	}
}

func (c *Controller) logError(err *apperrors.FileError, msg string) {
	c.logger.With(
		log.F("error", err.Error()),
		log.F("error_kind", int(err.Kind())),
		log.F("path", err.Path()),
	).Warn(msg)
}

func (c *Controller) trace(action string) {
	c.logger.Info("MainWindow." + action)
}

func finish(done func(bool), ok bool) {
	if done != nil {
		done(ok)
	}
}
