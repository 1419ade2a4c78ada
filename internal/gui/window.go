// Package gui is the Fyne main window: menus, toolbars, status bar, the text
// editor and the plot panel. Document behaviour lives in internal/document;
// this package only wires it to widgets and dialogs.
package gui

import (
	"fmt"
	"runtime/debug"

	"xrayphasemap/internal/config"
	"xrayphasemap/internal/document"
	"xrayphasemap/internal/log"
	"xrayphasemap/internal/settings"
	"xrayphasemap/internal/watch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Action is a user command reachable from menus, toolbars or shortcuts.
type Action string

const (
	ActionNew          Action = "new"
	ActionOpen         Action = "open"
	ActionSave         Action = "save"
	ActionSaveAs       Action = "saveAs"
	ActionExit         Action = "exit"
	ActionCut          Action = "cut"
	ActionCopy         Action = "copy"
	ActionPaste        Action = "paste"
	ActionAbout        Action = "about"
	ActionAboutToolkit Action = "aboutToolkit"
)

// Status messages for changes to the open file made outside the application.
const (
	ExternalChangeMessage = "File changed on disk"
	ExternalRemoveMessage = "File removed from disk"
)

// Chrome is a top-level window surface.
type Chrome interface {
	// Render builds the window content and returns its root object.
	Render() fyne.CanvasObject
	// HandleCloseRequest runs when the user asks to close the window.
	HandleCloseRequest()
	// HandleAction runs a user command.
	HandleAction(Action)
}

// Options configures a MainWindow.
type Options struct {
	Config *config.Config
	Store  settings.Store
	// Watcher, if set, reports changes to the open file.
	Watcher *watch.Watcher
	// Interaction replaces the Fyne dialogs, mainly for tests.
	Interaction document.Interaction
}

// MainWindow is the application's single window.
type MainWindow struct {
	win     fyne.Window
	cfg     *config.Config
	store   settings.Store
	watcher *watch.Watcher
	logger  *log.Logger

	editor   *TextEditor
	buffer   *entryBuffer
	status   *statusBar
	doc      *document.Controller
	geometry settings.Geometry
	root     fyne.CanvasObject

	// Cut and Copy, enabled only while text is selected
	clipboardItems   []*fyne.MenuItem
	clipboardActions []*widget.ToolbarAction
	editMenu         *fyne.Menu
}

var _ Chrome = (*MainWindow)(nil)

// NewMainWindow creates the window and its document controller. Call Render
// before showing it.
func NewMainWindow(a fyne.App, opts Options) *MainWindow {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.New()
	}

	mw := &MainWindow{
		win:     a.NewWindow(cfg.Application.Name),
		cfg:     cfg,
		store:   opts.Store,
		watcher: opts.Watcher,
		logger:  log.Default().Named("MainWindow"),
		editor:  newTextEditor(),
		status:  newStatusBar(),
	}

	ui := opts.Interaction
	if ui == nil {
		filter, err := NewGlobFilter(cfg.Files.Filters)
		if err != nil {
			mw.logger.Warnf("Ignoring file filters: %v", err)
		}
		ui = &fyneInteraction{win: mw.win, filter: filter, status: mw.status}
	}

	mw.buffer = &entryBuffer{entry: mw.editor}
	mw.doc = document.NewController(ui, mw.buffer, mw.logger)
	mw.editor.OnChanged = func(string) {
		if !mw.buffer.quiet {
			mw.doc.DocumentWasModified()
		}
		mw.updateClipboardActions()
	}
	mw.editor.onSelectionChanged = mw.updateClipboardActions
	mw.doc.OnStateChanged(func(s document.State) {
		mw.win.SetTitle(s.Title(cfg.Application.Name))
	})
	return mw
}

// Window returns the underlying Fyne window.
func (mw *MainWindow) Window() fyne.Window { return mw.win }

// Document returns the document controller.
func (mw *MainWindow) Document() *document.Controller { return mw.doc }

// Editor returns the text widget.
func (mw *MainWindow) Editor() *TextEditor { return mw.editor }

// StatusMessage returns the text shown in the status bar.
func (mw *MainWindow) StatusMessage() string { return mw.status.Message() }

// Render implements Chrome.
func (mw *MainWindow) Render() fyne.CanvasObject {
	if mw.root != nil {
		return mw.root
	}

	plots := widget.NewCard(PlotLayoutTitle, "", newPlotPanel(figureFromConfig(mw.cfg)))
	split := container.NewHSplit(container.NewScroll(mw.editor), plots)
	split.SetOffset(0.5)
	mainPanel := widget.NewCard(MainLayoutTitle, "", split)

	mw.root = container.NewBorder(mw.createToolbars(), mw.status.label, nil, nil, mainPanel)
	mw.win.SetContent(mw.root)
	mw.win.SetMainMenu(mw.createMenus())
	mw.addShortcuts()
	mw.updateClipboardActions()
	mw.win.SetCloseIntercept(mw.HandleCloseRequest)

	mw.restoreGeometry()
	mw.win.SetTitle(mw.doc.State().Title(mw.cfg.Application.Name))
	mw.status.SetMessage("Ready", 0)

	if mw.watcher != nil {
		mw.doc.SetWatcher(mw.watcher)
		go mw.followChanges(mw.watcher.Changes())
	}
	return mw.root
}

// Show renders if needed and shows the window.
func (mw *MainWindow) Show() {
	mw.Render()
	mw.win.Show()
}

// HandleCloseRequest implements Chrome. The window closes only when the
// maybe-save gate allows it; the geometry is stored first.
func (mw *MainWindow) HandleCloseRequest() {
	mw.doc.RequestClose(func(allowed bool) {
		if !allowed {
			mw.logger.Debug("Close cancelled")
			return
		}
		mw.saveGeometry()
		mw.win.Close()
	})
}

// HandleAction implements Chrome.
func (mw *MainWindow) HandleAction(a Action) {
	switch a {
	case ActionNew:
		mw.doc.New()
	case ActionOpen:
		mw.doc.Open()
	case ActionSave:
		mw.doc.Save(nil)
	case ActionSaveAs:
		mw.doc.SaveAs(nil)
	case ActionExit:
		mw.HandleCloseRequest()
	case ActionCut:
		mw.editor.TypedShortcut(&fyne.ShortcutCut{Clipboard: mw.win.Clipboard()})
	case ActionCopy:
		mw.editor.TypedShortcut(&fyne.ShortcutCopy{Clipboard: mw.win.Clipboard()})
	case ActionPaste:
		mw.editor.TypedShortcut(&fyne.ShortcutPaste{Clipboard: mw.win.Clipboard()})
	case ActionAbout:
		mw.doc.About()
	case ActionAboutToolkit:
		mw.logger.Info("MainWindow.aboutToolkit")
		dialog.ShowInformation("About Fyne", "Built with the Fyne toolkit "+toolkitVersion()+".", mw.win)
	default:
		mw.logger.Warnf("Unknown action %q", string(a))
	}
}

func (mw *MainWindow) do(a Action) func() {
	return func() { mw.HandleAction(a) }
}

func (mw *MainWindow) createMenus() *fyne.MainMenu {
	exit := fyne.NewMenuItem("Exit", mw.do(ActionExit))
	exit.IsQuit = true

	file := fyne.NewMenu("File",
		withIcon(fyne.NewMenuItem("New", mw.do(ActionNew)), theme.DocumentCreateIcon()),
		withIcon(fyne.NewMenuItem("Open...", mw.do(ActionOpen)), theme.FolderOpenIcon()),
		withIcon(fyne.NewMenuItem("Save", mw.do(ActionSave)), theme.DocumentSaveIcon()),
		fyne.NewMenuItem("Save As...", mw.do(ActionSaveAs)),
		fyne.NewMenuItemSeparator(),
		exit,
	)
	cut := withIcon(fyne.NewMenuItem("Cut", mw.do(ActionCut)), theme.ContentCutIcon())
	cp := withIcon(fyne.NewMenuItem("Copy", mw.do(ActionCopy)), theme.ContentCopyIcon())
	mw.clipboardItems = append(mw.clipboardItems, cut, cp)
	edit := fyne.NewMenu("Edit",
		cut,
		cp,
		withIcon(fyne.NewMenuItem("Paste", mw.do(ActionPaste)), theme.ContentPasteIcon()),
	)
	mw.editMenu = edit
	help := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.do(ActionAbout)),
		fyne.NewMenuItem("About Fyne", mw.do(ActionAboutToolkit)),
	)
	return fyne.NewMainMenu(file, edit, help)
}

func withIcon(item *fyne.MenuItem, icon fyne.Resource) *fyne.MenuItem {
	item.Icon = icon
	return item
}

func (mw *MainWindow) createToolbars() fyne.CanvasObject {
	fileBar := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), mw.do(ActionNew)),
		widget.NewToolbarAction(theme.FolderOpenIcon(), mw.do(ActionOpen)),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), mw.do(ActionSave)),
	)
	cut := widget.NewToolbarAction(theme.ContentCutIcon(), mw.do(ActionCut))
	cp := widget.NewToolbarAction(theme.ContentCopyIcon(), mw.do(ActionCopy))
	mw.clipboardActions = append(mw.clipboardActions, cut, cp)
	editBar := widget.NewToolbar(
		cut,
		cp,
		widget.NewToolbarAction(theme.ContentPasteIcon(), mw.do(ActionPaste)),
	)
	return container.NewHBox(fileBar, widget.NewSeparator(), editBar)
}

// updateClipboardActions enables Cut and Copy only while text is selected.
func (mw *MainWindow) updateClipboardActions() {
	enabled := mw.editor.SelectedText() != ""
	for _, item := range mw.clipboardItems {
		item.Disabled = !enabled
	}
	for _, action := range mw.clipboardActions {
		if enabled {
			action.Enable()
		} else {
			action.Disable()
		}
	}
	if mw.editMenu != nil {
		mw.editMenu.Refresh()
	}
}

func (mw *MainWindow) addShortcuts() {
	shortcuts := map[fyne.KeyName]Action{
		fyne.KeyN: ActionNew,
		fyne.KeyO: ActionOpen,
		fyne.KeyS: ActionSave,
	}
	for key, action := range shortcuts {
		action := action
		sc := &desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault}
		mw.win.Canvas().AddShortcut(sc, func(fyne.Shortcut) { mw.HandleAction(action) })
	}
}

func (mw *MainWindow) defaultGeometry() settings.Geometry {
	w := mw.cfg.Window
	return settings.Geometry{
		Pos:  settings.Point{X: w.X, Y: w.Y},
		Size: settings.Size{Width: w.Width, Height: w.Height},
	}
}

// restoreGeometry applies the stored size. Fyne cannot place windows, so the
// position is only carried through to the next save.
func (mw *MainWindow) restoreGeometry() {
	g := mw.defaultGeometry()
	if mw.store != nil {
		g = settings.ReadGeometry(mw.store, g)
	}
	mw.geometry = g
	mw.win.Resize(fyne.NewSize(float32(g.Size.Width), float32(g.Size.Height)))
	mw.logger.Debugf("Restored geometry pos=%d,%d size=%dx%d", g.Pos.X, g.Pos.Y, g.Size.Width, g.Size.Height)
}

func (mw *MainWindow) saveGeometry() {
	if mw.store == nil {
		return
	}
	size := mw.win.Canvas().Size()
	g := mw.geometry
	if size.Width > 0 && size.Height > 0 {
		g.Size = settings.Size{Width: int(size.Width), Height: int(size.Height)}
	}
	if err := settings.WriteGeometry(mw.store, g); err != nil {
		mw.logger.With(log.F("error", err.Error())).Error("Failed to store window geometry")
		return
	}
	mw.geometry = g
}

func (mw *MainWindow) followChanges(changes <-chan watch.Change) {
	for change := range changes {
		state := mw.doc.CheckDisk()
		var msg string
		switch state {
		case document.DiskModified:
			msg = ExternalChangeMessage
		case document.DiskRemoved:
			msg = ExternalRemoveMessage
		default:
			continue
		}
		mw.logger.Infof("%s %s on disk (%s)", change.Path, state, change.Op)
		mw.status.SetMessage(msg, 0)
	}
}

// entryBuffer adapts the editor to document.Buffer. Programmatic SetText
// does not count as an edit.
type entryBuffer struct {
	entry *TextEditor
	quiet bool
}

func (b *entryBuffer) Text() string { return b.entry.Text }

func (b *entryBuffer) SetText(text string) {
	b.quiet = true
	defer func() { b.quiet = false }()
	b.entry.SetText(text)
}

// toolkitVersion reports the Fyne module version linked into the binary.
func toolkitVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(unknown version)"
	}
	for _, dep := range info.Deps {
		if dep.Path == "fyne.io/fyne/v2" {
			return dep.Version
		}
	}
	return fmt.Sprintf("(built with %s)", info.GoVersion)
}
