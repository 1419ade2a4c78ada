package gui

import (
	"time"

	"xrayphasemap/internal/document"
	"xrayphasemap/internal/log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const saveQuestion = "The document has been modified.\nDo you want to save your changes?"

// fyneInteraction backs document.Interaction with Fyne dialogs on win.
type fyneInteraction struct {
	win    fyne.Window
	filter storage.FileFilter
	status *statusBar
}

var _ document.Interaction = (*fyneInteraction)(nil)

func (f *fyneInteraction) ChooseOpenPath(done func(string)) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			log.Errorf("Open dialog failed: %v", err)
			done("")
			return
		}
		if reader == nil {
			done("")
			return
		}
		path := reader.URI().Path()
		if cerr := reader.Close(); cerr != nil {
			log.Warnf("Closing %s: %v", path, cerr)
		}
		done(path)
	}, f.win)
	if f.filter != nil {
		d.SetFilter(f.filter)
	}
	d.Show()
}

func (f *fyneInteraction) ChooseSavePath(suggested string, done func(string)) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			log.Errorf("Save dialog failed: %v", err)
			done("")
			return
		}
		if writer == nil {
			done("")
			return
		}
		path := writer.URI().Path()
		if cerr := writer.Close(); cerr != nil {
			log.Warnf("Closing %s: %v", path, cerr)
		}
		done(path)
	}, f.win)
	d.SetFileName(suggested)
	d.Show()
}

func (f *fyneInteraction) ConfirmSave(done func(document.Choice)) {
	var d dialog.Dialog
	answered := false
	answer := func(c document.Choice) func() {
		return func() {
			if answered {
				return
			}
			answered = true
			d.Hide()
			done(c)
		}
	}

	save := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), answer(document.ChoiceSave))
	save.Importance = widget.HighImportance
	discard := widget.NewButtonWithIcon("Discard", theme.DeleteIcon(), answer(document.ChoiceDiscard))
	cancel := widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), answer(document.ChoiceCancel))

	content := container.NewVBox(
		container.NewHBox(widget.NewIcon(theme.WarningIcon()), widget.NewLabel(saveQuestion)),
		container.NewHBox(layout.NewSpacer(), save, discard, cancel),
	)
	d = dialog.NewCustomWithoutButtons("Application", content, f.win)
	d.Show()
}

func (f *fyneInteraction) Warn(title, message string) {
	content := container.NewHBox(widget.NewIcon(theme.WarningIcon()), widget.NewLabel(message))
	dialog.ShowCustom(title, "OK", content, f.win)
}

func (f *fyneInteraction) ShowStatus(message string, timeout time.Duration) {
	f.status.SetMessage(message, timeout)
}

func (f *fyneInteraction) ShowAbout(title, message string) {
	dialog.ShowInformation(title, message, f.win)
}
