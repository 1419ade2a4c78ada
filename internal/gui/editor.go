package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// TextEditor is a multi-line entry that reports when its selection may have
// changed. Text changes already arrive through OnChanged.
type TextEditor struct {
	widget.Entry

	onSelectionChanged func()
}

func newTextEditor() *TextEditor {
	e := &TextEditor{}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapOff
	e.ExtendBaseWidget(e)
	return e
}

func (e *TextEditor) selectionChanged() {
	if e.onSelectionChanged != nil {
		e.onSelectionChanged()
	}
}

func (e *TextEditor) Tapped(ev *fyne.PointEvent) {
	e.Entry.Tapped(ev)
	e.selectionChanged()
}

func (e *TextEditor) DoubleTapped(ev *fyne.PointEvent) {
	e.Entry.DoubleTapped(ev)
	e.selectionChanged()
}

func (e *TextEditor) DragEnd() {
	e.Entry.DragEnd()
	e.selectionChanged()
}

func (e *TextEditor) MouseUp(ev *desktop.MouseEvent) {
	e.Entry.MouseUp(ev)
	e.selectionChanged()
}

func (e *TextEditor) TypedKey(ev *fyne.KeyEvent) {
	e.Entry.TypedKey(ev)
	e.selectionChanged()
}

func (e *TextEditor) KeyUp(ev *fyne.KeyEvent) {
	e.Entry.KeyUp(ev)
	e.selectionChanged()
}

func (e *TextEditor) TypedShortcut(s fyne.Shortcut) {
	e.Entry.TypedShortcut(s)
	e.selectionChanged()
}
