package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"naojutils/internal/display"
	"naojutils/internal/fitsimg"
)

func (v *viewer) saveFolderHistory() {
	v.app.Preferences().SetStringList("folderHistory", v.folderHistory)
}

// openFolder steps through the .fits files of path, starting at the first.
func (v *viewer) openFolder(path string) {
	paths, err := fitsimg.ListFITS(path)
	if err != nil {
		v.showError(err)
		return
	}
	if len(paths) == 0 {
		dialog.ShowInformation("Oops", "No .fits files were found there!", v.win)
		return
	}
	v.app.Preferences().SetString("lastFitsFolder", path)
	v.folderHistory = display.TidyHistory(display.AddPath(v.folderHistory, path))
	v.saveFolderHistory()
	v.log.Debug("folder opened", zap.String("path", path), zap.Int("files", len(paths)))

	v.files = display.NewCursor(paths)
	v.autoContrastNeeded = true
	v.updating = true
	v.fileSlider.Min = 0
	v.fileSlider.Max = float64(len(paths) - 1)
	v.fileSlider.SetValue(0)
	v.updating = false
	v.showFile(v.files.Current())
}

func (v *viewer) chooseFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			v.showError(err)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		v.files = display.NewCursor([]string{path})
		v.autoContrastNeeded = true
		v.fileSlider.Max = 0
		v.showFile(path)
	}, v.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".fits"}))
	fd.Resize(fyne.Size{Width: 800, Height: 600})
	fd.Show()
}

// chooseFolder offers the folder history, with a button for the file
// browser. With "Delete path clicked on" checked, a picked entry is removed
// from the history instead of opened.
func (v *viewer) chooseFolder() {
	folderSelectWin := v.app.NewWindow("FITS folder history (and options)")
	folderSelectWin.Resize(fyne.Size{Height: 450, Width: 700})

	deleteCheckbox := widget.NewCheck("Delete path clicked on", func(bool) {})
	var selector *widget.Select
	selector = widget.NewSelect(v.folderHistory, func(path string) {
		if path == "" {
			return
		}
		if deleteCheckbox.Checked {
			v.folderHistory = display.RemovePath(v.folderHistory, path)
			v.saveFolderHistory()
			selector.Options = v.folderHistory
			selector.ClearSelected()
			return
		}
		folderSelectWin.Close()
		v.openFolder(path)
	})
	selector.PlaceHolder = "Make selection from folder history ..."

	topLine := container.NewHBox(
		deleteCheckbox,
		widget.NewButton("Open file browser", func() {
			folderSelectWin.Close()
			v.openFolderDialog()
		}),
		layout.NewSpacer())
	folderSelectWin.SetContent(container.NewVBox(topLine, selector, layout.NewSpacer()))
	folderSelectWin.CenterOnScreen()
	folderSelectWin.Show()
}

func (v *viewer) openFolderDialog() {
	showFolder := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			v.showError(fmt.Errorf("folder selection: %w", err))
			return
		}
		if uri != nil {
			v.openFolder(uri.Path())
		}
	}, v.win)
	showFolder.Resize(fyne.Size{Width: 800, Height: 600})

	if last := v.app.Preferences().StringWithFallback("lastFitsFolder", ""); last != "" && fitsimg.IsDirectory(last) {
		if dir, err := storage.ListerForURI(storage.NewFileURI(last)); err == nil {
			showFolder.SetLocation(dir)
		}
	}
	showFolder.Show()
}
