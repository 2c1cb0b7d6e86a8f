package main

import (
	"errors"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"naojutils/internal/display"
)

func (v *viewer) buildROIControls() []fyne.CanvasObject {
	v.roiCheckbox = widget.NewCheck("Apply ROI", func(checked bool) {
		v.roiActive = checked
		v.redraw()
	})
	setRoiButton := widget.NewButton("Set ROI size", func() { v.roiEntry() })
	showButton := widget.NewButton("Show ROI", func() {
		v.roiOutline = !v.roiOutline
		v.redraw()
	})

	up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() { v.moveROI(0, 1) })
	down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() { v.moveROI(0, -1) })
	left := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() { v.moveROI(-1, 0) })
	right := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() { v.moveROI(1, 0) })
	center := widget.NewButtonWithIcon("", theme.MediaRecordIcon(), func() { v.centerROI() })

	spacer := func() fyne.CanvasObject {
		return widget.NewToolbar(widget.ToolbarItem(widget.NewToolbarSpacer()))
	}
	toolBar1 := container.NewGridWithColumns(3, spacer(), up, spacer())
	toolBar2 := container.NewGridWithColumns(3, left, center, right)
	toolBar3 := container.NewGridWithColumns(3, spacer(), down, spacer())

	v.roiControls = []fyne.Disableable{v.roiCheckbox, setRoiButton, showButton, up, down, left, right, center}
	return []fyne.CanvasObject{v.roiCheckbox, setRoiButton, toolBar1, toolBar2, toolBar3, showButton}
}

func (v *viewer) setROIControls(enabled bool) {
	for _, c := range v.roiControls {
		if enabled {
			c.Enable()
		} else {
			c.Disable()
		}
	}
}

func (v *viewer) saveROI() {
	prefs := v.app.Preferences()
	prefs.SetInt("ROIwidth", v.roi.Width)
	prefs.SetInt("ROIheight", v.roi.Height)
	prefs.SetInt("ROIx0", v.roi.X0)
	prefs.SetInt("ROIy0", v.roi.Y0)
}

// moveROI jogs the region by whole jog steps. Image y runs upwards, so
// the up button moves to larger y.
func (v *viewer) moveROI(dx, dy int) {
	img := v.current()
	if img == nil {
		return
	}
	if err := v.roi.Move(dx, dy, img.Width(), img.Height()); err != nil {
		if errors.Is(err, display.ErrBoundary) {
			dialog.ShowInformation("Oops", err.Error(), v.win)
			return
		}
		v.showError(err)
		return
	}
	v.saveROI()
	v.redraw()
}

func (v *viewer) centerROI() {
	img := v.current()
	if img == nil {
		return
	}
	v.roi.Center(img.Width(), img.Height())
	v.saveROI()
	v.redraw()
}

func (v *viewer) roiEntry() {
	widthWidget := widget.NewEntry()
	widthWidget.SetText(strconv.Itoa(v.roi.Width))
	heightWidget := widget.NewEntry()
	heightWidget.SetText(strconv.Itoa(v.roi.Height))
	items := []*widget.FormItem{
		widget.NewFormItem("width", widthWidget),
		widget.NewFormItem("height", heightWidget),
	}
	dialog.ShowForm("Enter ROI information", "OK", "Cancel", items, func(ok bool) {
		if ok {
			v.processROIEntry(widthWidget.Text, heightWidget.Text)
		}
	}, v.win)
}

func (v *viewer) processROIEntry(widthStr, heightStr string) {
	width, err := strconv.Atoi(widthStr)
	if err != nil || width < 1 {
		dialog.ShowInformation("Oops", "An integer > 0 is needed for ROI width.", v.win)
		return
	}
	height, err := strconv.Atoi(heightStr)
	if err != nil || height < 1 {
		dialog.ShowInformation("Oops", "An integer > 0 is needed for ROI height.", v.win)
		return
	}

	v.roi.Width, v.roi.Height = width, height
	if img := v.current(); img != nil {
		v.roi.Center(img.Width(), img.Height())
		v.roi.Validate(img.Width(), img.Height())
	}
	v.saveROI()
	v.redraw()
}
