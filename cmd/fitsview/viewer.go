package main

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"naojutils/internal/cli"
	"naojutils/internal/display"
	"naojutils/internal/fitsimg"
)

const appID = "jp.nao.naojutils.fitsview"

type viewer struct {
	app fyne.App
	win fyne.Window
	log *zap.Logger

	files *display.Cursor
	hdus  []hdu
	hdu   int

	roi        display.ROI
	roiActive  bool
	roiOutline bool

	autoContrastNeeded bool
	updating           bool

	whiteSlider    *widget.Slider
	blackSlider    *widget.Slider
	fileSlider     *widget.Slider
	hduSelect      *widget.Select
	fileLabel      *widget.Label
	timestampLabel *canvas.Text
	roiCheckbox    *widget.Check
	roiControls    []fyne.Disableable
	centerContent  *fyne.Container

	folderHistory []string
}

func runViewer(env *cli.Env, start string, light bool) error {
	a := app.NewWithID(appID)
	v := &viewer{
		app:                a,
		log:                env.Log,
		files:              display.NewCursor(nil),
		autoContrastNeeded: true,
	}

	variant := theme.VariantDark
	if light {
		variant = theme.VariantLight
	}
	a.Settings().SetTheme(&forcedVariant{Theme: theme.DefaultTheme(), variant: variant})

	prefs := a.Preferences()
	v.roi = display.ROI{
		Width:  prefs.IntWithFallback("ROIwidth", 600),
		Height: prefs.IntWithFallback("ROIheight", 400),
		X0:     prefs.IntWithFallback("ROIx0", -1),
		Y0:     prefs.IntWithFallback("ROIy0", -1),
		XJog:   20,
		YJog:   20,
	}
	v.folderHistory = display.TidyHistory(prefs.StringList("folderHistory"))

	v.win = a.NewWindow("FITS viewer")
	v.win.Resize(fyne.Size{Height: 800, Width: 1200})
	v.win.SetContent(v.build())
	v.win.CenterOnScreen()

	if start != "" {
		if fitsimg.IsDirectory(start) {
			v.openFolder(start)
		} else {
			v.files = display.NewCursor([]string{start})
			v.fileSlider.Max = 0
			v.showFile(start)
		}
	}

	v.win.ShowAndRun()
	return nil
}

func (v *viewer) build() fyne.CanvasObject {
	v.whiteSlider = widget.NewSlider(0, 255)
	v.whiteSlider.Orientation = widget.Vertical
	v.whiteSlider.Value = 255
	v.whiteSlider.OnChanged = func(float64) { v.redraw() }

	v.blackSlider = widget.NewSlider(0, 255)
	v.blackSlider.Orientation = widget.Vertical
	v.blackSlider.OnChanged = func(float64) { v.redraw() }

	rightItem := container.NewHBox(v.blackSlider, v.whiteSlider)

	leftItem := container.NewVBox()
	leftItem.Add(widget.NewButton("Open file", func() { v.chooseFile() }))
	leftItem.Add(widget.NewButton("Select fits folder", func() { v.chooseFolder() }))
	leftItem.Add(widget.NewButton("Show meta-data", func() { v.showMetaData() }))
	leftItem.Add(widget.NewButton("Auto contrast", func() {
		v.autoContrastNeeded = true
		v.redraw()
	}))

	v.hduSelect = widget.NewSelect(nil, func(opt string) { v.selectHDU(opt) })
	v.hduSelect.PlaceHolder = "Select HDU"
	leftItem.Add(v.hduSelect)

	leftItem.Add(layout.NewSpacer())
	for _, c := range v.buildROIControls() {
		leftItem.Add(c)
	}

	v.fileLabel = widget.NewLabel("")
	v.timestampLabel = canvas.NewText("", color.NRGBA{R: 255, A: 255})
	v.timestampLabel.TextSize = 25

	row1 := container.NewHBox(layout.NewSpacer(), v.timestampLabel, layout.NewSpacer())
	row2 := container.NewHBox(layout.NewSpacer(), v.fileLabel, layout.NewSpacer())

	v.fileSlider = widget.NewSlider(0, 0)
	v.fileSlider.OnChanged = func(value float64) {
		if v.updating {
			return
		}
		v.showFile(v.files.Seek(int(value)))
	}

	toolBar := container.NewHBox(
		layout.NewSpacer(),
		widget.NewButton("-1", func() { v.step(v.files.Back) }),
		widget.NewButton("+1", func() { v.step(v.files.Forward) }),
		layout.NewSpacer(),
	)

	bottomItem := container.NewVBox(v.fileSlider, toolBar, row1, row2)

	v.centerContent = container.NewBorder(nil, bottomItem, leftItem, rightItem, widget.NewLabel(""))
	v.setROIControls(false)
	return v.centerContent
}

func (v *viewer) step(move func() string) {
	if v.files.Len() == 0 {
		return
	}
	path := move()
	v.updating = true
	v.fileSlider.SetValue(float64(v.files.Index()))
	v.updating = false
	v.showFile(path)
}

func (v *viewer) showError(err error) {
	v.log.Error("fitsview", zap.Error(err))
	dialog.ShowError(err, v.win)
}

// showFile loads every image HDU of path and displays the one at the
// current HDU position, falling back to the first.
func (v *viewer) showFile(path string) {
	images, err := fitsimg.LoadAll(path)
	if err != nil {
		v.showError(err)
		return
	}
	hdus := imageHDUs(images)
	if len(hdus) == 0 {
		v.showError(fmt.Errorf("%s: %w", path, fitsimg.ErrNoImage))
		return
	}
	v.hdus = hdus
	if v.hdu >= len(hdus) {
		v.hdu = 0
	}
	v.fileLabel.SetText(path)

	v.updating = true
	v.hduSelect.Options = labels(hdus)
	v.hduSelect.SetSelectedIndex(v.hdu)
	v.updating = false

	v.showHDU()
}

func (v *viewer) selectHDU(opt string) {
	if v.updating {
		return
	}
	for i, h := range v.hdus {
		if h.label == opt {
			v.hdu = i
			v.showHDU()
			return
		}
	}
}

func (v *viewer) current() *fitsimg.Image {
	if len(v.hdus) == 0 {
		return nil
	}
	return v.hdus[v.hdu].img
}

// showHDU resets the slider limits to the data range of the current HDU
// and redraws it.
func (v *viewer) showHDU() {
	img := v.current()
	if img == nil {
		return
	}
	_, timestamp := display.FormatMetaData(img.Header)
	v.timestampLabel.Text = timestamp
	v.timestampLabel.Refresh()

	if v.roi.Validate(img.Width(), img.Height()) {
		v.saveROI()
	}
	v.setROIControls(true)

	lo, hi := dataRange(img.Data)
	v.updating = true
	for _, s := range []*widget.Slider{v.blackSlider, v.whiteSlider} {
		s.Min, s.Max = lo, hi
		s.Step = (hi - lo) / 255
	}
	if v.blackSlider.Value < lo || v.blackSlider.Value > hi || v.whiteSlider.Value < lo || v.whiteSlider.Value > hi {
		v.autoContrastNeeded = true
	}
	v.updating = false
	v.redraw()
}

func (v *viewer) redraw() {
	img := v.current()
	if img == nil || v.updating {
		return
	}
	if v.autoContrastNeeded {
		v.autoContrastNeeded = false
		black, white, err := display.AutoLevels(img.Data)
		if err != nil {
			v.log.Warn("auto contrast failed", zap.Error(err))
			black, white = v.blackSlider.Min, v.blackSlider.Max
		}
		v.updating = true
		v.blackSlider.SetValue(black)
		v.whiteSlider.SetValue(white)
		v.updating = false
	}

	pic, err := render(img, &v.roi, v.roiActive, v.roiOutline, v.blackSlider.Value, v.whiteSlider.Value)
	if err != nil {
		v.showError(err)
		return
	}
	fitsImage := canvas.NewImageFromImage(pic)
	fitsImage.FillMode = canvas.ImageFillContain
	fitsImage.ScaleMode = canvas.ImageScalePixels
	v.centerContent.Objects[0] = fitsImage
	v.centerContent.Refresh()
}

func (v *viewer) showMetaData() {
	img := v.current()
	if img == nil {
		return
	}
	lines, _ := display.FormatMetaData(img.Header)
	metaWin := v.app.NewWindow("FITS Meta-data")
	metaWin.Resize(fyne.Size{Height: 600, Width: 700})
	scrollableText := container.NewVScroll(widget.NewRichTextWithText(strings.Join(lines, "\n")))
	metaWin.SetContent(scrollableText)
	metaWin.Show()
	metaWin.CenterOnScreen()
}
