package ui

import (
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-valentine/internal/config"
	"github.com/tartampluch/go-valentine/internal/engine"
)

// ShowUpcomingWindow lists the next occurrences of the target date.
// Only one instance is open at a time; a second call focuses it.
func (app *ValentineApp) ShowUpcomingWindow() {
	if app.upcomingWindow != nil {
		app.upcomingWindow.RequestFocus()
		return
	}

	rows, err := app.upcomingRows()
	if err != nil {
		slog.Error(config.ErrRenderPage,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
		return
	}

	slog.Info(config.MsgOpenUpcoming,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(rows))

	app.upcomingWindow = app.App.NewWindow(app.GetMsg(config.TKeyWinUpcoming))
	app.upcomingWindow.Resize(fyne.NewSize(config.UpcomingWinWidth, config.UpcomingWinHeight))

	list := widget.NewList(
		func() int { return len(rows) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id < len(rows) {
				o.(*widget.Label).SetText(rows[id])
			}
		},
	)

	subtitle := widget.NewLabel(app.upcomingSubtitle())
	app.upcomingWindow.SetContent(container.NewBorder(subtitle, nil, nil, nil, list))

	app.upcomingWindow.SetOnClosed(func() {
		app.upcomingWindow = nil
	})

	app.upcomingWindow.Show()
}

// upcomingRows formats the next UpcomingCount occurrences relative to now.
func (app *ValentineApp) upcomingRows() ([]string, error) {
	d, err := app.Countdown.Current()
	if err != nil {
		return nil, err
	}
	occurrences, err := engine.Occurrences(d.Occurrence(), config.UpcomingCount)
	if err != nil {
		return nil, err
	}

	layout := app.GetMsg(config.TKeyFormatDateLong)
	if layout == config.TKeyFormatDateLong {
		layout = config.DateFormatDisplay
	}

	rows := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		rows = append(rows, app.upcomingRow(occ, d.Now, layout))
	}
	return rows, nil
}

func (app *ValentineApp) upcomingRow(occ, now time.Time, layout string) string {
	left := occ.Sub(now)
	if left < 0 {
		left = 0
	}
	days := engine.Decompose(left).Days
	date := occ.Format(layout)

	msg, err := app.localize(config.TKeyUpcomingRow, map[string]interface{}{
		"Date":  date,
		"Count": days,
	}, &days)
	if err != nil {
		return fmt.Sprintf("%s (%d)", date, days)
	}
	return msg
}

func (app *ValentineApp) upcomingSubtitle() string {
	zone := time.UTC.String()
	if app.Countdown != nil && app.Countdown.Location != nil {
		zone = app.Countdown.Location.String()
	}
	msg, err := app.localize(config.TKeyUpcomingSubtitle, map[string]interface{}{"Zone": zone}, nil)
	if err != nil {
		return zone
	}
	return msg
}
