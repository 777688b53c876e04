package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/tartampluch/go-valentine/internal/config"
	"github.com/tartampluch/go-valentine/internal/engine"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const (
	displayBlock = "block"
	displayNone  = "none"
)

// countdownResponse is the JSON view of a RenderDecision.
type countdownResponse struct {
	State   string    `json:"state"`
	Target  time.Time `json:"target"`
	Days    int       `json:"days"`
	Hours   int       `json:"hours"`
	Minutes int       `json:"minutes"`
	Seconds int       `json:"seconds"`
	Text    string    `json:"text,omitempty"`
	Card    string    `json:"card,omitempty"`
}

// pageData feeds templates/index.html. Both regions are always rendered;
// the display values hide one of them.
type pageData struct {
	Title            string
	CountdownText    string
	CountdownDisplay string
	CardText         string
	CardDisplay      string
	RefreshMillis    int64
	APIPath          string
}

func (s *CountdownServer) decide(w http.ResponseWriter) (engine.RenderDecision, bool) {
	d, err := s.Countdown.Current()
	if err != nil {
		slog.Error(config.ErrRenderPage,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
		http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
		return engine.RenderDecision{}, false
	}
	return d, true
}

func (s *CountdownServer) handleCountdown(w http.ResponseWriter, _ *http.Request) {
	d, ok := s.decide(w)
	if !ok {
		return
	}

	resp := countdownResponse{
		State:   d.State.String(),
		Target:  d.Target,
		Days:    d.Remaining.Days,
		Hours:   d.Remaining.Hours,
		Minutes: d.Remaining.Minutes,
		Seconds: d.Remaining.Seconds,
		Text:    d.Text(),
	}
	if d.CardVisible() {
		resp.Card = s.currentRecipient().CardText()
	}

	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlNoStore)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

func (s *CountdownServer) handlePage(w http.ResponseWriter, _ *http.Request) {
	d, ok := s.decide(w)
	if !ok {
		return
	}

	data := pageData{
		Title:            config.FallbackWinTitle,
		CountdownText:    d.Text(),
		CountdownDisplay: displayNone,
		CardText:         s.currentRecipient().CardText(),
		CardDisplay:      displayNone,
		RefreshMillis:    config.RenderInterval.Milliseconds(),
		APIPath:          config.RouteCountdown,
	}
	if d.CountdownVisible() {
		data.CountdownDisplay = displayBlock
	} else {
		data.CardDisplay = displayBlock
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextHTML)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlNoStore)
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.Error(config.ErrRenderPage,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}
