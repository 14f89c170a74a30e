/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/flamego/flamego"

	"github.com/humaidq/hemoscan/archive"
	"github.com/humaidq/hemoscan/augment"
	"github.com/humaidq/hemoscan/cbc"
	"github.com/humaidq/hemoscan/logging"
	"github.com/humaidq/hemoscan/pipeline"
)

var logger = logging.Logger(logging.SourceWeb)

// maxAnalyzeBody bounds the size of a submitted sample.
const maxAnalyzeBody = 64 << 10

// SSE event names of POST /api/analyze.
const (
	eventLocal   = "local"
	eventWarning = "warning"
	eventDone    = "done"
)

type analysisEvent struct {
	RequestID string         `json:"request_id"`
	State     pipeline.State `json:"state"`
	Result    augment.Result `json:"result"`
}

type doneEvent struct {
	RequestID string         `json:"request_id"`
	State     pipeline.State `json:"state"`
	Archived  bool           `json:"archived"`
	RecordID  string         `json:"record_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(c flamego.Context, status int, v any) {
	w := c.ResponseWriter()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "path", c.Request().URL.Path, "error", err)
	}
}

func writeError(c flamego.Context, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *cbc.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	writeJSON(c, status, resp)
}

// Analyze classifies a submitted sample and streams the analysis using
// Server-Sent Events: "local" with the rule-engine result, then "augmented"
// or "fallback" with the settled result as soon as it is ready, an optional
// "warning" when the report could not be archived, and "done" once the
// archive append has finished.
func Analyze(c flamego.Context, p *pipeline.Pipeline) {
	var in cbc.Input

	body := http.MaxBytesReader(c.ResponseWriter(), c.Request().Body().ReadCloser(), maxAnalyzeBody)
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		writeError(c, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	ctx := c.Request().Context()

	a, err := p.Start(ctx, in)
	if err != nil {
		if errors.Is(err, cbc.ErrInvalidSample) {
			writeError(c, http.StatusUnprocessableEntity, err)
			return
		}
		logger.Error("Failed to start analysis", "error", err)
		writeError(c, http.StatusInternalServerError, errAnalysisFailed)
		return
	}

	w := c.ResponseWriter()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	sendEvent := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			logger.Warn("Failed to encode event", "event", event, "error", err)
			return
		}
		_, _ = w.Write([]byte("event: " + event + "\n"))
		_, _ = w.Write([]byte("data: " + string(data) + "\n\n"))
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}

	for {
		select {
		case u, ok := <-a.Updates():
			if !ok {
				return
			}

			switch {
			case u.Archived:
				if u.ArchiveErr != nil {
					sendEvent(eventWarning, errorResponse{Error: u.ArchiveErr.Error()})
				}
				done := doneEvent{RequestID: u.RequestID, State: u.State, Archived: u.ArchiveErr == nil}
				if u.Record != nil {
					done.RecordID = u.Record.ID
				}
				sendEvent(eventDone, done)
			case u.State.Terminal():
				sendEvent(string(u.State), analysisEvent{RequestID: u.RequestID, State: u.State, Result: u.Result})
			default:
				sendEvent(eventLocal, analysisEvent{RequestID: u.RequestID, State: u.State, Result: u.Result})
			}
		case <-ctx.Done():
			// The analysis settles on its own and is still archived.
			logger.Debug("Client left before analysis settled", "request_id", a.ID())
			return
		}
	}
}

// ListReports returns the archived reports, most recent first.
func ListReports(c flamego.Context, p *pipeline.Pipeline) {
	records, err := p.Archive().List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list reports", "error", err)
		writeError(c, http.StatusInternalServerError, errListReportsFailed)
		return
	}

	if records == nil {
		records = []archive.Record{}
	}

	writeJSON(c, http.StatusOK, struct {
		Reports []archive.Record `json:"reports"`
	}{Reports: records})
}

// ClearReports removes every archived report.
func ClearReports(c flamego.Context, p *pipeline.Pipeline) {
	if err := p.Archive().Clear(c.Request().Context()); err != nil {
		logger.Error("Failed to clear reports", "error", err)
		writeError(c, http.StatusInternalServerError, errClearReportsFailed)
		return
	}

	logger.Info("Cleared report history", "ip", clientIP(c))
	c.ResponseWriter().WriteHeader(http.StatusNoContent)
}

// Ranges returns the reference table in use.
func Ranges(c flamego.Context, p *pipeline.Pipeline) {
	table := p.Engine().Table()
	writeJSON(c, http.StatusOK, struct {
		Version string                `json:"version"`
		Ranges  []cbc.RangeDefinition `json:"ranges"`
	}{Version: table.Version(), Ranges: table.Definitions()})
}

func clientIP(c flamego.Context) string {
	forwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		if idx := strings.Index(forwardedFor, ","); idx != -1 {
			forwardedFor = forwardedFor[:idx]
		}

		if ip := strings.TrimSpace(forwardedFor); ip != "" {
			return ip
		}
	}

	return c.RemoteAddr()
}
