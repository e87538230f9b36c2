package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/valyala/fasthttp"

	"hoslog/internal/logbook"
)

type syncRequest struct {
	DriverUsername string               `json:"driverUsername"`
	Events         []logbook.EventInput `json:"events"`
}

// SyncLogs ingests a batch of duty-status events for a driver. Items that
// fail validation are dropped individually; the batch itself is atomic.
func SyncLogs(svc *logbook.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload syncRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.DriverUsername == "" || payload.Events == nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "driverUsername and events[] required")
			return
		}

		res, err := svc.Ingest(ctx, payload.DriverUsername, payload.Events)
		if err != nil {
			// Validation drops happen before the transaction, so they
			// are real even when the batch itself fails.
			observeDroppedEvents(res.Dropped)
			switch {
			case errors.Is(err, logbook.ErrDriverNotFound):
				errResponse(ctx, fasthttp.StatusNotFound, "driver not found")
			case errors.Is(err, logbook.ErrLogCertified):
				errResponse(ctx, fasthttp.StatusConflict, "log already certified")
			default:
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to sync logs")
			}
			return
		}

		observeSyncBatch(res)

		saved := res.SavedClientEventIDs
		if saved == nil {
			saved = []string{}
		}
		jsonResponse(ctx, map[string]any{"savedClientEventIds": saved})
	}
}

type formRequest struct {
	DriverUsername string         `json:"driverUsername"`
	LogDate        string         `json:"logDate"`
	FormData       map[string]any `json:"formData"`
}

// SubmitForm saves per-day form fields into the log's metadata, merging by
// top-level key.
func SubmitForm(svc *logbook.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload formRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.DriverUsername == "" || payload.LogDate == "" || payload.FormData == nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "driverUsername, logDate, formData required")
			return
		}
		logDate, err := logbook.ParseLogDate(payload.LogDate)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "logDate must be YYYY-MM-DD")
			return
		}

		if err := svc.SubmitMetadata(ctx, payload.DriverUsername, logDate, payload.FormData); err != nil {
			if errors.Is(err, logbook.ErrDriverNotFound) {
				errResponse(ctx, fasthttp.StatusNotFound, "driver not found")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to save form")
			return
		}
		jsonResponse(ctx, map[string]any{"ok": true})
	}
}

type certifyRequest struct {
	DriverUsername string `json:"driverUsername"`
	LogDate        string `json:"logDate"`
	Signature      []byte `json:"signature"`
	CertifierName  string `json:"certifierName,omitempty"`
}

// CertifyLog marks a day's log as certified with the submitted signature.
// Re-certifying overwrites the previous sign-off.
func CertifyLog(svc *logbook.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload certifyRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.DriverUsername == "" || payload.LogDate == "" || len(payload.Signature) == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "driverUsername, logDate, signature required")
			return
		}
		logDate, err := logbook.ParseLogDate(payload.LogDate)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "logDate must be YYYY-MM-DD")
			return
		}

		if err := svc.Certify(ctx, payload.DriverUsername, logDate, payload.Signature, payload.CertifierName); err != nil {
			if errors.Is(err, logbook.ErrDriverNotFound) {
				errResponse(ctx, fasthttp.StatusNotFound, "driver not found")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to certify log")
			return
		}
		certificationsTotal.Inc()
		jsonResponse(ctx, map[string]any{"ok": true})
	}
}

// DriverLogs returns the last N days of day views for a driver, most recent
// first. Defaults to 7 days.
func DriverLogs(svc *logbook.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		usernameVal := ctx.UserValue("username")
		username, ok := usernameVal.(string)
		if !ok || username == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username required")
			return
		}

		days := 7
		if d := string(ctx.QueryArgs().Peek("days")); d != "" {
			if n, err := strconv.Atoi(d); err == nil && n > 0 {
				days = n
			}
		}

		logs, err := svc.Logs(ctx, username, days)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to get logs")
			return
		}

		ctx.SetContentType("application/json")
		body, err := json.Marshal(map[string]any{"logs": logs})
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode logs")
			return
		}
		ctx.SetBody(body)
	}
}
