package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// maxPreviewBody bounds the request body of the HTTP preview endpoint.
const maxPreviewBody = 1 << 20

// Response headers set by the preview endpoint.
const (
	HeaderRenderID    = "X-Render-Id"
	HeaderRiskPercent = "X-Risk-Percent"
	HeaderRiskBand    = "X-Risk-Band"
)

// NewPreviewHandler returns an HTTP handler that renders the POSTed email
// body. A body sent as message/rfc822 is parsed as a raw message; anything
// else is treated as plaintext. The fragment is returned as text/html, or
// the full PreviewResponse when the client accepts application/json.
func NewPreviewHandler(svc *Service, logger *slog.Logger) http.Handler {
	logger = logger.With("area", "http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPreviewBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "reading request body", http.StatusBadRequest)
			return
		}

		var req PreviewRequest
		if isRawMessage(r.Header.Get("Content-Type")) {
			req.EML = string(body)
		} else {
			req.Text = string(body)
		}

		resp, err := svc.Preview(r.Context(), req)
		if err != nil {
			logger.Warn("preview request rejected", "err", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set(HeaderRenderID, resp.ID)
		if resp.Percent != nil {
			w.Header().Set(HeaderRiskPercent, strconv.FormatFloat(*resp.Percent, 'f', -1, 64))
			w.Header().Set(HeaderRiskBand, resp.Band)
		}

		if wantsJSON(r.Header.Get("Accept")) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				logger.Error("writing response", "id", resp.ID, "err", err)
			}
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if _, err := io.WriteString(w, resp.Fragment); err != nil {
			logger.Error("writing response", "id", resp.ID, "err", err)
		}
	})
}

func isRawMessage(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "message/rfc822"
}

func wantsJSON(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}
