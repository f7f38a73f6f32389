package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/momentlabs/radar/pkg/metrics"
	"github.com/momentlabs/radar/pkg/radar"
)

// stream writes messages as newline-delimited JSON, flushing after every
// frame so the caller sees progress as it happens.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, msgs <-chan radar.Message) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	metrics.StreamsOpen.Inc()
	defer metrics.StreamsOpen.Dec()

	enc := json.NewEncoder(w)
	for msg := range msgs {
		if err := enc.Encode(msg); err != nil {
			// Client is gone; the request context cancels the run.
			h.log.Debug().Err(err).Msg("Stream write failed")
			return
		}
		flusher.Flush()
	}
}
