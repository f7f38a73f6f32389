package httpapi

import (
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/momentlabs/radar/pkg/metrics"
	"github.com/momentlabs/radar/pkg/radar"
)

// wsRequest is the single request frame a websocket client sends after
// connecting. It carries either an explicit search or an event draft.
type wsRequest struct {
	Mode   string         `json:"mode"` // "search" or "detect"
	Search *SearchRequest `json:"search,omitempty"`
	Detect *DetectRequest `json:"detect,omitempty"`
}

// websocket serves the same ordered message stream over a websocket, for
// callers that keep a connection open across relaunches.
func (h *Handler) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	var req wsRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		conn.Close(websocket.StatusInvalidFramePayloadData, "invalid request frame")
		return
	}

	var msgs <-chan radar.Message
	switch {
	case req.Mode == "search" && req.Search != nil:
		if err := h.validate.Struct(req.Search); err != nil {
			conn.Close(websocket.StatusInvalidFramePayloadData, "invalid search request")
			return
		}
		msgs = h.engine.Run(ctx, radar.Criteria{
			City:     req.Search.City,
			DateFrom: req.Search.DateFrom,
			DateTo:   req.Search.DateTo,
			Keywords: radar.ParseKeywords(req.Search.Keywords),
		})
	case req.Mode == "detect" && req.Detect != nil:
		userID := strings.TrimSpace(r.Header.Get(headerUser))
		if userID == "" {
			conn.Close(websocket.StatusPolicyViolation, "missing caller identity")
			return
		}
		if err := h.validate.Struct(req.Detect); err != nil {
			conn.Close(websocket.StatusInvalidFramePayloadData, "invalid detect request")
			return
		}
		msgs = h.engine.RunRadar(ctx, radar.RadarRequest{
			Draft: radar.Draft{
				Title:           req.Detect.Title,
				Description:     req.Detect.Description,
				LocationName:    req.Detect.LocationName,
				LocationAddress: req.Detect.LocationAddress,
				StartsAt:        req.Detect.StartsAt,
			},
			UserID:           userID,
			Elevated:         strings.EqualFold(r.Header.Get(headerElevated), "true"),
			OverrideKeywords: req.Detect.OverrideKeywords,
		})
	default:
		conn.Close(websocket.StatusInvalidFramePayloadData, "unknown mode")
		return
	}

	metrics.StreamsOpen.Inc()
	defer metrics.StreamsOpen.Dec()

	for msg := range msgs {
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			h.log.Debug().Err(err).Msg("Websocket write failed")
			return
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
