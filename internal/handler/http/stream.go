package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

var streamTopics = []string{sse.TopicSummary, sse.TopicActivity, sse.TopicRecords}

type StreamHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	hub       *sse.Hub
	keepalive time.Duration
}

func NewStreamHandler(hub *sse.Hub) StreamHandler {
	return &streamHandlerImpl{
		hub:       hub,
		keepalive: 30 * time.Second,
	}
}

// parseTopics reads a comma separated topics parameter; empty means all.
func parseTopics(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return streamTopics, nil
	}
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !validator.IsInSlice(t, streamTopics) {
			return nil, validator.ValidationErrors{{
				Field:   "topics",
				Message: "topics must be any of: " + strings.Join(streamTopics, ", "),
			}}
		}
		if !validator.IsInSlice(t, topics) {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return streamTopics, nil
	}
	return topics, nil
}

// Stream handles the SSE connection for the live widgets
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	topics, err := parseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	// The server write timeout must not cut the stream
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(topics...)
	defer func() {
		cleanup()
		slog.Debug("Stream closed", "topics", topics, "dropped_total", h.hub.Dropped())
	}()

	connected, _ := json.Marshal(map[string]interface{}{"status": "connected", "topics": topics})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Failed to encode stream event", "topic", event.Topic, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
