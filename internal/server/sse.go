package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/verification"
)

// SSE event names.
const (
	eventSnapshot = "snapshot"
	eventComplete = "complete"
)

// heartbeatInterval keeps idle event streams open through proxies.
const heartbeatInterval = 15 * time.Second

// reconnectDelay is the retry hint sent to EventSource clients.
const reconnectDelay = 2 * time.Second

var errStreamingUnsupported = errors.New("response writer does not support streaming")

// eventStream writes snapshots to one client as server-sent events.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// openEventStream sends the stream headers and the reconnect hint.
func openEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	es := &eventStream{w: w, flusher: flusher}
	if _, err := fmt.Fprintf(w, "retry: %d\n\n", reconnectDelay.Milliseconds()); err != nil {
		return nil, err
	}
	flusher.Flush()
	return es, nil
}

func (es *eventStream) send(event, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	frame := "event: " + event + "\ndata: " + string(data) + "\n\n"
	if id != "" {
		frame = "id: " + id + "\n" + frame
	}
	if _, err := es.w.Write([]byte(frame)); err != nil {
		return err
	}
	es.flusher.Flush()
	return nil
}

// snapshot sends snap with its version as the event id, so a reconnecting
// client can tell which state it last saw.
func (es *eventStream) snapshot(snap verification.Snapshot) error {
	return es.send(eventSnapshot, strconv.FormatUint(snap.Version, 10), snap)
}

// complete tells the client no further snapshots follow on this stream.
func (es *eventStream) complete(resumeID string, phase verification.Phase) error {
	return es.send(eventComplete, "", map[string]string{
		"resume_id": resumeID,
		"phase":     string(phase),
	})
}

// heartbeat writes an SSE comment line, which clients ignore.
func (es *eventStream) heartbeat() error {
	if _, err := es.w.Write([]byte(": ping\n\n")); err != nil {
		return err
	}
	es.flusher.Flush()
	return nil
}
