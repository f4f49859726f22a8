package socketio

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedFrame is returned for frames that are not objects with a body.
var ErrMalformedFrame = errors.New("malformed frame")

// frame is one subscription event as delivered by the server.
type frame struct {
	// EventID is the resume cursor, empty when the server sent none.
	EventID string          `json:"event_id"`
	Body    json.RawMessage `json:"body"`
}

// parseFrame normalises a Socket.IO argument into a frame. The parser hands
// JSON objects over as maps, so they are re-encoded to recover raw bytes.
func parseFrame(arg any) (frame, error) {
	var raw []byte
	switch v := arg.(type) {
	case nil:
		return frame{}, ErrMalformedFrame
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		raw = b
	}

	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(f.Body) == 0 || string(f.Body) == "null" {
		return frame{}, fmt.Errorf("%w: missing body", ErrMalformedFrame)
	}
	return f, nil
}

// subscribeRequest builds the payload of the subscribe event.
func subscribeRequest(path, lastEventID string) map[string]any {
	req := map[string]any{"path": path}
	if lastEventID != "" {
		req["last_event_id"] = lastEventID
	}
	return req
}

// serverError extracts the message of a subscription_error event.
func serverError(args []any) error {
	if len(args) == 0 {
		return errors.New("subscription error")
	}
	switch v := args[0].(type) {
	case string:
		return fmt.Errorf("subscription error: %s", v)
	case map[string]any:
		if msg, ok := v["error_description"].(string); ok {
			return fmt.Errorf("subscription error: %s", msg)
		}
		if msg, ok := v["error"].(string); ok {
			return fmt.Errorf("subscription error: %s", msg)
		}
	}
	return fmt.Errorf("subscription error: %v", args[0])
}
