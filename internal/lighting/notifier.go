package lighting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultURL is the LED controller's preset endpoint for both virtuals.
	DefaultURL = "http://crystalspc.local:8888/api/virtuals/both/presets"

	// DefaultCategory is the preset category the key table's presets live in.
	DefaultCategory = "user_presets"

	maxResponseBody = 64 << 10
)

// ErrNoResponse marks a request that went out but got nothing back.
var ErrNoResponse = errors.New("no response received")

// ResultKind classifies the outcome of a notify call.
type ResultKind int

const (
	ResultOK         ResultKind = iota // 2xx from the controller
	ResultStatus                       // controller answered with an error status
	ResultNoResponse                   // request sent, no response
	ResultRequest                      // request could not be built
)

var resultKindNames = map[ResultKind]string{
	ResultOK:         "ok",
	ResultStatus:     "status",
	ResultNoResponse: "no_response",
	ResultRequest:    "request",
}

func (k ResultKind) String() string {
	if s, ok := resultKindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k ResultKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Result is the outcome of one PUT to the controller.
type Result struct {
	Kind     ResultKind
	Effect   string
	PresetID string
	Status   int
	Body     string
	Err      error
	Duration time.Duration
}

// OK reports whether the controller accepted the preset.
func (r Result) OK() bool {
	return r.Kind == ResultOK
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind       ResultKind `json:"kind"`
		Effect     string     `json:"effectId"`
		PresetID   string     `json:"presetId"`
		Status     int        `json:"status,omitempty"`
		Body       string     `json:"body,omitempty"`
		Error      string     `json:"error,omitempty"`
		DurationMs int64      `json:"durationMs"`
	}{
		Kind:       r.Kind,
		Effect:     r.Effect,
		PresetID:   r.PresetID,
		Status:     r.Status,
		Body:       r.Body,
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Payload is the controller's request body.
type Payload struct {
	Category string `json:"category"`
	EffectID string `json:"effect_id"`
	PresetID string `json:"preset_id"`
}

// Notifier pushes lighting states to the controller.
type Notifier struct {
	url      string
	category string
	client   *http.Client
	logger   *zap.SugaredLogger
}

// NewNotifier creates a notifier targeting url (e.g. DefaultURL).
func NewNotifier(url, category string, timeout time.Duration, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{
		url:      url,
		category: category,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("notifier"),
	}
}

// PayloadFor builds the request body for s.
func (n *Notifier) PayloadFor(s State) Payload {
	return Payload{
		Category: n.category,
		EffectID: s.Effect.String(),
		PresetID: s.PresetID(),
	}
}

// Notify sends s to the controller. It never retries; the outcome is logged
// and returned.
func (n *Notifier) Notify(ctx context.Context, s State) Result {
	payload := n.PayloadFor(s)
	n.logger.Infow("Calling API", "effect", payload.EffectID, "presetId", payload.PresetID)

	start := time.Now()
	res := n.put(ctx, payload)
	res.Duration = time.Since(start)
	n.logResult(res)
	return res
}

func (n *Notifier) put(ctx context.Context, payload Payload) Result {
	res := Result{Effect: payload.EffectID, PresetID: payload.PresetID}

	data, err := json.Marshal(payload)
	if err != nil {
		res.Kind = ResultRequest
		res.Err = fmt.Errorf("encode payload: %w", err)
		return res
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, n.url, bytes.NewReader(data))
	if err != nil {
		res.Kind = ResultRequest
		res.Err = fmt.Errorf("build request: %w", err)
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		res.Kind = ResultNoResponse
		res.Err = fmt.Errorf("%w: %v", ErrNoResponse, err)
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		n.logger.Debugw("Failed to read response body", "error", err)
	}
	res.Status = resp.StatusCode
	res.Body = strings.TrimSpace(string(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Kind = ResultStatus
		res.Err = fmt.Errorf("PUT %s: %d", n.url, resp.StatusCode)
		return res
	}
	res.Kind = ResultOK
	return res
}

func (n *Notifier) logResult(res Result) {
	switch res.Kind {
	case ResultOK:
		n.logger.Infow("PUT request successful", "status", res.Status, "body", res.Body, "presetId", res.PresetID)
	case ResultStatus:
		n.logger.Errorw("Error making PUT request", "status", res.Status, "body", res.Body, "presetId", res.PresetID)
	case ResultNoResponse:
		n.logger.Errorw("Error making PUT request: no response received", "error", res.Err, "presetId", res.PresetID)
	default:
		n.logger.Errorw("Error making PUT request", "error", res.Err, "presetId", res.PresetID)
	}
}
