package status

import (
	"github.com/ledkeys/ledkeys/internal/device"
	"github.com/ledkeys/ledkeys/internal/lighting"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgState    MessageType = "state"
	MsgNotify   MessageType = "notify"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// SnapshotPayload is sent on connect and served by /api/state.
type SnapshotPayload struct {
	State      lighting.State       `json:"state"`
	PresetID   string               `json:"presetId"`
	Devices    []device.Info        `json:"devices"`
	Failures   []device.OpenFailure `json:"failures"`
	LastResult *lighting.Result     `json:"lastResult,omitempty"`
}

type StatePayload struct {
	Key         string         `json:"key"`
	Device      string         `json:"device,omitempty"`
	Description string         `json:"description"`
	State       lighting.State `json:"state"`
	PresetID    string         `json:"presetId"`
}

type NotifyPayload struct {
	Key    string          `json:"key"`
	Result lighting.Result `json:"result"`
}
