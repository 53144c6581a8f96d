// Package ipc exposes the daemon over a unix socket speaking newline-framed
// JSON. Every request gets exactly one response; subscribed clients also
// receive asynchronous push messages.
package ipc

import "encoding/json"

// Command names accepted by the daemon.
const (
	CmdLoad             = "load"
	CmdPlay             = "play"
	CmdPause            = "pause"
	CmdStatus           = "status"
	CmdSetSettings      = "setSettings"
	CmdGetAnalysis      = "getAnalysis"
	CmdSubscribeBeats   = "subscribeBeats"
	CmdUnsubscribeBeats = "unsubscribeBeats"
)

// Request is one client command. Data carries command-specific parameters.
type Request struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response answers one request.
type Response struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PushMessage is an unsolicited event sent to subscribed clients. The Type
// field distinguishes it from responses on the shared stream.
type PushMessage struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// LoadParams names the track to load and analyze.
type LoadParams struct {
	Path string `json:"path"`
}

// Status is the daemon state snapshot returned by the status command.
type Status struct {
	Loaded              bool    `json:"loaded"`
	Path                string  `json:"path,omitempty"`
	SessionID           string  `json:"sessionId,omitempty"`
	Playing             bool    `json:"playing"`
	CurrentBeat         int     `json:"currentBeat"`
	BeatCount           int     `json:"beatCount"`
	EdgeCount           int     `json:"edgeCount"`
	Duration            float64 `json:"duration"`
	BranchChance        float64 `json:"branchChance"`
	SimilarityThreshold float64 `json:"similarityThreshold"`
}

// BeatEvent is pushed to beat subscribers as playback reaches each beat.
type BeatEvent struct {
	Index int `json:"index"`
}

// NewSuccessResponse wraps data in a successful response.
func NewSuccessResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponse wraps an error message in a failed response.
func NewErrorResponse(msg string) Response {
	return Response{Success: false, Error: msg}
}

// NewPushMessage builds a push event.
func NewPushMessage(event string, data interface{}) PushMessage {
	return PushMessage{Type: "push", Event: event, Data: data}
}
