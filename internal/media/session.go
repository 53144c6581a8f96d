// Package media mirrors daemon playback state to OS media controls.
package media

import "time"

// PlaybackState is the state shown to the OS.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

// Metadata describes the loaded track. A remix has no meaningful end, so
// Duration is the source track length rather than a playback bound.
type Metadata struct {
	Title    string
	Duration time.Duration
}

// Session is the OS media control surface.
type Session interface {
	// UpdateMetadata announces the loaded track.
	UpdateMetadata(metadata Metadata) error

	// UpdatePlaybackState announces a play state change.
	UpdatePlaybackState(state PlaybackState) error

	// SetCommandHandler registers the callback for OS-initiated commands.
	SetCommandHandler(handler CommandHandler)

	// Close releases the underlying bus connection.
	Close() error
}

// Command is a playback command originating from the OS.
type Command int

const (
	CmdPlay Command = iota
	CmdPause
	CmdPlayPause
	CmdStop
)

func (c Command) String() string {
	switch c {
	case CmdPlay:
		return "Play"
	case CmdPause:
		return "Pause"
	case CmdPlayPause:
		return "PlayPause"
	case CmdStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// CommandHandler receives OS media commands.
type CommandHandler interface {
	OnCommand(cmd Command) error
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(cmd Command) error

func (f CommandHandlerFunc) OnCommand(cmd Command) error {
	return f(cmd)
}

// NoOpSession is used when no media integration is available.
type NoOpSession struct{}

func NewNoOpSession() *NoOpSession {
	return &NoOpSession{}
}

func (s *NoOpSession) UpdateMetadata(metadata Metadata) error {
	return nil
}

func (s *NoOpSession) UpdatePlaybackState(state PlaybackState) error {
	return nil
}

func (s *NoOpSession) SetCommandHandler(handler CommandHandler) {
}

func (s *NoOpSession) Close() error {
	return nil
}
