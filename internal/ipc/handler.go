package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/remixd/remixd/internal/analysis"
	"github.com/remixd/remixd/internal/audio"
	"github.com/remixd/remixd/internal/remix"
)

// Handler processes one request into one response.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

// Core implements the daemon command set over the decoder, analysis pipeline
// and scheduler.
type Core struct {
	decoder   audio.Decoder
	pipeline  *analysis.Pipeline
	scheduler *remix.Scheduler

	// StateListener, when set, is told about play state changes so outer
	// surfaces (MPRIS) can mirror them.
	StateListener func(playing bool)
}

// NewCore wires the daemon command handler.
func NewCore(decoder audio.Decoder, pipeline *analysis.Pipeline, scheduler *remix.Scheduler) *Core {
	return &Core{
		decoder:   decoder,
		pipeline:  pipeline,
		scheduler: scheduler,
	}
}

// Handle dispatches a request to its command.
func (c *Core) Handle(ctx context.Context, req Request) Response {
	switch req.Command {
	case CmdLoad:
		return c.handleLoad(ctx, req.Data)
	case CmdPlay:
		return c.handlePlay()
	case CmdPause:
		return c.handlePause()
	case CmdStatus:
		return NewSuccessResponse(c.status())
	case CmdSetSettings:
		return c.handleSetSettings(req.Data)
	case CmdGetAnalysis:
		return c.handleGetAnalysis()
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (c *Core) handleLoad(ctx context.Context, data json.RawMessage) Response {
	var params LoadParams
	if err := json.Unmarshal(data, &params); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid load params: %v", err))
	}
	if params.Path == "" {
		return NewErrorResponse("load: path is required")
	}

	buf, err := c.decoder.Decode(ctx, params.Path)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("decode failed: %v", err))
	}

	analysisData, err := c.pipeline.Analyze(buf)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("analysis failed: %v", err))
	}

	sess := remix.NewSession(params.Path, buf, analysisData)
	c.scheduler.Load(sess)
	c.notifyState(false)

	log.Printf("[IPC] loaded %s: session %s", params.Path, sess.ID)
	return NewSuccessResponse(c.status())
}

func (c *Core) handlePlay() Response {
	if err := c.scheduler.Play(); err != nil {
		return NewErrorResponse(err.Error())
	}
	c.notifyState(true)
	return NewSuccessResponse(c.status())
}

func (c *Core) handlePause() Response {
	c.scheduler.Pause()
	c.notifyState(false)
	return NewSuccessResponse(c.status())
}

func (c *Core) handleSetSettings(data json.RawMessage) Response {
	var update remix.SettingsUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid settings: %v", err))
	}
	settings := c.scheduler.Update(update)
	return NewSuccessResponse(settings)
}

func (c *Core) handleGetAnalysis() Response {
	sess := c.scheduler.Session()
	if sess == nil || sess.Data == nil {
		return NewErrorResponse("no track loaded")
	}
	return NewSuccessResponse(sess.Data)
}

func (c *Core) status() Status {
	st := Status{
		Playing:     c.scheduler.Playing(),
		CurrentBeat: c.scheduler.CurrentBeat(),
	}
	settings := c.scheduler.Settings()
	st.BranchChance = settings.BranchChance
	st.SimilarityThreshold = settings.SimilarityThreshold

	if sess := c.scheduler.Session(); sess != nil {
		st.Loaded = true
		st.Path = sess.Path
		st.SessionID = sess.ID.String()
		if sess.Data != nil {
			st.BeatCount = len(sess.Data.Beats)
			st.EdgeCount = len(sess.Data.Edges)
			st.Duration = sess.Data.Duration
		}
	}
	return st
}

func (c *Core) notifyState(playing bool) {
	if c.StateListener != nil {
		c.StateListener(playing)
	}
}
