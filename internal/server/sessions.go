package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keagan/clipdeck/internal/processor"
	"github.com/keagan/clipdeck/internal/timeline"
)

// session is one server-side editing engine bound to a clip
type session struct {
	ID        string
	ClipID    string
	CreatedAt time.Time
	engine    *timeline.Locked

	// pending is the job created by the event being applied; guarded by the engine lock
	pending *processor.Job
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) add(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *sessionRegistry) get(id string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return s, nil
}

func (r *sessionRegistry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

// removeClip drops every session editing clipID
func (r *sessionRegistry) removeClip(clipID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.ClipID == clipID {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

type sessionResponse struct {
	ID       string            `json:"id"`
	ClipID   string            `json:"clip_id"`
	Snapshot timeline.Snapshot `json:"snapshot"`
	Job      *processor.Job    `json:"job,omitempty"`
	Range    *timeline.Range   `json:"range,omitempty"`
	SplitAt  *float64          `json:"split_at,omitempty"`
}

func (s *Server) createSession(c echo.Context) error {
	var body struct {
		ClipID string `json:"clip_id"`
	}
	if err := c.Bind(&body); err != nil || body.ClipID == "" {
		return fmt.Errorf("%w: clip_id is required", errBadRequest)
	}

	clip, err := s.deps.Store.Get(c.Request().Context(), body.ClipID)
	if err != nil {
		return err
	}

	sess := &session{
		ID:        newID(),
		ClipID:    clip.ID,
		CreatedAt: time.Now().UTC(),
	}
	ctrl := timeline.New(s.logger.With().Str("session", sess.ID).Logger(), timeline.Options{
		MinWidth:   s.cfg.Timeline.MinRangeWidth,
		TrimWindow: s.cfg.Timeline.TrimWindow,
	})
	ctrl.SetSink(s.deps.Processor.Sink(s.ctx, func(job *processor.Job) {
		sess.pending = job
		go s.watchJob(sess, job.ID)
	}))
	ctrl.LoadAsset(clip.ID, clip.Duration)
	sess.engine = timeline.NewLocked(ctrl)
	s.sessions.add(sess)

	s.logger.Info().Str("session", sess.ID).Str("clip", clip.ID).Msg("session created")
	return c.JSON(http.StatusCreated, sessionResponse{ID: sess.ID, ClipID: sess.ClipID, Snapshot: sess.engine.Snapshot()})
}

// watchJob reports a failed job back to the session's engine
func (s *Server) watchJob(sess *session, jobID string) {
	job, err := s.deps.Processor.Wait(s.ctx, jobID)
	if err != nil || job.Status != processor.StatusFailed {
		return
	}
	_ = sess.engine.Do(func(c *timeline.Controller) error {
		c.OnProcessingFailed(job.Error)
		return nil
	})
}

func (s *Server) getSession(c echo.Context) error {
	sess, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{ID: sess.ID, ClipID: sess.ClipID, Snapshot: sess.engine.Snapshot()})
}

func (s *Server) deleteSession(c echo.Context) error {
	if err := s.sessions.remove(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// sessionEvent is one user or media event fed to a session's engine
type sessionEvent struct {
	Type   string   `json:"type"`
	T      *float64 `json:"t"`
	Start  *float64 `json:"start"`
	End    *float64 `json:"end"`
	Edge   string   `json:"edge"`
	Delta  *float64 `json:"delta"`
	Reason string   `json:"reason"`
}

func need(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %q is required", errBadRequest, name)
	}
	return *v, nil
}

func (s *Server) sessionEvent(c echo.Context) error {
	sess, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return err
	}

	var ev sessionEvent
	if err := c.Bind(&ev); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	resp := sessionResponse{ID: sess.ID, ClipID: sess.ClipID}
	err = sess.engine.Do(func(ctrl *timeline.Controller) error {
		sess.pending = nil
		err := applyEvent(ctrl, ev, &resp)
		resp.Job = sess.pending
		sess.pending = nil
		resp.Snapshot = ctrl.Snapshot()
		return err
	})
	if err != nil {
		// a rejected event can still move the engine, e.g. a too-narrow
		// second click drops the selection
		return c.JSON(statusFor(err), eventError{Error: err.Error(), Snapshot: resp.Snapshot})
	}
	return c.JSON(http.StatusOK, resp)
}

// eventError is the body of a rejected session event
type eventError struct {
	Error    string            `json:"error"`
	Snapshot timeline.Snapshot `json:"snapshot"`
}

func applyEvent(ctrl *timeline.Controller, ev sessionEvent, resp *sessionResponse) error {
	switch ev.Type {
	case "duration":
		d, err := need("t", ev.T)
		if err != nil {
			return err
		}
		return ctrl.OnDurationReported(d)
	case "seek", "click":
		t, err := need("t", ev.T)
		if err != nil {
			return err
		}
		if ev.Type == "seek" {
			return ctrl.Seek(t)
		}
		return ctrl.OnTimelineClick(t)
	case "delete_mode":
		return ctrl.BeginDeleteSelection()
	case "extract_mode":
		return ctrl.BeginExtractSelection()
	case "cancel":
		ctrl.CancelSelection()
		return nil
	case "commit_delete", "commit_extract":
		commit := ctrl.CommitDeleteRange
		if ev.Type == "commit_extract" {
			commit = ctrl.CommitExtractRange
		}
		r, err := commit()
		if err != nil {
			return err
		}
		resp.Range = &r
		return nil
	case "set_trim":
		a, err := need("start", ev.Start)
		if err != nil {
			return err
		}
		b, err := need("end", ev.End)
		if err != nil {
			return err
		}
		return ctrl.SetTrim(a, b)
	case "adjust_trim":
		delta, err := need("delta", ev.Delta)
		if err != nil {
			return err
		}
		var edge timeline.Edge
		switch ev.Edge {
		case "start":
			edge = timeline.EdgeStart
		case "end":
			edge = timeline.EdgeEnd
		default:
			return fmt.Errorf("%w: edge must be \"start\" or \"end\"", errBadRequest)
		}
		return ctrl.AdjustTrim(edge, delta)
	case "apply_trim":
		r, err := ctrl.ApplyTrim()
		if err != nil {
			return err
		}
		resp.Range = &r
		return nil
	case "split_current", "split_midpoint":
		split := ctrl.SplitAtCurrentTime
		if ev.Type == "split_midpoint" {
			split = ctrl.SplitAtMidpoint
		}
		at, err := split()
		if err != nil {
			return err
		}
		resp.SplitAt = &at
		return nil
	case "failed":
		ctrl.OnProcessingFailed(ev.Reason)
		return nil
	default:
		return fmt.Errorf("%w: unknown event type %q", errBadRequest, ev.Type)
	}
}
