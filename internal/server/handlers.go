package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/nui"
	"github.com/jmylchreest/hudtoast/internal/store"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Notifications: len(s.overlay.Snapshot()),
		Clients:       s.hub.Clients(),
	})
}

// message is the host message channel.
func (s *Server) message(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: "failed to read body"})
		return
	}

	result, err := s.dispatcher.Dispatch(c.Request.Context(), data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, ListResponse{
		Visible:       s.overlay.Visible(),
		Notifications: s.overlay.Snapshot(),
	})
}

func (s *Server) clearNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, ClearResponse{Cleared: s.overlay.Clear()})
}

func (s *Server) deleteNotification(c *gin.Context) {
	id := c.Param("id")

	immediate := false
	if v := c.Query("immediate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: "immediate must be a boolean"})
			return
		}
		immediate = b
	}

	var err error
	if immediate {
		err = s.overlay.Remove(id)
	} else {
		err = s.overlay.Dismiss(id)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{ID: id, Immediate: immediate})
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, nui.ErrInvalidMessage), errors.Is(err, nui.ErrMissingAction):
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: err.Error()})
	case errors.Is(err, lifecycle.ErrUnknownNotification):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: CodeNotFound, Message: err.Error()})
	case errors.Is(err, store.ErrStoreClosed), errors.Is(err, lifecycle.ErrManagerClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: CodeInternalError, Message: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: CodeInternalError, Message: "internal error"})
	}
}

// events streams lifecycle and visibility frames.
func (s *Server) events(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		s.logger.Error("streaming unsupported")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: CodeInternalError, Message: "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// Register before the snapshot so nothing between the two is lost.
	client := NewClient(64)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	initial := []struct {
		event   string
		payload any
	}{
		{EventVisibility, VisibilityPayload{Visible: s.overlay.Visible()}},
		{EventSnapshot, s.overlay.Snapshot()},
	}
	for _, f := range initial {
		frame, err := NewFrame(f.event, f.payload)
		if err != nil {
			s.logger.Error("encode initial frame failed", "event", f.event, "error", err)
			return
		}
		if _, err := frame.WriteTo(c.Writer); err != nil {
			return
		}
	}
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeatInterval())
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-s.done:
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				s.logger.Debug("heartbeat write failed", "error", err)
				return
			}
			flusher.Flush()
		case frame, ok := <-client.Ch:
			if !ok {
				return
			}
			if _, err := frame.WriteTo(c.Writer); err != nil {
				s.logger.Debug("write frame failed", "event", frame.Event, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
