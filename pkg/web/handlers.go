package web

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-nain/pkg/intent"
	"github.com/teslashibe/go-nain/pkg/location"
	"github.com/teslashibe/go-nain/pkg/navigation"
	"github.com/teslashibe/go-nain/pkg/protocol"
	"github.com/teslashibe/go-nain/pkg/route"
	"github.com/teslashibe/go-nain/pkg/routing"
)

const (
	healthCheckTimeout = 3 * time.Second
	commandTimeout     = 60 * time.Second
)

// NavigateRequest starts a session.
type NavigateRequest struct {
	Destination string `json:"destination"`
	Utterance   string `json:"utterance,omitempty"`
}

// StepRequest changes the step manually.
type StepRequest struct {
	Direction string `json:"direction"` // next or previous
}

// CommandRequest is a typed or client-recognized utterance.
type CommandRequest struct {
	Text string `json:"text"`
}

// CommandResponse reports what a voice or text command did.
type CommandResponse struct {
	Transcript string `json:"transcript"`
	Effect     string `json:"effect"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":   "ok",
		"version":  s.cfg.Version,
		"uptime_s": int(time.Since(s.started).Seconds()),
	}
	if s.cfg.Hub != nil {
		resp["clients"] = s.cfg.Hub.ClientCount()
	}
	return c.JSON(resp)
}

// handleServices probes every collaborator and reports which are reachable.
func (s *Server) handleServices(c *fiber.Ctx) error {
	out := make(map[string]string, len(s.cfg.Checks))
	for _, hc := range s.cfg.Checks {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		err := hc.Check(ctx)
		cancel()
		if err != nil {
			out[hc.Name] = err.Error()
		} else {
			out[hc.Name] = "ok"
		}
	}
	return c.JSON(out)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	snap := s.cfg.Coordinator.Snapshot()
	navigating := 0
	if snap.State == navigation.Navigating.String() {
		navigating = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# HELP nain_navigating Whether a navigation session is active\n")
	fmt.Fprintf(&b, "# TYPE nain_navigating gauge\nnain_navigating %d\n\n", navigating)
	fmt.Fprintf(&b, "# HELP nain_beep_interval_ms Current proximity beep interval\n")
	fmt.Fprintf(&b, "# TYPE nain_beep_interval_ms gauge\nnain_beep_interval_ms %d\n", snap.BeepIntervalMs)
	if s.cfg.Frames != nil {
		fmt.Fprintf(&b, "\n# HELP nain_frames_received Total camera frames received\n")
		fmt.Fprintf(&b, "# TYPE nain_frames_received counter\nnain_frames_received %d\n", s.cfg.Frames.Count())
	}
	if s.cfg.Hub != nil {
		st := s.cfg.Hub.Stats()
		fmt.Fprintf(&b, "\n# HELP nain_clients Connected event clients\n")
		fmt.Fprintf(&b, "# TYPE nain_clients gauge\nnain_clients %d\n", st.Clients)
		fmt.Fprintf(&b, "\n# HELP nain_events_sent Total events delivered\n")
		fmt.Fprintf(&b, "# TYPE nain_events_sent counter\nnain_events_sent %d\n", st.Sent)
	}
	return c.SendString(b.String())
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.cfg.Coordinator.Snapshot())
}

func (s *Server) handleLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

func (s *Server) handleJournal(c *fiber.Ctx) error {
	if s.cfg.Journal == nil {
		return c.JSON([]any{})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	entries, err := s.cfg.Journal.Recent(c.UserContext(), limit)
	if err != nil {
		s.logger.Warn("journal read failed", "error", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "journal unavailable")
	}
	return c.JSON(entries)
}

func (s *Server) handleLocation(c *fiber.Ctx) error {
	var req protocol.LocationData
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid location body")
	}
	if err := s.applyLocation(req, time.Now()); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// applyLocation pushes a fix, or a geolocation failure, into the feed.
func (s *Server) applyLocation(d protocol.LocationData, at time.Time) error {
	sample, err := location.FromData(d, at)
	switch {
	case err == nil:
		s.cfg.Location.Put(sample)
		return nil
	case errors.Is(err, location.ErrPermissionDenied), errors.Is(err, location.ErrUnavailable), errors.Is(err, location.ErrTimeout):
		s.cfg.Location.Fail(err)
		return nil
	default:
		return err
	}
}

// handleFrame accepts a multipart "image" upload or a JSON frame message.
func (s *Server) handleFrame(c *fiber.Ctx) error {
	var jpeg []byte
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable image")
		}
		defer f.Close()
		if jpeg, err = io.ReadAll(f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable image")
		}
	} else {
		var req protocol.FrameData
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected image upload or frame JSON")
		}
		if jpeg, err = decodeFrame(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if len(jpeg) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty frame")
	}

	s.cfg.Frames.Put(jpeg)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"frames": s.cfg.Frames.Count()})
}

func decodeFrame(f protocol.FrameData) ([]byte, error) {
	data := f.Data
	if i := strings.Index(data, ","); strings.HasPrefix(data, "data:") && i >= 0 {
		data = data[i+1:]
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid frame data: %w", err)
	}
	return b, nil
}

func (s *Server) handleNavigate(c *fiber.Ctx) error {
	var req NavigateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid navigate body")
	}

	err := s.cfg.Coordinator.StartNavigation(c.UserContext(), req.Destination, req.Utterance)
	if err != nil {
		s.AddLog("warn", "navigation not started: "+err.Error())
		return fiber.NewError(navigateStatus(err), err.Error())
	}
	s.AddLog("info", "navigating to "+req.Destination)
	return c.JSON(s.cfg.Coordinator.Snapshot())
}

func navigateStatus(err error) int {
	switch {
	case errors.Is(err, routing.ErrDestination):
		return fiber.StatusBadRequest
	case errors.Is(err, navigation.ErrNoLocation):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, routing.ErrNotFound), errors.Is(err, routing.ErrNoRoute):
		return fiber.StatusNotFound
	case errors.Is(err, navigation.ErrSuperseded):
		return fiber.StatusConflict
	default:
		return fiber.StatusBadGateway
	}
}

func (s *Server) handleEnd(c *fiber.Ctx) error {
	ended := s.cfg.Coordinator.EndNavigation()
	if ended {
		s.AddLog("info", "navigation ended")
	}
	return c.JSON(fiber.Map{"ended": ended})
}

func (s *Server) handleStep(c *fiber.Ctx) error {
	var req StepRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid step body")
	}

	var dir route.Direction
	switch strings.ToLower(req.Direction) {
	case "next", "":
		dir = route.Next
	case "previous", "prev", "back":
		dir = route.Previous
	default:
		return fiber.NewError(fiber.StatusBadRequest, "direction must be next or previous")
	}

	changed := s.cfg.Coordinator.Advance(c.UserContext(), dir)
	return c.JSON(fiber.Map{
		"changed": changed,
		"state":   s.cfg.Coordinator.Snapshot(),
	})
}

// handleVoice transcribes a multipart "audio" recording and acts on it.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	if s.cfg.Transcriber == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "speech transcription is not configured")
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "no audio file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable audio")
	}
	audio, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable audio")
	}

	text, err := s.cfg.Transcriber.Transcribe(c.UserContext(), audio, fh.Filename)
	if err != nil {
		s.logger.Warn("transcription failed", "error", err)
		s.cfg.Speaker.Say(RetryPrompt)
		s.AddLog("warn", "could not transcribe audio")
		return c.JSON(CommandResponse{Effect: intent.EffectSpoke.String(), Text: RetryPrompt, Error: err.Error()})
	}

	return c.JSON(s.command(c.UserContext(), text))
}

func (s *Server) handleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}
	return c.JSON(s.command(c.UserContext(), req.Text))
}

func (s *Server) command(ctx context.Context, text string) CommandResponse {
	text = strings.TrimSpace(text)
	s.AddLog("heard", text)

	out := s.cfg.Dispatcher.Handle(ctx, s.cfg.Recognizer, text)
	resp := CommandResponse{Transcript: text, Effect: out.Effect.String(), Text: out.Text}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	s.logger.Info("command handled", "text", text, "effect", out.Effect)
	return resp
}

func (s *Server) handleGuidanceCheck(c *fiber.Ctx) error {
	spoken := s.cfg.Coordinator.CheckGuidance(c.UserContext())
	return c.JSON(fiber.Map{"spoken": spoken})
}

// handleClientMessage handles messages arriving on the event websocket.
func (s *Server) handleClientMessage(clientID string, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeLocation:
		ld, err := msg.GetLocationData()
		if err != nil {
			s.logger.Debug("bad location message", "client", clientID, "error", err)
			return
		}
		at := time.Now()
		if msg.Timestamp > 0 {
			at = time.UnixMilli(msg.Timestamp)
		}
		if err := s.applyLocation(*ld, at); err != nil {
			s.logger.Debug("location rejected", "client", clientID, "error", err)
		}

	case protocol.TypeFrame:
		fd, err := msg.GetFrameData()
		if err != nil {
			s.logger.Debug("bad frame message", "client", clientID, "error", err)
			return
		}
		jpeg, err := decodeFrame(*fd)
		if err != nil || len(jpeg) == 0 {
			s.logger.Debug("frame rejected", "client", clientID, "error", err)
			return
		}
		s.cfg.Frames.Put(jpeg)

	case protocol.TypeTranscript:
		var td protocol.TranscriptData
		if err := msg.ParseData(&td); err != nil || strings.TrimSpace(td.Text) == "" {
			return
		}
		// Commands may start a session; run them off the read loop.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			s.command(ctx, td.Text)
		}()

	default:
		s.logger.Debug("ignoring client message", "client", clientID, "type", msg.Type)
	}
}
