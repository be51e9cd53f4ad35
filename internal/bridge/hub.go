package bridge

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/permission"
)

var (
	// ErrNotAttached is returned when a command is sent while no shim is
	// attached.
	ErrNotAttached = errors.New("platform shim is not attached")
	// ErrReplaced ends a session when another shim attaches.
	ErrReplaced = errors.New("session replaced by a new attach")
)

// Stream is the transport of a single shim session.
type Stream interface {
	Context() context.Context
	Send(*structpb.Struct) error
	Recv() (*structpb.Struct, error)
}

// EventHandler consumes foreground UI events.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev model.UIEvent)
}

// Lifecycle is told when the shim attaches and detaches.
type Lifecycle interface {
	Connected(ctx context.Context)
	Disconnected(ctx context.Context)
}

// PermissionHandler receives the permission answers of the user.
type PermissionHandler interface {
	Resume(ctx context.Context)
	ApproveAccessibility(ctx context.Context) error
	DenyAccessibility() error
	OnNotificationResult(ctx context.Context, granted bool)
	OnDeviceAdminResult(ctx context.Context, granted bool)
	CancelPending()
}

type session struct {
	id     uuid.UUID
	stream Stream
	done   chan struct{}

	sendMu sync.Mutex
}

func (s *session) send(msg *structpb.Struct) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.stream.Send(msg)
}

// Hub holds the single attached shim session and exposes the platform to
// the rest of the daemon.
type Hub struct {
	logger *logger.Logger

	events      EventHandler
	lifecycle   Lifecycle
	permissions PermissionHandler

	mu             sync.Mutex
	current        *session
	state          PlatformState
	known          bool
	notificationOn bool
	prompt         permission.Prompt
	observers      map[int]func()
	nextObserver   int
}

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		logger:    logger,
		observers: make(map[int]func()),
	}
}

// Bind sets the consumers of upstream messages. It must be called before
// the first Serve.
func (h *Hub) Bind(events EventHandler, lifecycle Lifecycle, permissions PermissionHandler) {
	h.events = events
	h.lifecycle = lifecycle
	h.permissions = permissions
}

// Attached reports whether a shim is connected.
func (h *Hub) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

// Serve runs a shim session until the stream ends or another shim
// attaches.
func (h *Hub) Serve(stream Stream) error {
	ctx := stream.Context()
	s := &session{
		id:     uuid.New(),
		stream: stream,
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if prev := h.current; prev != nil {
		close(prev.done)
		h.logger.Info("Bridge: replacing session", "old", prev.id.String(), "new", s.id.String())
	}
	h.current = s
	h.known = false
	notificationOn := h.notificationOn
	prompt := h.prompt
	h.mu.Unlock()

	h.logger.Info("Bridge: shim attached", "session", s.id.String())
	if h.lifecycle != nil {
		h.lifecycle.Connected(ctx)
	}

	if notificationOn {
		h.trySend(s, CommandStartNotification, nil)
	}
	if prompt != permission.PromptNone {
		h.trySend(s, CommandShowPrompt, map[string]interface{}{"prompt": prompt.String()})
	}

	recvErr := make(chan error, 1)
	go func() {
		for {
			msg, err := stream.Recv()
			if err != nil {
				recvErr <- err
				return
			}
			h.dispatch(ctx, msg)
		}
	}()

	var err error
	select {
	case <-s.done:
		err = ErrReplaced
	case err = <-recvErr:
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}

	h.mu.Lock()
	last := h.current == s
	if last {
		h.current = nil
		h.known = false
	}
	h.mu.Unlock()

	if last && h.lifecycle != nil {
		h.lifecycle.Disconnected(context.WithoutCancel(ctx))
	}
	// an unanswered permission request left with the shim
	if last && h.permissions != nil {
		h.permissions.CancelPending()
	}
	h.logger.Info("Bridge: shim detached", "session", s.id.String())

	return err
}

func (h *Hub) dispatch(ctx context.Context, msg *structpb.Struct) {
	up, err := Decode(msg)
	if err != nil {
		h.logger.Warn("Bridge: dropping message", "error", err.Error())
		return
	}

	switch up.Type {
	case TypeUIEvent:
		if h.events != nil {
			h.events.HandleEvent(ctx, up.Event)
		}
	case TypePlatformState:
		h.updateState(up.State)
	case TypeResume:
		if h.permissions != nil {
			h.permissions.Resume(ctx)
		}
	case TypePromptResponse:
		h.answerPrompt(ctx, up.Granted)
	case TypeNotificationPermissionDone:
		if h.permissions != nil {
			h.permissions.OnNotificationResult(ctx, up.Granted)
		}
	case TypeDeviceAdminDone:
		if h.permissions != nil {
			h.permissions.OnDeviceAdminResult(ctx, up.Granted)
		}
	}
}

func (h *Hub) updateState(state PlatformState) {
	h.mu.Lock()
	changed := !h.known || h.state.AccessibilityEnabled != state.AccessibilityEnabled
	h.state = state
	h.known = true
	var observers []func()
	if changed {
		for _, fn := range h.observers {
			observers = append(observers, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

func (h *Hub) answerPrompt(ctx context.Context, approved bool) {
	if h.permissions == nil {
		return
	}

	if approved {
		if err := h.permissions.ApproveAccessibility(ctx); err != nil {
			h.logger.Error("Bridge: failed to open accessibility settings", "error", err.Error())
		}
		return
	}

	if err := h.permissions.DenyAccessibility(); errors.Is(err, permission.ErrAccessibilityDenied) {
		if err := h.send(ctx, CommandFinish, nil); err != nil {
			h.logger.Warn("Bridge: failed to finish ui", "error", err.Error())
		}
	}
}

// FollowPrompts mirrors the permission step onto the shim until steps is
// closed. The last prompt is replayed on every attach.
func (h *Hub) FollowPrompts(ctx context.Context, steps <-chan permission.Step) {
	for step := range steps {
		prompt := step.Prompt()

		h.mu.Lock()
		h.prompt = prompt
		h.mu.Unlock()

		if prompt == permission.PromptNone {
			continue
		}
		if err := h.send(ctx, CommandShowPrompt, map[string]interface{}{"prompt": prompt.String()}); err != nil {
			h.logger.Debug("Bridge: prompt not delivered", "prompt", prompt.String(), "error", err.Error())
		}
	}
}

func (h *Hub) send(_ context.Context, cmd CommandType, fields map[string]interface{}) error {
	h.mu.Lock()
	s := h.current
	h.mu.Unlock()

	if s == nil {
		return ErrNotAttached
	}

	msg, err := Encode(cmd, fields)
	if err != nil {
		return err
	}
	return s.send(msg)
}

func (h *Hub) trySend(s *session, cmd CommandType, fields map[string]interface{}) {
	msg, err := Encode(cmd, fields)
	if err == nil {
		err = s.send(msg)
	}
	if err != nil {
		h.logger.Warn("Bridge: failed to replay command", "command", string(cmd), "error", err.Error())
	}
}
