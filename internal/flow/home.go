package flow

import (
	"context"

	"github.com/dtroode/appblock/internal/logger"
)

// HomeState is what the home screen renders.
type HomeState struct {
	SwitchOn            bool
	ShowSetPassword     bool
	ShowConfirmPassword bool
}

// Home mirrors the block switch and decides which password dialog a
// toggle opens. Turning blocking on requires a new password, turning it
// off requires the current one.
type Home struct {
	blockState BlockStateService
	state      *stateHolder[HomeState]
	events     *eventQueue
	logger     *logger.Logger
}

func NewHome(blockState BlockStateService, logger *logger.Logger) *Home {
	return &Home{
		blockState: blockState,
		state:      newStateHolder(HomeState{}),
		events:     newEventQueue("Home", logger),
		logger:     logger,
	}
}

// Start mirrors the stored switch value until ctx is done.
func (h *Home) Start(ctx context.Context) {
	states := h.blockState.Watch(ctx)
	go func() {
		for on := range states {
			h.state.update(func(s HomeState) HomeState {
				s.SwitchOn = on
				return s
			})
		}
	}()
}

func (h *Home) State() HomeState {
	return h.state.get()
}

func (h *Home) Watch(ctx context.Context) <-chan HomeState {
	return h.state.watch(ctx)
}

func (h *Home) Events() <-chan Event {
	return h.events.ch
}

// RequestToggle opens the dialog guarding the requested transition.
func (h *Home) RequestToggle(on bool) {
	h.state.update(func(s HomeState) HomeState {
		if on {
			s.ShowSetPassword = true
		} else {
			s.ShowConfirmPassword = true
		}
		return s
	})
}

func (h *Home) DismissSetPassword() {
	h.state.update(func(s HomeState) HomeState {
		s.ShowSetPassword = false
		return s
	})
}

func (h *Home) DismissConfirmPassword() {
	h.state.update(func(s HomeState) HomeState {
		s.ShowConfirmPassword = false
		return s
	})
}

func (h *Home) TurnOn(ctx context.Context) error {
	return h.setBlockState(ctx, true)
}

func (h *Home) TurnOff(ctx context.Context) error {
	return h.setBlockState(ctx, false)
}

func (h *Home) setBlockState(ctx context.Context, on bool) error {
	if err := h.blockState.Set(ctx, on); err != nil {
		h.events.toast(err)
		return err
	}

	h.events.emit(Event{Kind: EventBlockStateChanged})
	return nil
}
