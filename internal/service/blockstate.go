package service

import (
	"context"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

// BlockState owns the master blocking switch.
type BlockState struct {
	store  model.PreferenceStore
	logger *logger.Logger
}

func NewBlockState(store model.PreferenceStore, logger *logger.Logger) *BlockState {
	return &BlockState{
		store:  store,
		logger: logger,
	}
}

// Enabled reports the current switch value. Absent means off.
func (s *BlockState) Enabled() bool {
	value, ok := s.store.Get(model.KeyBlockEnabled)
	return isTrue(model.Preference{Value: value, Present: ok})
}

// Watch emits the current switch value and every change.
func (s *BlockState) Watch(ctx context.Context) <-chan bool {
	return watchPreference(ctx, s.store, model.KeyBlockEnabled, isTrue)
}

// Set persists the switch.
func (s *BlockState) Set(ctx context.Context, on bool) error {
	if err := s.store.Set(ctx, model.KeyBlockEnabled, formatBool(on)); err != nil {
		s.logger.Error("Block state service: failed to store block state", "on", on, "error", err.Error())
		return model.NewDataStoreFailure(model.ContextBlockState, err)
	}

	s.logger.Info("Block state service: block state changed", "on", on)
	return nil
}
