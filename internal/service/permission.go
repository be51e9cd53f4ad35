package service

import (
	"context"
	"fmt"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

// Permission persists what is known about the platform permissions.
type Permission struct {
	store  model.PreferenceStore
	logger *logger.Logger
}

func NewPermission(store model.PreferenceStore, logger *logger.Logger) *Permission {
	return &Permission{
		store:  store,
		logger: logger,
	}
}

func (s *Permission) StoreNotification(ctx context.Context, granted bool) error {
	return s.set(ctx, model.KeyNotificationPermission, granted)
}

func (s *Permission) StoreDeviceAdmin(ctx context.Context, granted bool) error {
	return s.set(ctx, model.KeyDeviceAdmin, granted)
}

func (s *Permission) StoreAccessibilityEnabled(ctx context.Context, enabled bool) error {
	return s.set(ctx, model.KeyAccessibilityEnabled, enabled)
}

func (s *Permission) StoreAccessibilityRunning(ctx context.Context, running bool) error {
	return s.set(ctx, model.KeyAccessibilityRunning, running)
}

// WatchNotificationStored emits whether a notification decision was recorded.
func (s *Permission) WatchNotificationStored(ctx context.Context) <-chan bool {
	return watchPreference(ctx, s.store, model.KeyNotificationPermission, isPresent)
}

// WatchDeviceAdminStored emits whether a device admin decision was recorded.
func (s *Permission) WatchDeviceAdminStored(ctx context.Context) <-chan bool {
	return watchPreference(ctx, s.store, model.KeyDeviceAdmin, isPresent)
}

func (s *Permission) WatchAccessibilityEnabled(ctx context.Context) <-chan bool {
	return watchPreference(ctx, s.store, model.KeyAccessibilityEnabled, isTrue)
}

func (s *Permission) WatchAccessibilityRunning(ctx context.Context) <-chan bool {
	return watchPreference(ctx, s.store, model.KeyAccessibilityRunning, isTrue)
}

func (s *Permission) set(ctx context.Context, name string, value bool) error {
	if err := s.store.Set(ctx, name, formatBool(value)); err != nil {
		s.logger.Error("Permission service: failed to store permission", "key", name, "value", value, "error", err.Error())
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	return nil
}
