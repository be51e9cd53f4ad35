package model

import "context"

// Preference keys persisted by the store.
const (
	KeyBlockEnabled           = "isOn"
	KeyEmail                  = "email"
	KeyPassword               = "password"
	KeyNotificationPermission = "isNotificationOn"
	KeyDeviceAdmin            = "isAdmin"
	KeyAccessibilityEnabled   = "isAccessibilityOn"
	KeyAccessibilityRunning   = "isAccessibilityRunning"
)

// Preference is a snapshot of a single key.
type Preference struct {
	Value   string
	Present bool
}

// PreferenceBackend persists preference values.
type PreferenceBackend interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, name, value string) error
}

// PreferenceStore is a key/value store whose keys can be observed.
type PreferenceStore interface {
	Get(name string) (string, bool)
	Set(ctx context.Context, name, value string) error
	Watch(ctx context.Context, name string) <-chan Preference
}
