package service

import (
	"context"

	"github.com/dtroode/appblock/internal/model"
)

// watchPreference projects a preference stream. The result is conflating
// and closes together with the store subscription.
func watchPreference[T any](ctx context.Context, store model.PreferenceStore, name string, project func(model.Preference) T) <-chan T {
	in := store.Watch(ctx, name)
	out := make(chan T, 1)

	go func() {
		defer close(out)
		for pref := range in {
			value := project(pref)
			select {
			case out <- value:
			default:
				select {
				case <-out:
				default:
				}
				out <- value
			}
		}
	}()

	return out
}

func isTrue(pref model.Preference) bool {
	return pref.Present && pref.Value == "true"
}

func isPresent(pref model.Preference) bool {
	return pref.Present
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
