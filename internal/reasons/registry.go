// Package reasons loads and normalizes the community's configured removal
// reasons and resolves rule keys against them.
package reasons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"modbot/internal/model"
)

// GenericKey is the rule key every registry must contain. Unknown rule
// keys resolve to this entry.
const GenericKey = "generic"

// ErrMissingGeneric indicates the platform has no removal reason whose
// title normalizes to "generic". Surfaced at startup, never at triage time.
var ErrMissingGeneric = errors.New("no generic removal reason configured")

var nonAlpha = regexp.MustCompile(`[^a-zA-Z]`)

// NormalizeKey derives a rule key from a reason title: every character
// outside [A-Za-z] is stripped and the rest lowercased.
func NormalizeKey(title string) string {
	return strings.ToLower(nonAlpha.ReplaceAllString(title, ""))
}

// Lister fetches the configured removal reasons from the platform.
type Lister interface {
	RemovalReasons(ctx context.Context) ([]model.RemovalReason, error)
}

// Registry maps normalized rule keys to removal reasons. Immutable between
// loads; replaced wholesale on refresh.
type Registry struct {
	entries map[string]model.RemovalReason
	log     *slog.Logger
}

// Load fetches removal reasons and builds a registry keyed by normalized
// title. On key collision the later entry silently overwrites the earlier
// one (a debug line is logged per overwrite).
func Load(ctx context.Context, lister Lister, log *slog.Logger) (*Registry, error) {
	listed, err := lister.RemovalReasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch removal reasons: %w", err)
	}

	entries := make(map[string]model.RemovalReason, len(listed))
	for _, reason := range listed {
		key := NormalizeKey(reason.Title)
		if prev, ok := entries[key]; ok {
			log.Debug("removal reason key collision", "key", key, "shadowed", prev.Title, "kept", reason.Title)
		}
		entries[key] = reason
	}
	return &Registry{entries: entries, log: log}, nil
}

// Validate checks the startup invariant that a generic entry exists.
func (r *Registry) Validate() error {
	if _, ok := r.entries[GenericKey]; !ok {
		return ErrMissingGeneric
	}
	return nil
}

// Lookup returns the entry for key, if present.
func (r *Registry) Lookup(key string) (model.RemovalReason, bool) {
	reason, ok := r.entries[key]
	return reason, ok
}

// Resolve returns the entry for key, falling back to the generic entry on
// unknown keys. The returned key is the one actually used.
func (r *Registry) Resolve(key string) (string, model.RemovalReason) {
	if reason, ok := r.entries[key]; ok {
		return key, reason
	}
	r.log.Warn("unknown rule key, using generic", "key", key)
	return GenericKey, r.entries[GenericKey]
}

// Len returns the number of loaded reasons.
func (r *Registry) Len() int {
	return len(r.entries)
}
