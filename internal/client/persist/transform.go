// Package persist saves the whitelisted part of the session state, encrypted,
// under a single storage key and restores it at startup.
package persist

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/cryptox"
	"github.com/dmitrijs2005/docdesk/internal/logging"
)

// Version is the schema version written into every persisted blob. A blob
// with any other version restores as Baseline.
const Version = 1

// Snapshot is the whitelisted subset of the session state that survives a
// restart.
type Snapshot struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Baseline is the unauthenticated snapshot.
func Baseline() Snapshot {
	return Snapshot{}
}

// IsBaseline reports whether s carries no session at all.
func (s Snapshot) IsBaseline() bool {
	return s.User == nil && s.Token == "" && !s.IsAuthenticated
}

type meta struct {
	Version int `json:"version"`
}

type envelope struct {
	Snapshot
	Persist *meta `json:"_persist,omitempty"`
}

// Transform converts snapshots to and from their encrypted stored form.
// Neither direction ever returns an error.
type Transform struct {
	codec *cryptox.Codec
	log   logging.Logger
}

func NewTransform(codec *cryptox.Codec, log logging.Logger) *Transform {
	return &Transform{codec: codec, log: log.With("component", "persist")}
}

// Inbound serializes and encrypts s. On failure it falls back to the
// encryption of "{}", and to "" if even that fails.
func (t *Transform) Inbound(s Snapshot) string {
	ctx := context.Background()
	if t.codec == nil {
		return ""
	}
	b, err := json.Marshal(envelope{Snapshot: s, Persist: &meta{Version: Version}})
	if err == nil {
		var out string
		if out, err = t.codec.Encrypt(string(b)); err == nil {
			return out
		}
	}
	t.log.Warn(ctx, "persist encode failed, storing empty state", "error", err)

	out, err := t.codec.Encrypt("{}")
	if err != nil {
		t.log.Error(ctx, "persist encode of empty state failed", "error", err)
		return ""
	}
	return out
}

// Outbound decrypts and parses stored. Anything unreadable, including a blob
// written under another version, yields Baseline.
func (t *Transform) Outbound(stored string) Snapshot {
	if t.codec == nil || stored == "" {
		return Baseline()
	}
	var env envelope
	if err := t.codec.DecryptJSON(stored, &env); err != nil {
		t.log.Warn(context.Background(), "discarding unreadable persisted state", "error", err)
		return Baseline()
	}
	if env.Persist == nil || env.Persist.Version != Version {
		return Baseline()
	}
	return env.Snapshot
}
