package persist

import (
	"context"

	"github.com/dmitrijs2005/docdesk/internal/client/storage"
	"github.com/dmitrijs2005/docdesk/internal/common"
	"github.com/dmitrijs2005/docdesk/internal/logging"
)

// Persistor binds a Transform to the persist:root storage key.
type Persistor struct {
	storage   storage.Storage
	transform *Transform
	log       logging.Logger
}

func NewPersistor(st storage.Storage, transform *Transform, log logging.Logger) *Persistor {
	return &Persistor{storage: st, transform: transform, log: log.With("component", "persistor")}
}

// Rehydrate returns the stored snapshot. found is false when nothing was
// stored; a stored but unreadable blob is found and decodes to Baseline.
func (p *Persistor) Rehydrate(ctx context.Context) (snap Snapshot, found bool) {
	stored, ok, err := p.storage.Get(ctx, common.StorageKeyPersistRoot)
	if err != nil {
		p.log.Error(ctx, "read persisted state", "error", err)
		return Baseline(), false
	}
	if !ok {
		return Baseline(), false
	}
	return p.transform.Outbound(stored), true
}

// Save writes s. A baseline snapshot purges instead, so a logged-out client
// leaves no persisted session behind.
func (p *Persistor) Save(ctx context.Context, s Snapshot) {
	if s.IsBaseline() {
		p.Purge(ctx)
		return
	}
	blob := p.transform.Inbound(s)
	if blob == "" {
		return
	}
	if err := p.storage.Set(ctx, common.StorageKeyPersistRoot, blob); err != nil {
		p.log.Error(ctx, "write persisted state", "error", err)
	}
}

// Purge removes every persisted session key.
func (p *Persistor) Purge(ctx context.Context) {
	err := p.storage.Delete(ctx, common.StorageKeyPersistRoot, common.StorageKeyPersistAuth)
	if err != nil {
		p.log.Error(ctx, "purge persisted state", "error", err)
	}
}
