package snapshot

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/TimurManjosov/gorules/internal/store"
)

// Snapshot is an immutable, versioned view of every stored rule.
type Snapshot struct {
	ETag      string       `json:"etag"`
	Rules     []store.Rule `json:"rules"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Holder publishes the current Snapshot. Readers never block writers.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// Load returns the current snapshot, or an empty one if none was stored yet.
func (h *Holder) Load() *Snapshot {
	if s := h.current.Load(); s != nil {
		return s
	}
	return Build(nil)
}

// Store replaces the current snapshot.
func (h *Holder) Store(s *Snapshot) {
	h.current.Store(s)
}

// Build creates a snapshot of rules. The ETag is a weak validator over the
// JSON encoding, so it changes whenever any rule string, tree or timestamp does.
func Build(rules []store.Rule) *Snapshot {
	if rules == nil {
		rules = []store.Rule{}
	}
	blob, err := json.Marshal(rules)
	if err != nil {
		// unencodable tree: never reuse a previous tag
		blob = []byte(time.Now().String())
	}
	etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(blob))
	return &Snapshot{ETag: etag, Rules: rules, UpdatedAt: time.Now().UTC()}
}
