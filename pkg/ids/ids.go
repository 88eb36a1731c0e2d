// pkg/ids/ids.go
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const ipnRefPrefix = "IPN"

// Generator mints gateway references for stored notifications. ULIDs keep
// refs sortable by receipt time, which reconciliation queries rely on.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewIPNRef returns a new gateway reference like IPN01J8ZD3WG3....
func (g *Generator) NewIPNRef() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), g.entropy)
	return ipnRefPrefix + id.String()
}
