// Package events defines the durable audit events the registry surfaces to
// external consumers (indexers, UIs) and the publisher port used to emit
// them. Payload field order and presence are part of the compatibility
// contract; do not reorder.
package events

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"

	id "namedeed/pkg/domain"
)

// Type discriminates event payloads.
type Type string

const (
	TypeNameRegistered Type = "name.registered"
	TypePriceChanged   Type = "price.changed"
	TypeWithdrawal     Type = "withdrawal"
)

// NameRegistered records a successful root or child purchase. Name is the
// fully-qualified dotted key.
type NameRegistered struct {
	Name  string     `json:"name"`
	Owner id.Account `json:"owner"`
}

// PriceChanged records an administrator price update, in stablecoin
// smallest units.
type PriceChanged struct {
	NewPrice uint64 `json:"newPrice"`
}

// Withdrawal records an outbound payout, either an escrow claim by a name
// owner or an operator withdrawal by the administrator.
type Withdrawal struct {
	Account id.Account `json:"account"`
	Amount  *big.Int   `json:"amount"`
}

// Event is the envelope written to the event bus.
type Event struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// New stamps an envelope around a payload.
func New(eventType Type, at time.Time, payload any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		At:      at,
		Payload: payload,
	}
}

// Publisher is the port services emit through. Publish failures must never
// roll back ledger state; callers log and continue.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
