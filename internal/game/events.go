package game

import (
	"time"

	"github.com/lox/pokeropoly/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeMoved           EventType = "moved"
	EventTypeLanded          EventType = "landed"
	EventTypeWildCardGained  EventType = "wildcard_gained"
	EventTypeWildCardExpired EventType = "wildcard_expired"
	EventTypeCardBought      EventType = "card_bought"
	EventTypePenaltyPaid     EventType = "penalty_paid"
	EventTypeTurnEnded       EventType = "turn_ended"
	EventTypeAuctionStarted  EventType = "auction_started"
	EventTypeBidPlaced       EventType = "bid_placed"
	EventTypeAuctionEnded    EventType = "auction_ended"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent is anything the engine reports to its subscribers. Events are
// the projection a display layer renders from; they never feed back into
// engine state.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

type stamp struct {
	at time.Time
}

func (s stamp) Timestamp() time.Time { return s.at }

// MovedEvent is published for every space a moving player advances.
type MovedEvent struct {
	stamp
	PlayerIndex int
	Position    int
	Step        int
	Total       int
}

func (MovedEvent) EventType() EventType { return EventTypeMoved }

// LandedEvent is published once a move finishes.
type LandedEvent struct {
	stamp
	Landing
}

func (LandedEvent) EventType() EventType { return EventTypeLanded }

// WildCardGainedEvent is published when a mystery space grants a wildcard.
type WildCardGainedEvent struct {
	stamp
	PlayerIndex int
	WildCard    WildCard
}

func (WildCardGainedEvent) EventType() EventType { return EventTypeWildCardGained }

// WildCardExpiredEvent is published when a wildcard completes its lap.
type WildCardExpiredEvent struct {
	stamp
	PlayerIndex int
	WildCard    WildCard
}

func (WildCardExpiredEvent) EventType() EventType { return EventTypeWildCardExpired }

// CardBoughtEvent is published when a purchase is applied.
type CardBoughtEvent struct {
	stamp
	PlayerIndex int
	Position    int
	Card        deck.Card
	Price       int
	ChipsAfter  int
}

func (CardBoughtEvent) EventType() EventType { return EventTypeCardBought }

// PenaltyPaidEvent is published when a penalty payment is applied. Paid can
// be lower than Amount when the payer ran out of chips.
type PenaltyPaidEvent struct {
	stamp
	PayerIndex    int
	ReceiverIndex int
	Amount        int
	Paid          int
}

func (PenaltyPaidEvent) EventType() EventType { return EventTypePenaltyPaid }

// TurnEndedEvent is published whenever the turn pointer moves.
type TurnEndedEvent struct {
	stamp
	From       int
	To         int
	TurnNumber int
}

func (TurnEndedEvent) EventType() EventType { return EventTypeTurnEnded }

// AuctionStartedEvent is published when bidding opens.
type AuctionStartedEvent struct {
	stamp
	InitiatorIndex int
	Card           deck.Card
	Position       int
}

func (AuctionStartedEvent) EventType() EventType { return EventTypeAuctionStarted }

// BidPlacedEvent is published for every accepted bid.
type BidPlacedEvent struct {
	stamp
	BidderIndex int
	Amount      int
}

func (BidPlacedEvent) EventType() EventType { return EventTypeBidPlaced }

// AuctionEndedEvent is published when the initiator's result is applied.
type AuctionEndedEvent struct {
	stamp
	WinnerIndex int
	WinningBid  int
	Card        deck.Card
	Position    int
}

func (AuctionEndedEvent) EventType() EventType { return EventTypeAuctionEnded }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a synchronous in-memory bus. It is not safe for
// concurrent use; a Session only touches it from its loop.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
