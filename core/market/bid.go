// Package market simulates balancing-market bids and hourly price curves.
package market

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/kilianp07/vppsim/core/fluctuate"
	"github.com/kilianp07/vppsim/core/model"
)

// MinQuantityMW is the smallest bid accepted.
const MinQuantityMW = 0.1

// ErrInvalidBid is returned for bids that fail validation.
var ErrInvalidBid = errors.New("invalid bid")

// Direction is the regulation direction offered.
type Direction string

const (
	Upward   Direction = "upward"
	Downward Direction = "downward"
)

// BidStatus is the clearing state of a bid.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
	BidPartial  BidStatus = "partial"
	BidExpired  BidStatus = "expired"
)

// Bid is one offer on the balancing market.
type Bid struct {
	ID        string    `json:"id"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Direction Direction `json:"direction"`
	Status    BidStatus `json:"status"`
	Time      string    `json:"time"`
}

// SampleBids returns the bids shown before any submission.
func SampleBids() []Bid {
	return []Bid{
		{ID: "BID-001", Quantity: 15, Price: 485, Direction: Upward, Status: BidAccepted, Time: "14:15:00"},
		{ID: "BID-002", Quantity: 10, Price: 490, Direction: Upward, Status: BidPending, Time: "14:30:00"},
		{ID: "BID-003", Quantity: 20, Price: 475, Direction: Downward, Status: BidRejected, Time: "13:45:00"},
		{ID: "BID-004", Quantity: 8, Price: 495, Direction: Upward, Status: BidPartial, Time: "12:00:00"},
	}
}

// BidBook holds submitted bids, newest first.
type BidBook struct {
	rand  fluctuate.Rand
	clock clockwork.Clock

	mu   sync.RWMutex
	bids []Bid
}

// NewBidBook creates a book seeded with initial bids.
func NewBidBook(r fluctuate.Rand, clock clockwork.Clock, initial []Bid) *BidBook {
	if r == nil {
		r = fluctuate.NewRand(0)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BidBook{rand: r, clock: clock, bids: append([]Bid(nil), initial...)}
}

// Submit validates and records a pending bid.
func (b *BidBook) Submit(quantity, price float64, dir Direction) (Bid, error) {
	switch {
	case math.IsNaN(quantity) || quantity < MinQuantityMW:
		return Bid{}, fmt.Errorf("%w: quantity must be at least %.1f MW", ErrInvalidBid, MinQuantityMW)
	case math.IsNaN(price) || price < 0:
		return Bid{}, fmt.Errorf("%w: price must not be negative", ErrInvalidBid)
	case dir != Upward && dir != Downward:
		return Bid{}, fmt.Errorf("%w: direction %q", ErrInvalidBid, dir)
	}
	bid := Bid{
		ID:        fmt.Sprintf("BID-%03d", b.rand.Intn(1000)),
		Quantity:  quantity,
		Price:     price,
		Direction: dir,
		Status:    BidPending,
		Time:      b.clock.Now().Local().Format(model.TimeLayout),
	}
	b.mu.Lock()
	b.bids = append([]Bid{bid}, b.bids...)
	b.mu.Unlock()
	return bid, nil
}

// Bids returns a copy of the book, newest first.
func (b *BidBook) Bids() []Bid {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Bid(nil), b.bids...)
}
