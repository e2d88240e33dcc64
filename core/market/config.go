package market

// Config controls the simulated market.
type Config struct {
	Seed int64 `json:"seed"`
	// EmptyBook starts the bid book without the sample bids.
	EmptyBook bool `json:"empty_book"`
}

// InitialBids returns the bids a new book starts with.
func (c Config) InitialBids() []Bid {
	if c.EmptyBook {
		return nil
	}
	return SampleBids()
}
