package entity

// Params is the admin-mutable marketplace configuration. Operations read it
// by value at the start of execution so an admin change can never affect an
// in-flight settlement.
type Params struct {
	MarketplaceFeeBps      uint64 `json:"marketplaceFeeBps"`
	ListingFee             uint64 `json:"listingFee"`
	PlatformFeeBps         uint64 `json:"platformFeeBps"`
	MaxTotalRoyaltyBps     uint64 `json:"maxTotalRoyaltyBps"`
	DefaultAuctionDuration int64  `json:"defaultAuctionDuration"`
	DefaultOfferDuration   int64  `json:"defaultOfferDuration"`
	FeeRecipient           string `json:"feeRecipient"`
	PlatformRecipient      string `json:"platformRecipient"`
	Admin                  string `json:"admin"`
}

func (p Params) Slug() string {
	return "marketplace-params"
}
