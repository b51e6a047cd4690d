package elastic_search

import (
	"fmt"

	"github.com/ZilDuck/nft-marketplace-engine/internal/config"
)

type Indices string

var (
	ListingIndex Indices = "listing"
	OfferIndex   Indices = "offer"
	AuctionIndex Indices = "auction"
	RoyaltyIndex Indices = "royalty"
	ActionIndex  Indices = "marketplaceaction"
	ErrorIndex   Indices = "error"
)

// Sets the network and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(*i))
}
