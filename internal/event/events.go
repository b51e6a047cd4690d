package event

type Type string

const (
	ListingCreatedEvent   Type = "ListingCreatedEvent"
	ListingFulfilledEvent Type = "ListingFulfilledEvent"
	ListingCancelledEvent Type = "ListingCancelledEvent"

	OfferCreatedEvent   Type = "OfferCreatedEvent"
	OfferAcceptedEvent  Type = "OfferAcceptedEvent"
	OfferCancelledEvent Type = "OfferCancelledEvent"

	AuctionCreatedEvent   Type = "AuctionCreatedEvent"
	AuctionBidEvent       Type = "AuctionBidEvent"
	AuctionSettledEvent   Type = "AuctionSettledEvent"
	AuctionCancelledEvent Type = "AuctionCancelledEvent"

	RoyaltyConfigUpdatedEvent Type = "RoyaltyConfigUpdatedEvent"
	ParamsUpdatedEvent        Type = "ParamsUpdatedEvent"
)
