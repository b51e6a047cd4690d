package entity

import (
	"crypto/md5"
	"fmt"
)

// MarketplaceAction is the read-model document projected into elastic for
// every engine observation. It carries the economic terms of the action so
// off-engine indexers never need to replay settlement math.
type MarketplaceAction struct {
	Contract  string     `json:"contract"`
	TokenId   uint64     `json:"tokenId"`
	RefId     string     `json:"refId"`
	Action    ActionType `json:"action"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Cost      uint64     `json:"cost"`
	Fee       uint64     `json:"fee"`
	Royalty   uint64     `json:"royalty"`
	Timestamp int64      `json:"timestamp"`
}

type ActionType string

const (
	ListingCreatedAction   ActionType = "listingCreated"
	ListingFulfilledAction ActionType = "listingFulfilled"
	ListingCancelledAction ActionType = "listingCancelled"
	OfferCreatedAction     ActionType = "offerCreated"
	OfferAcceptedAction    ActionType = "offerAccepted"
	OfferCancelledAction   ActionType = "offerCancelled"
	AuctionCreatedAction   ActionType = "auctionCreated"
	AuctionBidAction       ActionType = "auctionBid"
	AuctionSettledAction   ActionType = "auctionSettled"
	AuctionCancelledAction ActionType = "auctionCancelled"
	RoyaltyUpdatedAction   ActionType = "royaltyUpdated"
)

func (m MarketplaceAction) Slug() string {
	return CreateMarketplaceActionSlug(m.TokenId, m.Contract, m.RefId, string(m.Action), m.Timestamp)
}

func CreateMarketplaceActionSlug(tokenId uint64, contract, refId, action string, timestamp int64) string {
	data := []byte(fmt.Sprintf("mpaction-%d-%s-%s-%s-%d", tokenId, contract, refId, action, timestamp))
	return fmt.Sprintf("%x", md5.Sum(data))
}
