package indexer

import (
	"errors"

	"github.com/ZilDuck/nft-marketplace-engine/internal/dev"
	"github.com/ZilDuck/nft-marketplace-engine/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/marketplace"
	"go.uber.org/zap"
)

// MarketplaceIndexer projects engine observations into the elastic read
// models. Projections go through the buffered request pipeline and land on
// the next flush; settlement correctness never depends on them. Unexpected
// payloads are written to the error index straight away.
type MarketplaceIndexer interface {
	OnListingCreated(msg interface{})
	OnListingFulfilled(msg interface{})
	OnListingCancelled(msg interface{})
	OnOfferCreated(msg interface{})
	OnOfferAccepted(msg interface{})
	OnOfferCancelled(msg interface{})
	OnAuctionCreated(msg interface{})
	OnAuctionBid(msg interface{})
	OnAuctionSettled(msg interface{})
	OnAuctionCancelled(msg interface{})
	OnRoyaltyConfigUpdated(msg interface{})
}

type marketplaceIndexer struct {
	elastic elastic_search.Index
}

func NewMarketplaceIndexer(elastic elastic_search.Index) MarketplaceIndexer {
	return marketplaceIndexer{elastic}
}

func (i marketplaceIndexer) OnListingCreated(msg interface{}) {
	listing, ok := msg.(entity.Listing)
	if !ok {
		i.badPayload("listing created", msg)
		return
	}

	i.elastic.AddIndexRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingCreate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  listing.Token.Contract,
		TokenId:   listing.Token.TokenId,
		RefId:     listing.Id,
		Action:    entity.ListingCreatedAction,
		From:      listing.Seller,
		Cost:      listing.Price,
		Timestamp: listing.CreatedAt,
	})
}

func (i marketplaceIndexer) OnListingFulfilled(msg interface{}) {
	sale, ok := msg.(marketplace.ListingSale)
	if !ok {
		i.badPayload("listing fulfilled", msg)
		return
	}

	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), sale.Listing, elastic_search.ListingUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  sale.Listing.Token.Contract,
		TokenId:   sale.Listing.Token.TokenId,
		RefId:     sale.Listing.Id,
		Action:    entity.ListingFulfilledAction,
		From:      sale.Listing.Seller,
		To:        sale.Buyer,
		Cost:      sale.Listing.Price,
		Fee:       sale.Fee,
		Royalty:   sale.Royalty,
		Timestamp: sale.Listing.CreatedAt,
	})
}

func (i marketplaceIndexer) OnListingCancelled(msg interface{}) {
	listing, ok := msg.(entity.Listing)
	if !ok {
		i.badPayload("listing cancelled", msg)
		return
	}

	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  listing.Token.Contract,
		TokenId:   listing.Token.TokenId,
		RefId:     listing.Id,
		Action:    entity.ListingCancelledAction,
		From:      listing.Seller,
		Timestamp: listing.CreatedAt,
	})
}

func (i marketplaceIndexer) OnOfferCreated(msg interface{}) {
	offer, ok := msg.(entity.Offer)
	if !ok {
		i.badPayload("offer created", msg)
		return
	}

	i.elastic.AddIndexRequest(elastic_search.OfferIndex.Get(), offer, elastic_search.OfferCreate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  offer.Token.Contract,
		TokenId:   offer.Token.TokenId,
		RefId:     offer.Id,
		Action:    entity.OfferCreatedAction,
		From:      offer.Bidder,
		Cost:      offer.Amount,
		Timestamp: offer.CreatedAt,
	})
}

func (i marketplaceIndexer) OnOfferAccepted(msg interface{}) {
	sale, ok := msg.(marketplace.OfferSale)
	if !ok {
		i.badPayload("offer accepted", msg)
		return
	}

	i.elastic.AddUpdateRequest(elastic_search.OfferIndex.Get(), sale.Offer, elastic_search.OfferUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  sale.Offer.Token.Contract,
		TokenId:   sale.Offer.Token.TokenId,
		RefId:     sale.Offer.Id,
		Action:    entity.OfferAcceptedAction,
		From:      sale.Seller,
		To:        sale.Offer.Bidder,
		Cost:      sale.Offer.Amount,
		Fee:       sale.Fee,
		Royalty:   sale.Royalty,
		Timestamp: sale.Offer.CreatedAt,
	})
}

func (i marketplaceIndexer) OnOfferCancelled(msg interface{}) {
	offer, ok := msg.(entity.Offer)
	if !ok {
		i.badPayload("offer cancelled", msg)
		return
	}

	i.elastic.AddUpdateRequest(elastic_search.OfferIndex.Get(), offer, elastic_search.OfferUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  offer.Token.Contract,
		TokenId:   offer.Token.TokenId,
		RefId:     offer.Id,
		Action:    entity.OfferCancelledAction,
		From:      offer.Bidder,
		Cost:      offer.Amount,
		Timestamp: offer.CreatedAt,
	})
}

func (i marketplaceIndexer) OnAuctionCreated(msg interface{}) {
	auction, ok := msg.(entity.Auction)
	if !ok {
		i.badPayload("auction created", msg)
		return
	}

	i.elastic.AddIndexRequest(elastic_search.AuctionIndex.Get(), auction, elastic_search.AuctionCreate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  auction.Token.Contract,
		TokenId:   auction.Token.TokenId,
		RefId:     auction.Id,
		Action:    entity.AuctionCreatedAction,
		From:      auction.Seller,
		Cost:      auction.StartingPrice,
		Timestamp: auction.StartTime,
	})
}

func (i marketplaceIndexer) OnAuctionBid(msg interface{}) {
	auction, ok := msg.(entity.Auction)
	if !ok {
		i.badPayload("auction bid", msg)
		return
	}

	i.elastic.AddUpdateRequest(elastic_search.AuctionIndex.Get(), auction, elastic_search.AuctionUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  auction.Token.Contract,
		TokenId:   auction.Token.TokenId,
		RefId:     auction.Id,
		Action:    entity.AuctionBidAction,
		From:      auction.HighestBidder,
		Cost:      auction.HighestBid,
		Timestamp: auction.StartTime,
	})
}

func (i marketplaceIndexer) OnAuctionSettled(msg interface{}) {
	sale, ok := msg.(marketplace.AuctionSale)
	if !ok {
		i.badPayload("auction settled", msg)
		return
	}

	i.elastic.AddUpdateRequest(elastic_search.AuctionIndex.Get(), sale.Auction, elastic_search.AuctionUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  sale.Auction.Token.Contract,
		TokenId:   sale.Auction.Token.TokenId,
		RefId:     sale.Auction.Id,
		Action:    entity.AuctionSettledAction,
		From:      sale.Auction.Seller,
		To:        sale.Auction.HighestBidder,
		Cost:      sale.Auction.HighestBid,
		Fee:       sale.Fee,
		Royalty:   sale.Royalty,
		Timestamp: sale.Auction.StartTime,
	})
}

func (i marketplaceIndexer) OnAuctionCancelled(msg interface{}) {
	auction, ok := msg.(entity.Auction)
	if !ok {
		i.badPayload("auction cancelled", msg)
		return
	}

	i.elastic.AddUpdateRequest(elastic_search.AuctionIndex.Get(), auction, elastic_search.AuctionUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  auction.Token.Contract,
		TokenId:   auction.Token.TokenId,
		RefId:     auction.Id,
		Action:    entity.AuctionCancelledAction,
		From:      auction.Seller,
		Timestamp: auction.StartTime,
	})
}

func (i marketplaceIndexer) OnRoyaltyConfigUpdated(msg interface{}) {
	config, ok := msg.(entity.RoyaltyConfig)
	if !ok {
		i.badPayload("royalty config updated", msg)
		return
	}

	i.elastic.AddIndexRequest(elastic_search.RoyaltyIndex.Get(), config, elastic_search.RoyaltyConfigUpdate)
	i.indexAction(entity.MarketplaceAction{
		Contract:  config.Token.Contract,
		TokenId:   config.Token.TokenId,
		RefId:     config.Slug(),
		Action:    entity.RoyaltyUpdatedAction,
		Timestamp: config.UpdatedAt,
	})
}

func (i marketplaceIndexer) indexAction(action entity.MarketplaceAction) {
	i.elastic.AddIndexRequest(elastic_search.ActionIndex.Get(), action, elastic_search.MarketplaceAction)
}

func (i marketplaceIndexer) badPayload(context string, msg interface{}) {
	zap.L().With(zap.Any("msg", msg)).Error("MarketplaceIndexer: Unexpected payload for " + context)

	i.elastic.Save(elastic_search.ErrorIndex.Get(), dev.NewError(
		"MarketplaceIndexer",
		context,
		errors.New("unexpected payload"),
		map[string]interface{}{"msg": msg},
	))
}
