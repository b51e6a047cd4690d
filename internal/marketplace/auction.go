package marketplace

import (
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/event"
	"github.com/ZilDuck/nft-marketplace-engine/internal/payment"
	"go.uber.org/zap"
)

func (e *Engine) CreateAuction(seller string, token entity.Token, startingPrice uint64, duration int64) (*entity.Auction, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if startingPrice == 0 {
		return nil, ErrInvalidPrice
	}

	if err := e.requireSellable(seller, token); err != nil {
		return nil, err
	}

	if id, ok := e.auctionByToken[token.Slug()]; ok {
		if existing := e.auctions[id]; existing.Active {
			return nil, ErrAlreadyListed
		}
	}

	if duration == 0 {
		duration = e.params.Get().DefaultAuctionDuration
	}

	now := e.Now()
	auction := &entity.Auction{
		Id:            entity.CreateAuctionSlug(e.nextSeq(), token.TokenId, token.Contract, seller, now),
		Seller:        seller,
		Token:         token,
		StartingPrice: startingPrice,
		StartTime:     now,
		EndTime:       now + duration,
		Active:        true,
	}

	e.auctions[auction.Id] = auction
	e.auctionByToken[token.Slug()] = auction.Id

	zap.L().With(
		zap.String("auction", auction.Id),
		zap.String("token", token.String()),
		zap.Uint64("startingPrice", startingPrice),
		zap.Int64("endTime", auction.EndTime),
	).Info("Marketplace: Auction created")

	event.EmitEvent(event.AuctionCreatedEvent, *auction)

	return copyAuction(auction), nil
}

// Bid replaces the auction leader. The previous leader's refund is staged
// ahead of the new collection in the same atomic batch, so custody never
// holds two bids and a failed refund rejects the whole bid.
func (e *Engine) Bid(auctionId, bidder string, amount uint64) (*entity.Auction, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	auction, ok := e.auctions[auctionId]
	if !ok || !auction.Active {
		return nil, ErrNotActive
	}
	if auction.HasEnded(e.Now()) {
		return nil, ErrEnded
	}
	if bidder == auction.Seller {
		return nil, ErrSelfBid
	}
	if auction.HasBids() && amount <= auction.HighestBid {
		return nil, ErrBidTooLow
	}
	if amount < auction.StartingPrice {
		return nil, ErrBelowStartingPrice
	}

	batch := payment.NewBatch(e.channel)
	if auction.HasBids() {
		batch.Pay(auction.HighestBidder, auction.HighestBid)
	}
	batch.Collect(bidder, amount)
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	auction.HighestBid = amount
	auction.HighestBidder = bidder

	zap.L().With(
		zap.String("auction", auctionId),
		zap.String("bidder", bidder),
		zap.Uint64("amount", amount),
	).Info("Marketplace: Bid accepted")

	event.EmitEvent(event.AuctionBidEvent, *auction)

	return copyAuction(auction), nil
}

// SettleAuction closes the auction. Anyone can settle once the end time has
// passed; the seller can force settlement early. With no bids the token
// never moves.
func (e *Engine) SettleAuction(auctionId, caller string) (*entity.Auction, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	auction, ok := e.auctions[auctionId]
	if !ok || !auction.Active {
		return nil, ErrNotActive
	}
	if caller != auction.Seller && !auction.HasEnded(e.Now()) {
		return nil, ErrNotEnded
	}

	if !auction.HasBids() {
		auction.Active = false

		zap.L().With(zap.String("auction", auctionId)).Info("Marketplace: Auction closed without bids")
		event.EmitEvent(event.AuctionSettledEvent, AuctionSale{Auction: *auction})

		return copyAuction(auction), nil
	}

	p := e.params.Get()
	fee := payment.Portion(auction.HighestBid, p.MarketplaceFeeBps)

	// The winning bid is already in custody; the batch only pays out.
	batch := payment.NewBatch(e.channel)
	royaltyTotal := e.royalty.Stage(batch, auction.Token, auction.HighestBid)
	batch.Pay(p.FeeRecipient, fee)
	batch.Pay(auction.Seller, auction.HighestBid-royaltyTotal-fee)

	if err := e.settle(batch, auction.Token, auction.Seller, auction.HighestBidder); err != nil {
		zap.L().With(zap.Error(err), zap.String("auction", auctionId)).Error("Marketplace: Auction settlement aborted")
		return nil, err
	}

	auction.Active = false

	zap.L().With(
		zap.String("auction", auctionId),
		zap.String("winner", auction.HighestBidder),
		zap.Uint64("amount", auction.HighestBid),
		zap.Uint64("fee", fee),
		zap.Uint64("royalty", royaltyTotal),
	).Info("Marketplace: Auction settled")

	event.EmitEvent(event.AuctionSettledEvent, AuctionSale{
		Auction: *auction,
		Fee:     fee,
		Royalty: royaltyTotal,
	})

	return copyAuction(auction), nil
}

// CancelAuction is only legal while no bid is held: a paid-in bid is escrow
// that must settle, never silently drop.
func (e *Engine) CancelAuction(auctionId, caller string) (*entity.Auction, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	auction, ok := e.auctions[auctionId]
	if !ok {
		return nil, ErrNotActive
	}
	if caller != auction.Seller {
		return nil, ErrNotSeller
	}
	if !auction.Active {
		return nil, ErrNotActive
	}
	if auction.HasBids() {
		return nil, ErrHasBids
	}

	auction.Active = false

	zap.L().With(zap.String("auction", auctionId)).Info("Marketplace: Auction cancelled")

	event.EmitEvent(event.AuctionCancelledEvent, *auction)

	return copyAuction(auction), nil
}

func (e *Engine) GetAuction(auctionId string) (*entity.Auction, error) {
	auction, ok := e.auctions[auctionId]
	if !ok {
		return nil, ErrNotFound
	}

	return copyAuction(auction), nil
}

func (e *Engine) GetAuctionForToken(token entity.Token) (*entity.Auction, error) {
	id, ok := e.auctionByToken[token.Slug()]
	if !ok {
		return nil, ErrNotFound
	}

	return e.GetAuction(id)
}

// AuctionSale is the settlement observation payload.
type AuctionSale struct {
	Auction entity.Auction
	Fee     uint64
	Royalty uint64
}

func copyAuction(auction *entity.Auction) *entity.Auction {
	a := *auction
	return &a
}
