package marketplace

import (
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/event"
	"github.com/ZilDuck/nft-marketplace-engine/internal/payment"
	"go.uber.org/zap"
)

func (e *Engine) CreateListing(seller string, token entity.Token, price uint64, expiresAt int64) (*entity.Listing, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if price == 0 {
		return nil, ErrInvalidPrice
	}

	if err := e.requireSellable(seller, token); err != nil {
		return nil, err
	}

	key := token.Slug() + ":" + seller
	if id, ok := e.listingByTokenSeller[key]; ok {
		if existing := e.listings[id]; existing.Active && !existing.HasExpired(e.Now()) {
			return nil, ErrAlreadyListed
		}
	}

	p := e.params.Get()
	if p.ListingFee > 0 {
		batch := payment.NewBatch(e.channel)
		batch.Collect(seller, p.ListingFee)
		batch.Pay(p.FeeRecipient, p.ListingFee)
		if err := batch.Commit(); err != nil {
			return nil, err
		}
	}

	now := e.Now()
	listing := &entity.Listing{
		Id:        entity.CreateListingSlug(e.nextSeq(), token.TokenId, token.Contract, seller, now),
		Seller:    seller,
		Token:     token,
		Price:     price,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Active:    true,
	}

	e.listings[listing.Id] = listing
	e.listingByTokenSeller[key] = listing.Id

	zap.L().With(
		zap.String("listing", listing.Id),
		zap.String("token", token.String()),
		zap.Uint64("price", price),
	).Info("Marketplace: Listing created")

	event.EmitEvent(event.ListingCreatedEvent, *listing)

	return copyListing(listing), nil
}

// FulfilListing settles a fixed-price sale. The payment splits into royalty
// payouts, the marketplace fee and the seller remainder; the remainder
// absorbs integer truncation so the three parts always sum to the price.
func (e *Engine) FulfilListing(listingId, buyer string, paid uint64) (*entity.Listing, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	listing, ok := e.listings[listingId]
	if !ok || !listing.Active {
		return nil, ErrNotActive
	}
	if listing.HasExpired(e.Now()) {
		return nil, ErrExpired
	}
	if buyer == listing.Seller {
		return nil, ErrSelfTrade
	}
	if paid < listing.Price {
		return nil, ErrInsufficientPayment
	}

	p := e.params.Get()
	fee := payment.Portion(listing.Price, p.MarketplaceFeeBps)

	batch := payment.NewBatch(e.channel)
	batch.Collect(buyer, paid)
	royaltyTotal := e.royalty.Stage(batch, listing.Token, listing.Price)
	batch.Pay(p.FeeRecipient, fee)
	batch.Pay(listing.Seller, listing.Price-royaltyTotal-fee)
	batch.Pay(buyer, paid-listing.Price)

	if err := e.settle(batch, listing.Token, listing.Seller, buyer); err != nil {
		zap.L().With(zap.Error(err), zap.String("listing", listingId)).Error("Marketplace: Fulfilment aborted")
		return nil, err
	}

	listing.Active = false

	zap.L().With(
		zap.String("listing", listingId),
		zap.String("buyer", buyer),
		zap.Uint64("price", listing.Price),
		zap.Uint64("fee", fee),
		zap.Uint64("royalty", royaltyTotal),
	).Info("Marketplace: Listing fulfilled")

	event.EmitEvent(event.ListingFulfilledEvent, ListingSale{
		Listing: *listing,
		Buyer:   buyer,
		Fee:     fee,
		Royalty: royaltyTotal,
	})

	return copyListing(listing), nil
}

func (e *Engine) CancelListing(listingId, caller string) (*entity.Listing, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	listing, ok := e.listings[listingId]
	if !ok {
		return nil, ErrNotActive
	}
	if caller != listing.Seller {
		return nil, ErrNotSeller
	}
	if !listing.Active {
		return nil, ErrNotActive
	}

	listing.Active = false

	zap.L().With(zap.String("listing", listingId)).Info("Marketplace: Listing cancelled")

	event.EmitEvent(event.ListingCancelledEvent, *listing)

	return copyListing(listing), nil
}

func (e *Engine) GetListing(listingId string) (*entity.Listing, error) {
	listing, ok := e.listings[listingId]
	if !ok {
		return nil, ErrNotFound
	}

	return copyListing(listing), nil
}

func (e *Engine) GetListingsForToken(token entity.Token) []entity.Listing {
	listings := make([]entity.Listing, 0)
	for _, listing := range e.listings {
		if listing.Token == token && listing.Active {
			listings = append(listings, *listing)
		}
	}

	return listings
}

// ListingSale is the fulfilment observation payload.
type ListingSale struct {
	Listing entity.Listing
	Buyer   string
	Fee     uint64
	Royalty uint64
}

func copyListing(listing *entity.Listing) *entity.Listing {
	l := *listing
	return &l
}
