package marketplace

import (
	"fmt"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/event"
	"github.com/ZilDuck/nft-marketplace-engine/internal/payment"
	"go.uber.org/zap"
)

// CreateOffer escrows the offer amount with the engine. Escrowed funds above
// the amount are returned in the same batch.
func (e *Engine) CreateOffer(bidder string, token entity.Token, amount uint64, expiresAt int64, escrowed uint64) (*entity.Offer, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if escrowed < amount {
		return nil, ErrInsufficientEscrow
	}

	owner, err := e.registry.OwnerOf(token)
	if err != nil {
		return nil, fmt.Errorf("owner lookup: %w", err)
	}
	if owner == bidder {
		return nil, ErrSelfOffer
	}

	key := token.Slug() + ":" + bidder
	if id, ok := e.offerByTokenBidder[key]; ok {
		if existing := e.offers[id]; existing.Active && !existing.HasExpired(e.Now()) {
			return nil, ErrDuplicateOffer
		}
	}

	now := e.Now()
	if expiresAt == 0 {
		if d := e.params.Get().DefaultOfferDuration; d > 0 {
			expiresAt = now + d
		}
	}

	batch := payment.NewBatch(e.channel)
	batch.Collect(bidder, escrowed)
	batch.Pay(bidder, escrowed-amount)
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	offer := &entity.Offer{
		Id:        entity.CreateOfferSlug(e.nextSeq(), token.TokenId, token.Contract, bidder, now),
		Bidder:    bidder,
		Token:     token,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Active:    true,
	}

	e.offers[offer.Id] = offer
	e.offerByTokenBidder[key] = offer.Id

	zap.L().With(
		zap.String("offer", offer.Id),
		zap.String("token", token.String()),
		zap.Uint64("amount", amount),
	).Info("Marketplace: Offer created")

	event.EmitEvent(event.OfferCreatedEvent, *offer)

	return copyOffer(offer), nil
}

// AcceptOffer settles an offer for the token's current owner. Ownership is
// re-checked live: the token may have changed hands since the offer was made
// and only the holder of record can accept.
func (e *Engine) AcceptOffer(offerId, caller string) (*entity.Offer, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	offer, ok := e.offers[offerId]
	if !ok || !offer.Active {
		return nil, ErrNotActive
	}
	if offer.HasExpired(e.Now()) {
		return nil, ErrExpired
	}

	owner, err := e.registry.OwnerOf(offer.Token)
	if err != nil {
		return nil, fmt.Errorf("owner lookup: %w", err)
	}
	if owner != caller {
		return nil, ErrNotOwner
	}

	approved, err := e.registry.IsApprovedToTransfer(offer.Token, e.operator)
	if err != nil {
		return nil, fmt.Errorf("approval lookup: %w", err)
	}
	if !approved {
		return nil, ErrNotApproved
	}

	p := e.params.Get()
	fee := payment.Portion(offer.Amount, p.MarketplaceFeeBps)

	// The amount is already in custody; the batch only pays out.
	batch := payment.NewBatch(e.channel)
	royaltyTotal := e.royalty.Stage(batch, offer.Token, offer.Amount)
	batch.Pay(p.FeeRecipient, fee)
	batch.Pay(caller, offer.Amount-royaltyTotal-fee)

	if err := e.settle(batch, offer.Token, caller, offer.Bidder); err != nil {
		zap.L().With(zap.Error(err), zap.String("offer", offerId)).Error("Marketplace: Offer acceptance aborted")
		return nil, err
	}

	offer.Active = false

	zap.L().With(
		zap.String("offer", offerId),
		zap.String("seller", caller),
		zap.Uint64("amount", offer.Amount),
		zap.Uint64("fee", fee),
		zap.Uint64("royalty", royaltyTotal),
	).Info("Marketplace: Offer accepted")

	event.EmitEvent(event.OfferAcceptedEvent, OfferSale{
		Offer:   *offer,
		Seller:  caller,
		Fee:     fee,
		Royalty: royaltyTotal,
	})

	return copyOffer(offer), nil
}

// CancelOffer refunds the escrowed amount to the bidder. Cancellation stays
// legal after expiry: it is the only way trapped escrow comes back.
func (e *Engine) CancelOffer(offerId, caller string) (*entity.Offer, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	return e.cancelOffer(offerId, caller)
}

func (e *Engine) cancelOffer(offerId, caller string) (*entity.Offer, error) {
	offer, ok := e.offers[offerId]
	if !ok {
		return nil, ErrNotActive
	}
	if caller != offer.Bidder {
		return nil, ErrNotBidder
	}
	if !offer.Active {
		return nil, ErrNotActive
	}

	batch := payment.NewBatch(e.channel)
	batch.Pay(offer.Bidder, offer.Amount)
	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRefundFailed, err)
	}

	offer.Active = false

	zap.L().With(zap.String("offer", offerId)).Info("Marketplace: Offer cancelled")

	event.EmitEvent(event.OfferCancelledEvent, *offer)

	return copyOffer(offer), nil
}

// SweepExpiredOffers refunds every expired active offer. Callable by the
// admin on behalf of bidders whose escrow would otherwise sit until they
// cancel themselves.
func (e *Engine) SweepExpiredOffers(caller string) (int, error) {
	if err := e.begin(); err != nil {
		return 0, err
	}
	defer e.end()

	if caller != e.params.Get().Admin {
		return 0, ErrNotAuthorized
	}

	expired := make([]string, 0)
	now := e.Now()
	for id, offer := range e.offers {
		if offer.Active && offer.HasExpired(now) {
			expired = append(expired, id)
		}
	}

	swept := 0
	for _, id := range expired {
		offer := e.offers[id]
		if _, err := e.cancelOffer(id, offer.Bidder); err != nil {
			zap.L().With(zap.Error(err), zap.String("offer", id)).Error("Marketplace: Sweep failed")
			return swept, err
		}
		swept++
	}

	return swept, nil
}

func (e *Engine) GetOffer(offerId string) (*entity.Offer, error) {
	offer, ok := e.offers[offerId]
	if !ok {
		return nil, ErrNotFound
	}

	return copyOffer(offer), nil
}

func (e *Engine) GetOffersForToken(token entity.Token) []entity.Offer {
	offers := make([]entity.Offer, 0)
	for _, offer := range e.offers {
		if offer.Token == token && offer.Active {
			offers = append(offers, *offer)
		}
	}

	return offers
}

// OfferSale is the acceptance observation payload.
type OfferSale struct {
	Offer   entity.Offer
	Seller  string
	Fee     uint64
	Royalty uint64
}

func copyOffer(offer *entity.Offer) *entity.Offer {
	o := *offer
	return &o
}
