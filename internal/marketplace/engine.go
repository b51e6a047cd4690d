package marketplace

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/params"
	"github.com/ZilDuck/nft-marketplace-engine/internal/payment"
	"github.com/ZilDuck/nft-marketplace-engine/internal/registry"
	"github.com/ZilDuck/nft-marketplace-engine/internal/royalty"
)

// Engine owns the listing, offer and auction state machines and drives
// settlement through the asset registry and the payment channel. Callers are
// globally serialized by the execution environment; the engine only defends
// against re-entry from within a payment or transfer step.
type Engine struct {
	registry registry.Service
	channel  payment.Channel
	royalty  royalty.Distributor
	params   *params.Store

	// operator is the account the registry must have approved for the
	// engine to move tokens on a seller's behalf.
	operator string

	// Now is swappable so lazy expiry is testable.
	Now func() int64

	inFlight int32
	seq      uint64

	listings map[string]*entity.Listing
	offers   map[string]*entity.Offer
	auctions map[string]*entity.Auction

	// active records by token slug, for collision detection and reads.
	listingByTokenSeller map[string]string
	offerByTokenBidder   map[string]string
	auctionByToken       map[string]string
}

func NewEngine(
	registryService registry.Service,
	channel payment.Channel,
	distributor royalty.Distributor,
	paramsStore *params.Store,
	operator string,
) *Engine {
	return &Engine{
		registry:             registryService,
		channel:              channel,
		royalty:              distributor,
		params:               paramsStore,
		operator:             operator,
		Now:                  func() int64 { return time.Now().Unix() },
		listings:             make(map[string]*entity.Listing),
		offers:               make(map[string]*entity.Offer),
		auctions:             make(map[string]*entity.Auction),
		listingByTokenSeller: make(map[string]string),
		offerByTokenBidder:   make(map[string]string),
		auctionByToken:       make(map[string]string),
	}
}

// begin marks an operation in flight. Any call entering while another is
// mid-settlement is a payment callback re-entering the engine and is
// rejected before it can observe half-applied state.
func (e *Engine) begin() error {
	if !atomic.CompareAndSwapInt32(&e.inFlight, 0, 1) {
		return ErrReentrantCall
	}

	return nil
}

func (e *Engine) end() {
	atomic.StoreInt32(&e.inFlight, 0)
}

func (e *Engine) nextSeq() uint64 {
	return atomic.AddUint64(&e.seq, 1)
}

// requireSellable checks live ownership and approval ahead of a listing or
// auction creation. Authorization is never cached from an earlier call.
func (e *Engine) requireSellable(seller string, token entity.Token) error {
	owner, err := e.registry.OwnerOf(token)
	if err != nil {
		return fmt.Errorf("owner lookup: %w", err)
	}
	if owner != seller {
		return ErrNotOwner
	}

	approved, err := e.registry.IsApprovedToTransfer(token, e.operator)
	if err != nil {
		return fmt.Errorf("approval lookup: %w", err)
	}
	if !approved {
		return ErrNotApproved
	}

	return nil
}

// settle runs the shared tail of fulfil/accept/settle: the payment batch is
// checked before the token moves, so a rejecting recipient aborts the sale
// while ownership is still intact, and committed after, so a failed transfer
// moves no funds.
func (e *Engine) settle(batch *payment.Batch, token entity.Token, from, to string) error {
	if err := batch.Check(); err != nil {
		return err
	}

	if err := e.registry.Transfer(token, from, to); err != nil {
		return fmt.Errorf("%w: %s", ErrTransferFailed, err)
	}

	return batch.Commit()
}
