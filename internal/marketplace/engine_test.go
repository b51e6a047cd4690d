package marketplace

import (
	"errors"
	"testing"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/params"
	"github.com/ZilDuck/nft-marketplace-engine/internal/payment"
	"github.com/ZilDuck/nft-marketplace-engine/internal/royalty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	operator      = "engine-operator"
	admin         = "admin"
	feeRecipient  = "fee-recipient"
	platformRecip = "platform-recipient"
)

// fakeRegistry is an in-memory asset registry. Approvals are granted per
// owner, matching a registry where transferring a token drops the approval.
type fakeRegistry struct {
	owners      map[string]string
	approvals   map[string]map[string]bool
	transferErr error
	transfers   int
	ownerOfErr  error
	approvedErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		owners:    make(map[string]string),
		approvals: make(map[string]map[string]bool),
	}
}

func (r *fakeRegistry) mint(token entity.Token, owner string) {
	r.owners[token.Slug()] = owner
}

func (r *fakeRegistry) approve(token entity.Token, actor string) {
	if r.approvals[token.Slug()] == nil {
		r.approvals[token.Slug()] = make(map[string]bool)
	}
	r.approvals[token.Slug()][actor] = true
}

func (r *fakeRegistry) OwnerOf(token entity.Token) (string, error) {
	if r.ownerOfErr != nil {
		return "", r.ownerOfErr
	}
	return r.owners[token.Slug()], nil
}

func (r *fakeRegistry) IsApprovedToTransfer(token entity.Token, actor string) (bool, error) {
	if r.approvedErr != nil {
		return false, r.approvedErr
	}
	return r.approvals[token.Slug()][actor], nil
}

func (r *fakeRegistry) Transfer(token entity.Token, from, to string) error {
	if r.transferErr != nil {
		return r.transferErr
	}
	if r.owners[token.Slug()] != from {
		return errors.New("not the owner")
	}
	r.owners[token.Slug()] = to
	delete(r.approvals, token.Slug())
	r.transfers++
	return nil
}

type fixture struct {
	engine   *Engine
	registry *fakeRegistry
	ledger   *payment.Ledger
	royalty  royalty.Distributor
	params   *params.Store
	now      int64
}

func defaultParams() entity.Params {
	return entity.Params{
		MarketplaceFeeBps:      250,
		PlatformFeeBps:         25,
		MaxTotalRoyaltyBps:     1000,
		DefaultAuctionDuration: 86400,
		DefaultOfferDuration:   604800,
		FeeRecipient:           feeRecipient,
		PlatformRecipient:      platformRecip,
		Admin:                  admin,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		registry: newFakeRegistry(),
		ledger:   payment.NewLedger(),
		params:   params.NewStore(defaultParams()),
		now:      1700000000,
	}
	f.royalty = royalty.NewDistributor(f.registry, f.ledger, f.params, operator)
	f.engine = NewEngine(f.registry, f.ledger, f.royalty, f.params, operator)
	f.engine.Now = func() int64 { return f.now }

	return f
}

func (f *fixture) mintFor(seller string) entity.Token {
	token := entity.Token{Contract: "0xabc", TokenId: 7}
	f.registry.mint(token, seller)
	f.registry.approve(token, operator)
	return token
}

func TestEngine_IdsAreUniqueAtTheSameInstant(t *testing.T) {
	f := newFixture(t)

	tokenA := entity.Token{Contract: "0xabc", TokenId: 1}
	tokenB := entity.Token{Contract: "0xabc", TokenId: 2}
	f.registry.mint(tokenA, "seller")
	f.registry.mint(tokenB, "seller")
	f.registry.approve(tokenA, operator)
	f.registry.approve(tokenB, operator)

	first, err := f.engine.CreateListing("seller", tokenA, 100, 0)
	require.NoError(t, err)
	second, err := f.engine.CreateListing("seller", tokenB, 100, 0)
	require.NoError(t, err)

	assert.NotEqual(t, first.Id, second.Id)
}

// reentrantChannel calls back into the engine from inside Apply, the way a
// hostile payee would on receiving funds mid-settlement.
type reentrantChannel struct {
	inner    payment.Channel
	attack   func() error
	observed error
}

func (c *reentrantChannel) Check(instructions []payment.Instruction) error {
	return c.inner.Check(instructions)
}

func (c *reentrantChannel) Apply(instructions []payment.Instruction) error {
	if c.attack != nil {
		c.observed = c.attack()
		c.attack = nil
	}
	return c.inner.Apply(instructions)
}

func TestEngine_ReentrantCallbackIsRejected(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	channel := &reentrantChannel{inner: f.ledger}
	f.engine = NewEngine(f.registry, channel, f.royalty, f.params, operator)
	f.engine.Now = func() int64 { return f.now }

	listing, err := f.engine.CreateListing("seller", token, 10000, 0)
	require.NoError(t, err)

	f.ledger.Deposit("buyer", 10000)
	channel.attack = func() error {
		_, err := f.engine.CancelListing(listing.Id, "seller")
		return err
	}

	_, err = f.engine.FulfilListing(listing.Id, "buyer", 10000)
	require.NoError(t, err)

	assert.ErrorIs(t, channel.observed, ErrReentrantCall)
	assert.Equal(t, "buyer", f.registry.owners[token.Slug()])
}

func TestEngine_RegistryFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.registry.ownerOfErr = errors.New("registry unavailable")

	_, err := f.engine.CreateListing("seller", token, 100, 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotOwner)
}
