package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOffer_EscrowsAmountAndReturnsExcess(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 15000)

	offer, err := f.engine.CreateOffer("bidder", token, 10000, 0, 15000)
	require.NoError(t, err)
	assert.True(t, offer.Active)
	assert.Equal(t, f.now+604800, offer.ExpiresAt)

	assert.Equal(t, uint64(5000), f.ledger.Balance("bidder"))
	assert.Equal(t, uint64(10000), f.ledger.Custody())
}

func TestCreateOffer_Validation(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	_, err := f.engine.CreateOffer("bidder", token, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.engine.CreateOffer("bidder", token, 10000, 0, 9000)
	assert.ErrorIs(t, err, ErrInsufficientEscrow)

	_, err = f.engine.CreateOffer("seller", token, 10000, 0, 10000)
	assert.ErrorIs(t, err, ErrSelfOffer)

	f.ledger.Deposit("bidder", 30000)

	_, err = f.engine.CreateOffer("bidder", token, 10000, 0, 10000)
	require.NoError(t, err)

	_, err = f.engine.CreateOffer("bidder", token, 12000, 0, 12000)
	assert.ErrorIs(t, err, ErrDuplicateOffer)
}

func TestAcceptOffer_PaysOutOfCustody(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 10000)

	offer, err := f.engine.CreateOffer("bidder", token, 10000, 0, 10000)
	require.NoError(t, err)

	accepted, err := f.engine.AcceptOffer(offer.Id, "seller")
	require.NoError(t, err)
	assert.False(t, accepted.Active)

	assert.Equal(t, uint64(9750), f.ledger.Balance("seller"))
	assert.Equal(t, uint64(250), f.ledger.Balance(feeRecipient))
	assert.Equal(t, uint64(0), f.ledger.Custody())
	assert.Equal(t, "bidder", f.registry.owners[token.Slug()])
}

func TestAcceptOffer_OnlyTheCurrentOwnerCanAccept(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 10000)

	offer, err := f.engine.CreateOffer("bidder", token, 10000, 0, 10000)
	require.NoError(t, err)

	// The token changes hands outside the marketplace.
	require.NoError(t, f.registry.Transfer(token, "seller", "newOwner"))

	_, err = f.engine.AcceptOffer(offer.Id, "seller")
	assert.ErrorIs(t, err, ErrNotOwner)

	// The new owner holds the token but never re-approved the operator.
	_, err = f.engine.AcceptOffer(offer.Id, "newOwner")
	assert.ErrorIs(t, err, ErrNotApproved)

	f.registry.approve(token, operator)

	_, err = f.engine.AcceptOffer(offer.Id, "newOwner")
	require.NoError(t, err)
	assert.Equal(t, uint64(9750), f.ledger.Balance("newOwner"))
	assert.Equal(t, uint64(0), f.ledger.Balance("seller"))
}

func TestAcceptOffer_ExpiredOfferRefuses(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 10000)

	offer, err := f.engine.CreateOffer("bidder", token, 10000, f.now+60, 10000)
	require.NoError(t, err)

	f.now += 120

	_, err = f.engine.AcceptOffer(offer.Id, "seller")
	assert.ErrorIs(t, err, ErrExpired)

	// Escrow stays held until the bidder reclaims it.
	assert.Equal(t, uint64(10000), f.ledger.Custody())
}

func TestCancelOffer_RefundsEscrow(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 10000)

	offer, err := f.engine.CreateOffer("bidder", token, 10000, 0, 10000)
	require.NoError(t, err)

	_, err = f.engine.CancelOffer(offer.Id, "stranger")
	assert.ErrorIs(t, err, ErrNotBidder)

	cancelled, err := f.engine.CancelOffer(offer.Id, "bidder")
	require.NoError(t, err)
	assert.False(t, cancelled.Active)

	assert.Equal(t, uint64(10000), f.ledger.Balance("bidder"))
	assert.Equal(t, uint64(0), f.ledger.Custody())

	_, err = f.engine.CancelOffer(offer.Id, "bidder")
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestCancelOffer_FailedRefundLeavesOfferActive(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 10000)

	offer, err := f.engine.CreateOffer("bidder", token, 10000, 0, 10000)
	require.NoError(t, err)

	f.ledger.SetRejecting("bidder", true)

	_, err = f.engine.CancelOffer(offer.Id, "bidder")
	assert.ErrorIs(t, err, ErrRefundFailed)

	current, err := f.engine.GetOffer(offer.Id)
	require.NoError(t, err)
	assert.True(t, current.Active)
	assert.Equal(t, uint64(10000), f.ledger.Custody())
}

func TestCancelOffer_StaysLegalAfterExpiry(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 10000)

	offer, err := f.engine.CreateOffer("bidder", token, 10000, f.now+60, 10000)
	require.NoError(t, err)

	f.now += 120

	_, err = f.engine.CancelOffer(offer.Id, "bidder")
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), f.ledger.Balance("bidder"))
}

func TestCreateOffer_ExpiredOfferCanBeReplaced(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 30000)

	first, err := f.engine.CreateOffer("bidder", token, 10000, f.now+60, 10000)
	require.NoError(t, err)

	f.now += 120

	second, err := f.engine.CreateOffer("bidder", token, 12000, 0, 12000)
	require.NoError(t, err)
	assert.NotEqual(t, first.Id, second.Id)

	// Both escrows are held until the expired one is cancelled.
	assert.Equal(t, uint64(22000), f.ledger.Custody())

	_, err = f.engine.CancelOffer(first.Id, "bidder")
	require.NoError(t, err)
	assert.Equal(t, uint64(12000), f.ledger.Custody())
}

func TestSweepExpiredOffers(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	f.ledger.Deposit("bidder", 10000)
	f.ledger.Deposit("other", 8000)

	_, err := f.engine.CreateOffer("bidder", token, 10000, f.now+60, 10000)
	require.NoError(t, err)
	_, err = f.engine.CreateOffer("other", token, 8000, 0, 8000)
	require.NoError(t, err)

	f.now += 120

	_, err = f.engine.SweepExpiredOffers("stranger")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	swept, err := f.engine.SweepExpiredOffers(admin)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	assert.Equal(t, uint64(10000), f.ledger.Balance("bidder"))
	assert.Equal(t, uint64(8000), f.ledger.Custody())
}

func TestSweepExpiredOffers_ReentrantCallbackIsRejected(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	channel := &reentrantChannel{inner: f.ledger}
	f.engine = NewEngine(f.registry, channel, f.royalty, f.params, operator)
	f.engine.Now = func() int64 { return f.now }

	f.ledger.Deposit("bidder", 10000)
	offer, err := f.engine.CreateOffer("bidder", token, 10000, f.now+60, 10000)
	require.NoError(t, err)

	f.now += 120
	channel.attack = func() error {
		_, err := f.engine.CancelOffer(offer.Id, "bidder")
		return err
	}

	swept, err := f.engine.SweepExpiredOffers(admin)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	assert.ErrorIs(t, channel.observed, ErrReentrantCall)
	assert.Equal(t, uint64(10000), f.ledger.Balance("bidder"))
	assert.Equal(t, uint64(0), f.ledger.Custody())
}
