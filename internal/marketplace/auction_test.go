package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAuction(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	_, err := f.engine.CreateAuction("seller", token, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = f.engine.CreateAuction("stranger", token, 1000, 0)
	assert.ErrorIs(t, err, ErrNotOwner)

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)
	assert.Equal(t, f.now+86400, auction.EndTime)

	_, err = f.engine.CreateAuction("seller", token, 1000, 0)
	assert.ErrorIs(t, err, ErrAlreadyListed)
}

func TestBid_RefundsPreviousLeaderInTheSameBatch(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	f.ledger.Deposit("alice", 1000)
	f.ledger.Deposit("bob", 1500)

	_, err = f.engine.Bid(auction.Id, "alice", 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), f.ledger.Custody())

	updated, err := f.engine.Bid(auction.Id, "bob", 1500)
	require.NoError(t, err)
	assert.Equal(t, "bob", updated.HighestBidder)

	// Custody never holds more than the single leading bid.
	assert.Equal(t, uint64(1500), f.ledger.Custody())
	assert.Equal(t, uint64(1000), f.ledger.Balance("alice"))
	assert.Equal(t, uint64(0), f.ledger.Balance("bob"))
}

func TestBid_Guards(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	_, err = f.engine.Bid(auction.Id, "seller", 1000)
	assert.ErrorIs(t, err, ErrSelfBid)

	_, err = f.engine.Bid(auction.Id, "alice", 900)
	assert.ErrorIs(t, err, ErrBelowStartingPrice)

	f.ledger.Deposit("alice", 1000)
	_, err = f.engine.Bid(auction.Id, "alice", 1000)
	require.NoError(t, err)

	f.ledger.Deposit("bob", 1000)
	_, err = f.engine.Bid(auction.Id, "bob", 1000)
	assert.ErrorIs(t, err, ErrBidTooLow)

	f.now = auction.EndTime
	_, err = f.engine.Bid(auction.Id, "bob", 2000)
	assert.ErrorIs(t, err, ErrEnded)
}

func TestBid_BelowLeaderButAboveStartingPriceIsTooLow(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 5000, 0)
	require.NoError(t, err)

	f.ledger.Deposit("alice", 6000)
	f.ledger.Deposit("bob", 7000)

	_, err = f.engine.Bid(auction.Id, "alice", 6000)
	require.NoError(t, err)

	_, err = f.engine.Bid(auction.Id, "bob", 5000)
	assert.ErrorIs(t, err, ErrBidTooLow)

	updated, err := f.engine.Bid(auction.Id, "bob", 7000)
	require.NoError(t, err)
	assert.Equal(t, "bob", updated.HighestBidder)
	assert.Equal(t, uint64(6000), f.ledger.Balance("alice"))
	assert.Equal(t, uint64(7000), f.ledger.Custody())
}

func TestBid_InsufficientFundsLeavesLeaderInPlace(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	f.ledger.Deposit("alice", 1000)
	_, err = f.engine.Bid(auction.Id, "alice", 1000)
	require.NoError(t, err)

	f.ledger.Deposit("bob", 1200)
	_, err = f.engine.Bid(auction.Id, "bob", 1500)
	require.Error(t, err)

	current, err := f.engine.GetAuction(auction.Id)
	require.NoError(t, err)
	assert.Equal(t, "alice", current.HighestBidder)
	assert.Equal(t, uint64(1000), f.ledger.Custody())
	assert.Equal(t, uint64(1200), f.ledger.Balance("bob"))
}

func TestSettleAuction_AfterEndByAnyone(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	f.ledger.Deposit("alice", 10000)
	_, err = f.engine.Bid(auction.Id, "alice", 10000)
	require.NoError(t, err)

	_, err = f.engine.SettleAuction(auction.Id, "stranger")
	assert.ErrorIs(t, err, ErrNotEnded)

	f.now = auction.EndTime

	settled, err := f.engine.SettleAuction(auction.Id, "stranger")
	require.NoError(t, err)
	assert.False(t, settled.Active)

	assert.Equal(t, uint64(9750), f.ledger.Balance("seller"))
	assert.Equal(t, uint64(250), f.ledger.Balance(feeRecipient))
	assert.Equal(t, uint64(0), f.ledger.Custody())
	assert.Equal(t, "alice", f.registry.owners[token.Slug()])

	_, err = f.engine.SettleAuction(auction.Id, "stranger")
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestSettleAuction_SellerCanSettleEarly(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	f.ledger.Deposit("alice", 2000)
	_, err = f.engine.Bid(auction.Id, "alice", 2000)
	require.NoError(t, err)

	settled, err := f.engine.SettleAuction(auction.Id, "seller")
	require.NoError(t, err)
	assert.False(t, settled.Active)
	assert.Equal(t, "alice", f.registry.owners[token.Slug()])
}

func TestSettleAuction_NoBidsMovesNothing(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	f.now = auction.EndTime

	settled, err := f.engine.SettleAuction(auction.Id, "stranger")
	require.NoError(t, err)
	assert.False(t, settled.Active)

	assert.Equal(t, "seller", f.registry.owners[token.Slug()])
	assert.Equal(t, 0, f.registry.transfers)
	assert.Equal(t, uint64(0), f.ledger.Custody())
}

func TestSettleAuction_PaysRoyalties(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	_, err := f.royalty.SetConfig("seller", token,
		[]string{"creator"}, []uint64{500}, []string{"creator"})
	require.NoError(t, err)

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	f.ledger.Deposit("alice", 10000)
	_, err = f.engine.Bid(auction.Id, "alice", 10000)
	require.NoError(t, err)

	f.now = auction.EndTime

	_, err = f.engine.SettleAuction(auction.Id, "alice")
	require.NoError(t, err)

	assert.Equal(t, uint64(500), f.ledger.Balance("creator"))
	assert.Equal(t, uint64(250), f.ledger.Balance(feeRecipient))
	assert.Equal(t, uint64(9250), f.ledger.Balance("seller"))
}

func TestCancelAuction(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	_, err = f.engine.CancelAuction(auction.Id, "stranger")
	assert.ErrorIs(t, err, ErrNotSeller)

	f.ledger.Deposit("alice", 1000)
	_, err = f.engine.Bid(auction.Id, "alice", 1000)
	require.NoError(t, err)

	_, err = f.engine.CancelAuction(auction.Id, "seller")
	assert.ErrorIs(t, err, ErrHasBids)

	// The held bid has to settle instead.
	f.now = auction.EndTime
	_, err = f.engine.SettleAuction(auction.Id, "seller")
	require.NoError(t, err)
}

func TestCancelAuction_WithoutBids(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	cancelled, err := f.engine.CancelAuction(auction.Id, "seller")
	require.NoError(t, err)
	assert.False(t, cancelled.Active)

	_, err = f.engine.CancelAuction(auction.Id, "seller")
	assert.ErrorIs(t, err, ErrNotActive)

	// The token can be auctioned again.
	_, err = f.engine.CreateAuction("seller", token, 2000, 0)
	require.NoError(t, err)
}

func TestGetAuctionForToken(t *testing.T) {
	f := newFixture(t)
	token := f.mintFor("seller")

	_, err := f.engine.GetAuctionForToken(token)
	assert.ErrorIs(t, err, ErrNotFound)

	auction, err := f.engine.CreateAuction("seller", token, 1000, 0)
	require.NoError(t, err)

	found, err := f.engine.GetAuctionForToken(token)
	require.NoError(t, err)
	assert.Equal(t, auction.Id, found.Id)
}
