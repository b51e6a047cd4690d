package params

import (
	"testing"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(entity.Params{
		MarketplaceFeeBps:      250,
		PlatformFeeBps:         25,
		MaxTotalRoyaltyBps:     1000,
		DefaultAuctionDuration: 86400,
		DefaultOfferDuration:   604800,
		FeeRecipient:           "fees",
		Admin:                  "admin",
	})
}

func TestStore_OnlyTheAdminCanMutate(t *testing.T) {
	store := newTestStore()

	err := store.SetMarketplaceFeeBps("stranger", 100)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, uint64(250), store.Get().MarketplaceFeeBps)

	require.NoError(t, store.SetMarketplaceFeeBps("admin", 100))
	assert.Equal(t, uint64(100), store.Get().MarketplaceFeeBps)
}

func TestStore_Ceilings(t *testing.T) {
	store := newTestStore()

	assert.ErrorIs(t, store.SetMarketplaceFeeBps("admin", 1001), ErrValueTooHigh)
	assert.ErrorIs(t, store.SetPlatformFeeBps("admin", 1001), ErrValueTooHigh)
	assert.ErrorIs(t, store.SetMaxTotalRoyaltyBps("admin", 5001), ErrValueTooHigh)

	// Nothing changed.
	p := store.Get()
	assert.Equal(t, uint64(250), p.MarketplaceFeeBps)
	assert.Equal(t, uint64(25), p.PlatformFeeBps)
	assert.Equal(t, uint64(1000), p.MaxTotalRoyaltyBps)
}

func TestStore_Durations(t *testing.T) {
	store := newTestStore()

	assert.ErrorIs(t, store.SetDefaultAuctionDuration("admin", 0), ErrInvalidValue)
	assert.ErrorIs(t, store.SetDefaultOfferDuration("admin", -1), ErrInvalidValue)

	require.NoError(t, store.SetDefaultAuctionDuration("admin", 3600))
	assert.Equal(t, int64(3600), store.Get().DefaultAuctionDuration)
}

func TestStore_Recipients(t *testing.T) {
	store := newTestStore()

	assert.ErrorIs(t, store.SetFeeRecipient("admin", ""), ErrInvalidValue)
	assert.ErrorIs(t, store.SetPlatformRecipient("admin", ""), ErrInvalidValue)

	require.NoError(t, store.SetFeeRecipient("admin", "treasury"))
	assert.Equal(t, "treasury", store.Get().FeeRecipient)
}

func TestStore_GetReturnsASnapshot(t *testing.T) {
	store := newTestStore()

	snapshot := store.Get()
	require.NoError(t, store.SetMarketplaceFeeBps("admin", 100))

	// The earlier read is unaffected by the later mutation.
	assert.Equal(t, uint64(250), snapshot.MarketplaceFeeBps)
}
