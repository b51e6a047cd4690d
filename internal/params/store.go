package params

import (
	"errors"
	"sync"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/event"
	"go.uber.org/zap"
)

var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrValueTooHigh  = errors.New("value too high")
	ErrInvalidValue  = errors.New("invalid value")
)

// Setter ceilings. An admin mistake must not be able to configure the
// marketplace into confiscatory fees.
const (
	MaxMarketplaceFeeBps uint64 = 1000
	MaxPlatformFeeBps    uint64 = 1000
	MaxRoyaltyCeilingBps uint64 = 5000
	MaxRecipientBps      uint64 = 1000
	MaxRoyaltyRecipients int    = 10
)

// Store holds the admin-mutable marketplace parameters. Get returns the
// record by value so an in-flight operation is never affected by a
// concurrent admin change.
type Store struct {
	mtx     sync.RWMutex
	current entity.Params
}

func NewStore(initial entity.Params) *Store {
	return &Store{current: initial}
}

func (s *Store) Get() entity.Params {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.current
}

func (s *Store) SetMarketplaceFeeBps(caller string, value uint64) error {
	return s.set(caller, func(p *entity.Params) error {
		if value > MaxMarketplaceFeeBps {
			return ErrValueTooHigh
		}
		p.MarketplaceFeeBps = value
		return nil
	})
}

func (s *Store) SetPlatformFeeBps(caller string, value uint64) error {
	return s.set(caller, func(p *entity.Params) error {
		if value > MaxPlatformFeeBps {
			return ErrValueTooHigh
		}
		p.PlatformFeeBps = value
		return nil
	})
}

func (s *Store) SetMaxTotalRoyaltyBps(caller string, value uint64) error {
	return s.set(caller, func(p *entity.Params) error {
		if value > MaxRoyaltyCeilingBps {
			return ErrValueTooHigh
		}
		p.MaxTotalRoyaltyBps = value
		return nil
	})
}

func (s *Store) SetListingFee(caller string, value uint64) error {
	return s.set(caller, func(p *entity.Params) error {
		p.ListingFee = value
		return nil
	})
}

func (s *Store) SetDefaultAuctionDuration(caller string, value int64) error {
	return s.set(caller, func(p *entity.Params) error {
		if value <= 0 {
			return ErrInvalidValue
		}
		p.DefaultAuctionDuration = value
		return nil
	})
}

func (s *Store) SetDefaultOfferDuration(caller string, value int64) error {
	return s.set(caller, func(p *entity.Params) error {
		if value <= 0 {
			return ErrInvalidValue
		}
		p.DefaultOfferDuration = value
		return nil
	})
}

func (s *Store) SetFeeRecipient(caller string, account string) error {
	return s.set(caller, func(p *entity.Params) error {
		if account == "" {
			return ErrInvalidValue
		}
		p.FeeRecipient = account
		return nil
	})
}

func (s *Store) SetPlatformRecipient(caller string, account string) error {
	return s.set(caller, func(p *entity.Params) error {
		if account == "" {
			return ErrInvalidValue
		}
		p.PlatformRecipient = account
		return nil
	})
}

func (s *Store) set(caller string, mutate func(p *entity.Params) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if caller != s.current.Admin {
		zap.L().With(zap.String("caller", caller)).Warn("Params: Unauthorized mutation")
		return ErrNotAuthorized
	}

	next := s.current
	if err := mutate(&next); err != nil {
		return err
	}
	s.current = next

	event.EmitEvent(event.ParamsUpdatedEvent, next)

	return nil
}
