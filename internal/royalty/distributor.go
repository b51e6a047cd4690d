package royalty

import (
	"errors"
	"sync"
	"time"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/event"
	"github.com/ZilDuck/nft-marketplace-engine/internal/params"
	"github.com/ZilDuck/nft-marketplace-engine/internal/payment"
	"github.com/ZilDuck/nft-marketplace-engine/internal/registry"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

var (
	ErrNotAuthorized       = errors.New("not authorized")
	ErrLengthMismatch      = errors.New("length mismatch")
	ErrEmptyRecipients     = errors.New("empty recipients")
	ErrTooManyRecipients   = errors.New("too many recipients")
	ErrPercentageTooHigh   = errors.New("percentage too high")
	ErrTotalTooHigh        = errors.New("total too high")
	ErrInvalidIndex        = errors.New("invalid index")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrConfigNotFound      = errors.New("royalty config not found")
)

// Breakdown is the settlement split for a sale price. Remaining absorbs the
// integer truncation of the bps maths so the three parts never exceed the
// price.
type Breakdown struct {
	TotalRoyalty uint64 `json:"totalRoyalty"`
	PlatformFee  uint64 `json:"platformFee"`
	Remaining    uint64 `json:"remaining"`
}

type Distributor interface {
	SetConfig(caller string, token entity.Token, recipients []string, percentagesBps []uint64, roles []string) (*entity.RoyaltyConfig, error)
	AddRecipient(caller string, token entity.Token, recipient string, percentageBps uint64, role string) (*entity.RoyaltyConfig, error)
	RemoveRecipient(caller string, token entity.Token, index int) (*entity.RoyaltyConfig, error)
	GetConfig(token entity.Token) (*entity.RoyaltyConfig, error)

	Calculate(token entity.Token, salePrice uint64) Breakdown
	Distribute(caller string, token entity.Token, salePrice, paymentReceived uint64) error

	Stage(batch *payment.Batch, token entity.Token, salePrice uint64) uint64
}

type distributor struct {
	mtx      sync.RWMutex
	configs  map[string]*entity.RoyaltyConfig
	registry registry.Service
	channel  payment.Channel
	params   *params.Store
	operator string
}

func NewDistributor(registryService registry.Service, channel payment.Channel, paramsStore *params.Store, operator string) Distributor {
	return &distributor{
		configs:  make(map[string]*entity.RoyaltyConfig),
		registry: registryService,
		channel:  channel,
		params:   paramsStore,
		operator: operator,
	}
}

func (d *distributor) SetConfig(caller string, token entity.Token, recipients []string, percentagesBps []uint64, roles []string) (*entity.RoyaltyConfig, error) {
	if err := d.authorize(caller, token); err != nil {
		return nil, err
	}

	if len(recipients) != len(percentagesBps) || len(recipients) != len(roles) {
		return nil, ErrLengthMismatch
	}
	if len(recipients) == 0 {
		return nil, ErrEmptyRecipients
	}
	if len(recipients) > params.MaxRoyaltyRecipients {
		return nil, ErrTooManyRecipients
	}

	maxTotal := d.params.Get().MaxTotalRoyaltyBps

	var total uint64
	entries := make([]entity.RoyaltyRecipient, 0, len(recipients))
	for i, recipient := range recipients {
		if percentagesBps[i] == 0 || percentagesBps[i] > params.MaxRecipientBps {
			return nil, ErrPercentageTooHigh
		}
		total += percentagesBps[i]
		entries = append(entries, entity.RoyaltyRecipient{
			Address:       recipient,
			PercentageBps: percentagesBps[i],
			Role:          slug.Make(roles[i]),
		})
	}

	if total > maxTotal {
		return nil, ErrTotalTooHigh
	}

	config := &entity.RoyaltyConfig{
		Token:      token,
		Recipients: entries,
		TotalBps:   total,
		UpdatedAt:  time.Now().Unix(),
		Active:     true,
	}

	d.mtx.Lock()
	d.configs[token.Slug()] = config
	d.mtx.Unlock()

	zap.L().With(
		zap.String("token", token.String()),
		zap.Uint64("totalBps", total),
		zap.Int("recipients", len(entries)),
	).Info("Royalty: Config replaced")

	d.emit(config)

	return copyConfig(config), nil
}

func (d *distributor) AddRecipient(caller string, token entity.Token, recipient string, percentageBps uint64, role string) (*entity.RoyaltyConfig, error) {
	if err := d.authorize(caller, token); err != nil {
		return nil, err
	}

	if percentageBps == 0 || percentageBps > params.MaxRecipientBps {
		return nil, ErrPercentageTooHigh
	}

	maxTotal := d.params.Get().MaxTotalRoyaltyBps

	d.mtx.Lock()
	defer d.mtx.Unlock()

	config, ok := d.configs[token.Slug()]
	if !ok {
		config = &entity.RoyaltyConfig{Token: token, Active: true}
	}

	if len(config.Recipients) >= params.MaxRoyaltyRecipients {
		return nil, ErrTooManyRecipients
	}
	if config.TotalBps+percentageBps > maxTotal {
		return nil, ErrTotalTooHigh
	}

	config.Recipients = append(config.Recipients, entity.RoyaltyRecipient{
		Address:       recipient,
		PercentageBps: percentageBps,
		Role:          slug.Make(role),
	})
	config.TotalBps += percentageBps
	config.UpdatedAt = time.Now().Unix()
	d.configs[token.Slug()] = config

	d.emit(config)

	return copyConfig(config), nil
}

func (d *distributor) RemoveRecipient(caller string, token entity.Token, index int) (*entity.RoyaltyConfig, error) {
	if err := d.authorize(caller, token); err != nil {
		return nil, err
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	config, ok := d.configs[token.Slug()]
	if !ok || index < 0 || index >= len(config.Recipients) {
		return nil, ErrInvalidIndex
	}

	config.TotalBps -= config.Recipients[index].PercentageBps

	// Swap-with-last removal; the recipient order is not load bearing.
	last := len(config.Recipients) - 1
	config.Recipients[index] = config.Recipients[last]
	config.Recipients = config.Recipients[:last]
	config.UpdatedAt = time.Now().Unix()

	d.emit(config)

	return copyConfig(config), nil
}

func (d *distributor) GetConfig(token entity.Token) (*entity.RoyaltyConfig, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	config, ok := d.configs[token.Slug()]
	if !ok {
		return nil, ErrConfigNotFound
	}

	return copyConfig(config), nil
}

// Calculate never fails: settlement of a token with no royalty config must
// not be blocked by this component. Without an active config the whole price
// remains with the caller.
func (d *distributor) Calculate(token entity.Token, salePrice uint64) Breakdown {
	return d.breakdown(d.params.Get(), token, salePrice)
}

func (d *distributor) breakdown(p entity.Params, token entity.Token, salePrice uint64) Breakdown {
	d.mtx.RLock()
	config, ok := d.configs[token.Slug()]
	d.mtx.RUnlock()

	if !ok || !config.Active {
		return Breakdown{Remaining: salePrice}
	}

	platformFee := payment.Portion(salePrice, p.PlatformFeeBps)
	totalRoyalty := payment.Portion(salePrice, config.TotalBps)

	return Breakdown{
		TotalRoyalty: totalRoyalty,
		PlatformFee:  platformFee,
		Remaining:    salePrice - totalRoyalty - platformFee,
	}
}

// Stage appends each recipient payout for salePrice to the batch and returns
// the amount actually staged, which is the sum of the truncated per-recipient
// payouts. The caller settles the difference into the seller remainder.
func (d *distributor) Stage(batch *payment.Batch, token entity.Token, salePrice uint64) uint64 {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	config, ok := d.configs[token.Slug()]
	if !ok || !config.Active {
		return 0
	}

	var staged uint64
	for _, recipient := range config.Recipients {
		payout := payment.Portion(salePrice, recipient.PercentageBps)
		batch.Pay(recipient.Address, payout)
		staged += payout
	}

	return staged
}

// Distribute is the standalone settlement primitive for sales the engine did
// not broker. The caller hands over paymentReceived; royalties and the
// platform fee are paid out and everything left, including the integer
// truncation remainder and any excess above salePrice, returns to the caller.
func (d *distributor) Distribute(caller string, token entity.Token, salePrice, paymentReceived uint64) error {
	if paymentReceived < salePrice {
		return ErrInsufficientPayment
	}

	// One params snapshot covers the whole operation; a concurrent admin
	// change cannot split the breakdown from the recipient it funds.
	p := d.params.Get()
	breakdown := d.breakdown(p, token, salePrice)

	batch := payment.NewBatch(d.channel)
	batch.Collect(caller, paymentReceived)

	staged := d.Stage(batch, token, salePrice)

	batch.Pay(p.PlatformRecipient, breakdown.PlatformFee)
	batch.Pay(caller, paymentReceived-staged-breakdown.PlatformFee)

	if err := batch.Commit(); err != nil {
		zap.L().With(zap.Error(err), zap.String("token", token.String())).Error("Royalty: Distribute aborted")
		return err
	}

	zap.L().With(
		zap.String("token", token.String()),
		zap.Uint64("salePrice", salePrice),
		zap.Uint64("royalty", staged),
		zap.Uint64("platformFee", breakdown.PlatformFee),
	).Info("Royalty: Distributed")

	return nil
}

// authorize re-checks ownership/approval against the registry on every call.
// A config owner can lose the right to mutate by transferring the token.
func (d *distributor) authorize(caller string, token entity.Token) error {
	owner, err := d.registry.OwnerOf(token)
	if err != nil {
		return err
	}
	if owner == caller {
		return nil
	}

	approved, err := d.registry.IsApprovedToTransfer(token, caller)
	if err != nil {
		return err
	}
	if !approved {
		return ErrNotAuthorized
	}

	return nil
}

func (d *distributor) emit(config *entity.RoyaltyConfig) {
	event.EmitEvent(event.RoyaltyConfigUpdatedEvent, *copyConfig(config))
}

func copyConfig(config *entity.RoyaltyConfig) *entity.RoyaltyConfig {
	c := *config
	c.Recipients = append([]entity.RoyaltyRecipient(nil), config.Recipients...)
	return &c
}
