package di

import (
	"time"

	"github.com/ZilDuck/nft-marketplace-engine/internal/api"
	"github.com/ZilDuck/nft-marketplace-engine/internal/config"
	"github.com/ZilDuck/nft-marketplace-engine/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/indexer"
	"github.com/ZilDuck/nft-marketplace-engine/internal/marketplace"
	"github.com/ZilDuck/nft-marketplace-engine/internal/messenger"
	"github.com/ZilDuck/nft-marketplace-engine/internal/params"
	"github.com/ZilDuck/nft-marketplace-engine/internal/payment"
	"github.com/ZilDuck/nft-marketplace-engine/internal/registry"
	"github.com/ZilDuck/nft-marketplace-engine/internal/repository"
	"github.com/ZilDuck/nft-marketplace-engine/internal/royalty"
	"github.com/patrickmn/go-cache"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var Definitions = []di.Def{
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := elastic_search.New()
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
			}

			return elastic, nil
		},
	},
	{
		Name: "cache",
		Build: func(ctn di.Container) (interface{}, error) {
			return cache.New(5*time.Minute, 10*time.Minute), nil
		},
	},
	{
		Name: "registry",
		Build: func(ctn di.Container) (interface{}, error) {
			client, err := registry.NewClient(
				config.Get().Registry.Url,
				config.Get().Registry.Timeout,
				config.Get().Registry.Debug,
			)
			if err != nil {
				return nil, err
			}

			return registry.NewRegistryService(registry.NewProvider(client)), nil
		},
	},
	{
		Name: "ledger",
		Build: func(ctn di.Container) (interface{}, error) {
			return payment.NewLedger(), nil
		},
	},
	{
		Name: "params",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()
			return params.NewStore(entity.Params{
				MarketplaceFeeBps:      cfg.MarketplaceFeeBps,
				ListingFee:             cfg.ListingFee,
				PlatformFeeBps:         cfg.PlatformFeeBps,
				MaxTotalRoyaltyBps:     cfg.MaxTotalRoyaltyBps,
				DefaultAuctionDuration: cfg.DefaultAuctionDuration,
				DefaultOfferDuration:   cfg.DefaultOfferDuration,
				FeeRecipient:           cfg.FeeRecipient,
				PlatformRecipient:      cfg.PlatformRecipient,
				Admin:                  cfg.Admin,
			}), nil
		},
	},
	{
		Name: "royalty",
		Build: func(ctn di.Container) (interface{}, error) {
			return royalty.NewDistributor(
				ctn.Get("registry").(registry.Service),
				ctn.Get("ledger").(*payment.Ledger),
				ctn.Get("params").(*params.Store),
				config.Get().EngineOperator,
			), nil
		},
	},
	{
		Name: "engine",
		Build: func(ctn di.Container) (interface{}, error) {
			return marketplace.NewEngine(
				ctn.Get("registry").(registry.Service),
				ctn.Get("ledger").(*payment.Ledger),
				ctn.Get("royalty").(royalty.Distributor),
				ctn.Get("params").(*params.Store),
				config.Get().EngineOperator,
			), nil
		},
	},
	{
		Name: "marketplace.indexer",
		Build: func(ctn di.Container) (interface{}, error) {
			return indexer.NewMarketplaceIndexer(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "listing.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewListingRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "offer.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewOfferRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "auction.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewAuctionRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "royalty.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewRoyaltyRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewMessenger(config.Get().Amqp.Uri), nil
		},
	},
	{
		Name: "api",
		Build: func(ctn di.Container) (interface{}, error) {
			return api.NewServer(
				ctn.Get("engine").(*marketplace.Engine),
				ctn.Get("royalty").(royalty.Distributor),
				ctn.Get("params").(*params.Store),
				ctn.Get("listing.repo").(repository.ListingRepository),
				ctn.Get("offer.repo").(repository.OfferRepository),
				ctn.Get("cache").(*cache.Cache),
			), nil
		},
	},
}

func NewContainer() (di.Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(Definitions...); err != nil {
		return nil, err
	}

	return builder.Build(), nil
}
