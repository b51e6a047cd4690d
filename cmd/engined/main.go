package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ZilDuck/nft-marketplace-engine/internal/api"
	"github.com/ZilDuck/nft-marketplace-engine/internal/config"
	"github.com/ZilDuck/nft-marketplace-engine/internal/config/di"
	"github.com/ZilDuck/nft-marketplace-engine/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-engine/internal/event"
	"github.com/ZilDuck/nft-marketplace-engine/internal/indexer"
	"github.com/ZilDuck/nft-marketplace-engine/internal/marketplace"
	"github.com/ZilDuck/nft-marketplace-engine/internal/messenger"
	"github.com/gorilla/mux"
	sarulabs "github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var container sarulabs.Container

func main() {
	config.Init("engined")

	var err error
	container, err = di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	elastic := container.Get("elastic").(elastic_search.Index)
	elastic.InstallMappings()

	mpIndexer := container.Get("marketplace.indexer").(indexer.MarketplaceIndexer)

	event.AddEventListener(event.ListingCreatedEvent, mpIndexer.OnListingCreated)
	event.AddEventListener(event.ListingFulfilledEvent, mpIndexer.OnListingFulfilled)
	event.AddEventListener(event.ListingCancelledEvent, mpIndexer.OnListingCancelled)
	event.AddEventListener(event.OfferCreatedEvent, mpIndexer.OnOfferCreated)
	event.AddEventListener(event.OfferAcceptedEvent, mpIndexer.OnOfferAccepted)
	event.AddEventListener(event.OfferCancelledEvent, mpIndexer.OnOfferCancelled)
	event.AddEventListener(event.AuctionCreatedEvent, mpIndexer.OnAuctionCreated)
	event.AddEventListener(event.AuctionBidEvent, mpIndexer.OnAuctionBid)
	event.AddEventListener(event.AuctionSettledEvent, mpIndexer.OnAuctionSettled)
	event.AddEventListener(event.AuctionCancelledEvent, mpIndexer.OnAuctionCancelled)
	event.AddEventListener(event.RoyaltyConfigUpdatedEvent, mpIndexer.OnRoyaltyConfigUpdated)

	if config.Get().Amqp.Uri != "" {
		publishSales(container.Get("messenger").(messenger.MessageService))
	}

	go health()
	go flushProjection(elastic)

	zap.L().With(
		zap.String("apiPort", config.Get().ApiPort),
		zap.String("healthPort", config.Get().HealthPort),
	).Info("Engine Started")

	server := container.Get("api").(api.Server)
	if err := http.ListenAndServe(":"+config.Get().ApiPort, server.Router()); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start engine api")
	}
}

// publishSales forwards every settlement observation to the amqp exchange
// for off-engine consumers.
func publishSales(messageService messenger.MessageService) {
	publish := func(msg interface{}) {
		body, err := json.Marshal(msg)
		if err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to marshal sale observation")
			return
		}

		if err := messageService.SendMessage(messenger.MarketplaceSales, body, false); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to publish sale observation")
		}
	}

	event.AddEventListener(event.ListingFulfilledEvent, func(msg interface{}) {
		if sale, ok := msg.(marketplace.ListingSale); ok {
			publish(sale)
		}
	})
	event.AddEventListener(event.OfferAcceptedEvent, func(msg interface{}) {
		if sale, ok := msg.(marketplace.OfferSale); ok {
			publish(sale)
		}
	})
	event.AddEventListener(event.AuctionSettledEvent, func(msg interface{}) {
		if sale, ok := msg.(marketplace.AuctionSale); ok {
			publish(sale)
		}
	})
}

// flushProjection drains the buffered read model requests in bulk once the
// threshold is hit, falling back to a full persist on each idle tick.
func flushProjection(elastic elastic_search.Index) {
	for {
		time.Sleep(time.Second)

		if !elastic.BatchPersist() {
			elastic.Persist()
		}
	}
}

func health() {
	if err := http.ListenAndServe(":"+config.Get().HealthPort, healthRouter()); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to start health endpoint")
	}
}

func healthRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK")
	}).Methods("GET")

	return r
}
