package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/ZilDuck/nft-marketplace-engine/internal/marketplace"
	"github.com/ZilDuck/nft-marketplace-engine/internal/params"
	"github.com/ZilDuck/nft-marketplace-engine/internal/repository"
	"github.com/ZilDuck/nft-marketplace-engine/internal/royalty"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Server exposes the engine surface over HTTP: the operations of the
// listing/offer/auction managers and the royalty distributor, read
// accessors, and the admin parameter setters. Authoritative state reads come
// from the engine; catalog queries come from the elastic read models with a
// short cache in front.
type Server struct {
	engine      *marketplace.Engine
	royalty     royalty.Distributor
	params      *params.Store
	listingRepo repository.ListingRepository
	offerRepo   repository.OfferRepository
	cache       *cache.Cache
}

func NewServer(
	engine *marketplace.Engine,
	distributor royalty.Distributor,
	paramsStore *params.Store,
	listingRepo repository.ListingRepository,
	offerRepo repository.OfferRepository,
	c *cache.Cache,
) Server {
	return Server{engine, distributor, paramsStore, listingRepo, offerRepo, c}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHomepage).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/listing", s.handleCreateListing).Methods("POST")
	r.HandleFunc("/listing/{id}", s.handleGetListing).Methods("GET")
	r.HandleFunc("/listing/{id}/fulfil", s.handleFulfilListing).Methods("POST")
	r.HandleFunc("/listing/{id}/cancel", s.handleCancelListing).Methods("POST")
	r.HandleFunc("/listings", s.handleActiveListings).Methods("GET")

	r.HandleFunc("/offer", s.handleCreateOffer).Methods("POST")
	r.HandleFunc("/offer/{id}", s.handleGetOffer).Methods("GET")
	r.HandleFunc("/offer/{id}/accept", s.handleAcceptOffer).Methods("POST")
	r.HandleFunc("/offer/{id}/cancel", s.handleCancelOffer).Methods("POST")
	r.HandleFunc("/offers/expired", s.handleExpiredOffers).Methods("GET")

	r.HandleFunc("/auction", s.handleCreateAuction).Methods("POST")
	r.HandleFunc("/auction/{id}", s.handleGetAuction).Methods("GET")
	r.HandleFunc("/auction/{id}/bid", s.handleBid).Methods("POST")
	r.HandleFunc("/auction/{id}/settle", s.handleSettleAuction).Methods("POST")
	r.HandleFunc("/auction/{id}/cancel", s.handleCancelAuction).Methods("POST")

	r.HandleFunc("/token/{contract}/{tokenId}/listings", s.handleTokenListings).Methods("GET")
	r.HandleFunc("/token/{contract}/{tokenId}/offers", s.handleTokenOffers).Methods("GET")
	r.HandleFunc("/token/{contract}/{tokenId}/auction", s.handleTokenAuction).Methods("GET")
	r.HandleFunc("/token/{contract}/{tokenId}/royalty", s.handleTokenRoyalty).Methods("GET")
	r.HandleFunc("/token/{contract}/{tokenId}/royalty", s.handleSetRoyalty).Methods("POST")
	r.HandleFunc("/token/{contract}/{tokenId}/royalty/recipient", s.handleAddRoyaltyRecipient).Methods("POST")
	r.HandleFunc("/token/{contract}/{tokenId}/royalty/recipient/{index}", s.handleRemoveRoyaltyRecipient).Methods("DELETE")
	r.HandleFunc("/token/{contract}/{tokenId}/royalty/calculate", s.handleCalculateRoyalty).Methods("GET")
	r.HandleFunc("/token/{contract}/{tokenId}/royalty/distribute", s.handleDistribute).Methods("POST")

	r.HandleFunc("/admin/params", s.handleGetParams).Methods("GET")
	r.HandleFunc("/admin/params", s.handleSetParam).Methods("POST")
	r.HandleFunc("/admin/offers/sweep", s.handleSweepOffers).Methods("POST")

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	_, _ = fmt.Fprintf(w, "NFT Marketplace Engine")
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

type createListingRequest struct {
	Seller    string `json:"seller"`
	Contract  string `json:"contract"`
	TokenId   uint64 `json:"tokenId"`
	Price     uint64 `json:"price"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (s Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if !decode(w, r, &req) {
		return
	}

	listing, err := s.engine.CreateListing(req.Seller, entity.Token{Contract: req.Contract, TokenId: req.TokenId}, req.Price, req.ExpiresAt)
	respond(w, listing, err)
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.engine.GetListing(mux.Vars(r)["id"])
	respond(w, listing, err)
}

type fulfilRequest struct {
	Buyer   string `json:"buyer"`
	Payment uint64 `json:"payment"`
}

func (s Server) handleFulfilListing(w http.ResponseWriter, r *http.Request) {
	var req fulfilRequest
	if !decode(w, r, &req) {
		return
	}

	listing, err := s.engine.FulfilListing(mux.Vars(r)["id"], req.Buyer, req.Payment)
	respond(w, listing, err)
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	listing, err := s.engine.CancelListing(mux.Vars(r)["id"], req.Caller)
	respond(w, listing, err)
}

func (s Server) handleActiveListings(w http.ResponseWriter, r *http.Request) {
	if cached, found := s.cache.Get("listings.active"); found {
		respond(w, cached, nil)
		return
	}

	listings, err := s.listingRepo.GetActiveListings(100)
	if err == nil {
		s.cache.Set("listings.active", listings, 30*time.Second)
	}

	respond(w, listings, err)
}

type createOfferRequest struct {
	Bidder    string `json:"bidder"`
	Contract  string `json:"contract"`
	TokenId   uint64 `json:"tokenId"`
	Amount    uint64 `json:"amount"`
	ExpiresAt int64  `json:"expiresAt"`
	Escrowed  uint64 `json:"escrowed"`
}

func (s Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if !decode(w, r, &req) {
		return
	}

	offer, err := s.engine.CreateOffer(req.Bidder, entity.Token{Contract: req.Contract, TokenId: req.TokenId}, req.Amount, req.ExpiresAt, req.Escrowed)
	respond(w, offer, err)
}

func (s Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := s.engine.GetOffer(mux.Vars(r)["id"])
	respond(w, offer, err)
}

func (s Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	offer, err := s.engine.AcceptOffer(mux.Vars(r)["id"], req.Caller)
	respond(w, offer, err)
}

func (s Server) handleCancelOffer(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	offer, err := s.engine.CancelOffer(mux.Vars(r)["id"], req.Caller)
	respond(w, offer, err)
}

func (s Server) handleExpiredOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.offerRepo.GetExpiredOffers(time.Now().Unix(), 100)
	respond(w, offers, err)
}

type createAuctionRequest struct {
	Seller        string `json:"seller"`
	Contract      string `json:"contract"`
	TokenId       uint64 `json:"tokenId"`
	StartingPrice uint64 `json:"startingPrice"`
	Duration      int64  `json:"duration"`
}

func (s Server) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	var req createAuctionRequest
	if !decode(w, r, &req) {
		return
	}

	auction, err := s.engine.CreateAuction(req.Seller, entity.Token{Contract: req.Contract, TokenId: req.TokenId}, req.StartingPrice, req.Duration)
	respond(w, auction, err)
}

func (s Server) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	auction, err := s.engine.GetAuction(mux.Vars(r)["id"])
	respond(w, auction, err)
}

type bidRequest struct {
	Bidder string `json:"bidder"`
	Amount uint64 `json:"amount"`
}

func (s Server) handleBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if !decode(w, r, &req) {
		return
	}

	auction, err := s.engine.Bid(mux.Vars(r)["id"], req.Bidder, req.Amount)
	respond(w, auction, err)
}

func (s Server) handleSettleAuction(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	auction, err := s.engine.SettleAuction(mux.Vars(r)["id"], req.Caller)
	respond(w, auction, err)
}

func (s Server) handleCancelAuction(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	auction, err := s.engine.CancelAuction(mux.Vars(r)["id"], req.Caller)
	respond(w, auction, err)
}

func (s Server) handleTokenListings(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	respond(w, s.engine.GetListingsForToken(token), nil)
}

func (s Server) handleTokenOffers(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	respond(w, s.engine.GetOffersForToken(token), nil)
}

func (s Server) handleTokenAuction(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	auction, err := s.engine.GetAuctionForToken(token)
	respond(w, auction, err)
}

func (s Server) handleTokenRoyalty(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	config, err := s.royalty.GetConfig(token)
	respond(w, config, err)
}

type setRoyaltyRequest struct {
	Caller         string   `json:"caller"`
	Recipients     []string `json:"recipients"`
	PercentagesBps []uint64 `json:"percentagesBps"`
	Roles          []string `json:"roles"`
}

func (s Server) handleSetRoyalty(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	var req setRoyaltyRequest
	if !decode(w, r, &req) {
		return
	}

	config, err := s.royalty.SetConfig(req.Caller, token, req.Recipients, req.PercentagesBps, req.Roles)
	respond(w, config, err)
}

type addRecipientRequest struct {
	Caller        string `json:"caller"`
	Recipient     string `json:"recipient"`
	PercentageBps uint64 `json:"percentageBps"`
	Role          string `json:"role"`
}

func (s Server) handleAddRoyaltyRecipient(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	var req addRecipientRequest
	if !decode(w, r, &req) {
		return
	}

	config, err := s.royalty.AddRecipient(req.Caller, token, req.Recipient, req.PercentageBps, req.Role)
	respond(w, config, err)
}

func (s Server) handleRemoveRoyaltyRecipient(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	config, err := s.royalty.RemoveRecipient(req.Caller, token, index)
	respond(w, config, err)
}

func (s Server) handleCalculateRoyalty(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	salePrice, err := strconv.ParseUint(r.URL.Query().Get("salePrice"), 10, 64)
	if err != nil {
		http.Error(w, "invalid salePrice", http.StatusBadRequest)
		return
	}

	respond(w, s.royalty.Calculate(token, salePrice), nil)
}

type distributeRequest struct {
	Caller          string `json:"caller"`
	SalePrice       uint64 `json:"salePrice"`
	PaymentReceived uint64 `json:"paymentReceived"`
}

func (s Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	token, ok := getToken(w, r)
	if !ok {
		return
	}

	var req distributeRequest
	if !decode(w, r, &req) {
		return
	}

	err := s.royalty.Distribute(req.Caller, token, req.SalePrice, req.PaymentReceived)
	respond(w, map[string]bool{"distributed": err == nil}, err)
}

func (s Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	respond(w, s.params.Get(), nil)
}

type setParamRequest struct {
	Caller string `json:"caller"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

func (s Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	var req setParamRequest
	if !decode(w, r, &req) {
		return
	}

	err := s.setParam(req)
	respond(w, s.params.Get(), err)
}

func (s Server) setParam(req setParamRequest) error {
	switch req.Name {
	case "marketplaceFeeBps":
		value, err := strconv.ParseUint(req.Value, 10, 64)
		if err != nil {
			return params.ErrInvalidValue
		}
		return s.params.SetMarketplaceFeeBps(req.Caller, value)
	case "platformFeeBps":
		value, err := strconv.ParseUint(req.Value, 10, 64)
		if err != nil {
			return params.ErrInvalidValue
		}
		return s.params.SetPlatformFeeBps(req.Caller, value)
	case "maxTotalRoyaltyBps":
		value, err := strconv.ParseUint(req.Value, 10, 64)
		if err != nil {
			return params.ErrInvalidValue
		}
		return s.params.SetMaxTotalRoyaltyBps(req.Caller, value)
	case "listingFee":
		value, err := strconv.ParseUint(req.Value, 10, 64)
		if err != nil {
			return params.ErrInvalidValue
		}
		return s.params.SetListingFee(req.Caller, value)
	case "defaultAuctionDuration":
		value, err := strconv.ParseInt(req.Value, 10, 64)
		if err != nil {
			return params.ErrInvalidValue
		}
		return s.params.SetDefaultAuctionDuration(req.Caller, value)
	case "defaultOfferDuration":
		value, err := strconv.ParseInt(req.Value, 10, 64)
		if err != nil {
			return params.ErrInvalidValue
		}
		return s.params.SetDefaultOfferDuration(req.Caller, value)
	case "feeRecipient":
		return s.params.SetFeeRecipient(req.Caller, req.Value)
	case "platformRecipient":
		return s.params.SetPlatformRecipient(req.Caller, req.Value)
	}

	return params.ErrInvalidValue
}

func (s Server) handleSweepOffers(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	swept, err := s.engine.SweepExpiredOffers(req.Caller)
	respond(w, map[string]int{"swept": swept}, err)
}

func getToken(w http.ResponseWriter, r *http.Request) (entity.Token, bool) {
	contract := mux.Vars(r)["contract"]
	tokenId, err := strconv.ParseUint(mux.Vars(r)["tokenId"], 10, 64)
	if err != nil {
		http.Error(w, "invalid token id", http.StatusBadRequest)
		return entity.Token{}, false
	}

	return entity.Token{Contract: contract, TokenId: tokenId}, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}

	return true
}

func respond(w http.ResponseWriter, body interface{}, err error) {
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to encode response")
	}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, marketplace.ErrNotFound),
		errors.Is(err, royalty.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, marketplace.ErrNotOwner),
		errors.Is(err, marketplace.ErrNotSeller),
		errors.Is(err, marketplace.ErrNotBidder),
		errors.Is(err, marketplace.ErrNotApproved),
		errors.Is(err, marketplace.ErrNotAuthorized),
		errors.Is(err, royalty.ErrNotAuthorized),
		errors.Is(err, params.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, marketplace.ErrInsufficientPayment),
		errors.Is(err, marketplace.ErrInsufficientEscrow),
		errors.Is(err, royalty.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, marketplace.ErrNotActive),
		errors.Is(err, marketplace.ErrExpired),
		errors.Is(err, marketplace.ErrEnded),
		errors.Is(err, marketplace.ErrNotEnded),
		errors.Is(err, marketplace.ErrHasBids),
		errors.Is(err, marketplace.ErrAlreadyListed),
		errors.Is(err, marketplace.ErrDuplicateOffer),
		errors.Is(err, marketplace.ErrTransferFailed),
		errors.Is(err, marketplace.ErrRefundFailed),
		errors.Is(err, marketplace.ErrReentrantCall):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
}
