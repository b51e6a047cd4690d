package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/nft-marketplace-engine/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrOfferNotFound = errors.New("offer not found")
)

type OfferRepository interface {
	GetOffer(id string) (entity.Offer, error)
	GetOffersForToken(contract string, tokenId uint64) ([]entity.Offer, error)
	GetExpiredOffers(now int64, size int) ([]entity.Offer, error)
}

type offerRepository struct {
	elastic elastic_search.Index
}

func NewOfferRepository(elastic elastic_search.Index) OfferRepository {
	return offerRepository{elastic}
}

func (r offerRepository) GetOffer(id string) (entity.Offer, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.OfferIndex.Get()).
		Query(elastic.NewTermQuery("id.keyword", id)).
		Size(1))

	return r.findOne(result, err)
}

func (r offerRepository) GetOffersForToken(contract string, tokenId uint64) ([]entity.Offer, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("token.contract.keyword", contract),
		elastic.NewTermQuery("token.tokenId", tokenId),
		elastic.NewTermQuery("active", true),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.OfferIndex.Get()).
		Query(query).
		Size(100))

	return r.findAll(result, err)
}

// GetExpiredOffers returns active offers whose expiry has passed. These hold
// escrow that only a cancel (or the admin sweep) will release.
func (r offerRepository) GetExpiredOffers(now int64, size int) ([]entity.Offer, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("active", true),
		elastic.NewRangeQuery("expiresAt").Gt(0).Lt(now),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.OfferIndex.Get()).
		Query(query).
		Sort("expiresAt", true).
		Size(size))

	return r.findAll(result, err)
}

func (r offerRepository) findOne(results *elastic.SearchResult, err error) (entity.Offer, error) {
	if err != nil {
		return entity.Offer{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.Offer{}, ErrOfferNotFound
	}

	var offer entity.Offer
	hit := results.Hits.Hits[0]
	err = json.Unmarshal(hit.Source, &offer)

	return offer, err
}

func (r offerRepository) findAll(results *elastic.SearchResult, err error) ([]entity.Offer, error) {
	offers := make([]entity.Offer, 0)
	if err != nil {
		return offers, err
	}

	for _, hit := range results.Hits.Hits {
		var offer entity.Offer
		if err := json.Unmarshal(hit.Source, &offer); err != nil {
			return offers, err
		}
		offers = append(offers, offer)
	}

	return offers, nil
}
