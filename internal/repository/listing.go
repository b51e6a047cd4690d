package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/nft-marketplace-engine/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrListingNotFound = errors.New("listing not found")
)

type ListingRepository interface {
	GetListing(id string) (entity.Listing, error)
	GetListingsForToken(contract string, tokenId uint64) ([]entity.Listing, error)
	GetActiveListings(size int) ([]entity.Listing, error)
}

type listingRepository struct {
	elastic elastic_search.Index
}

func NewListingRepository(elastic elastic_search.Index) ListingRepository {
	return listingRepository{elastic}
}

func (r listingRepository) GetListing(id string) (entity.Listing, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(elastic.NewTermQuery("id.keyword", id)).
		Size(1))

	return r.findOne(result, err)
}

func (r listingRepository) GetListingsForToken(contract string, tokenId uint64) ([]entity.Listing, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("token.contract.keyword", contract),
		elastic.NewTermQuery("token.tokenId", tokenId),
		elastic.NewTermQuery("active", true),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Size(100))

	return r.findAll(result, err)
}

func (r listingRepository) GetActiveListings(size int) ([]entity.Listing, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(elastic.NewTermQuery("active", true)).
		Sort("createdAt", false).
		Size(size))

	return r.findAll(result, err)
}

func (r listingRepository) findOne(results *elastic.SearchResult, err error) (entity.Listing, error) {
	if err != nil {
		return entity.Listing{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.Listing{}, ErrListingNotFound
	}

	var listing entity.Listing
	hit := results.Hits.Hits[0]
	err = json.Unmarshal(hit.Source, &listing)

	return listing, err
}

func (r listingRepository) findAll(results *elastic.SearchResult, err error) ([]entity.Listing, error) {
	listings := make([]entity.Listing, 0)
	if err != nil {
		return listings, err
	}

	for _, hit := range results.Hits.Hits {
		var listing entity.Listing
		if err := json.Unmarshal(hit.Source, &listing); err != nil {
			return listings, err
		}
		listings = append(listings, listing)
	}

	return listings, nil
}
