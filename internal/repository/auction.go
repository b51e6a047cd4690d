package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/nft-marketplace-engine/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrAuctionNotFound = errors.New("auction not found")
)

type AuctionRepository interface {
	GetAuction(id string) (entity.Auction, error)
	GetAuctionForToken(contract string, tokenId uint64) (entity.Auction, error)
	GetEndedAuctions(now int64, size int) ([]entity.Auction, error)
}

type auctionRepository struct {
	elastic elastic_search.Index
}

func NewAuctionRepository(elastic elastic_search.Index) AuctionRepository {
	return auctionRepository{elastic}
}

func (r auctionRepository) GetAuction(id string) (entity.Auction, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.AuctionIndex.Get()).
		Query(elastic.NewTermQuery("id.keyword", id)).
		Size(1))

	return r.findOne(result, err)
}

func (r auctionRepository) GetAuctionForToken(contract string, tokenId uint64) (entity.Auction, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("token.contract.keyword", contract),
		elastic.NewTermQuery("token.tokenId", tokenId),
		elastic.NewTermQuery("active", true),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.AuctionIndex.Get()).
		Query(query).
		Size(1))

	return r.findOne(result, err)
}

// GetEndedAuctions returns active auctions whose end time has passed and are
// waiting for someone to settle them.
func (r auctionRepository) GetEndedAuctions(now int64, size int) ([]entity.Auction, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("active", true),
		elastic.NewRangeQuery("endTime").Lte(now),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.AuctionIndex.Get()).
		Query(query).
		Sort("endTime", true).
		Size(size))

	return r.findAll(result, err)
}

func (r auctionRepository) findOne(results *elastic.SearchResult, err error) (entity.Auction, error) {
	if err != nil {
		return entity.Auction{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.Auction{}, ErrAuctionNotFound
	}

	var auction entity.Auction
	hit := results.Hits.Hits[0]
	err = json.Unmarshal(hit.Source, &auction)

	return auction, err
}

func (r auctionRepository) findAll(results *elastic.SearchResult, err error) ([]entity.Auction, error) {
	auctions := make([]entity.Auction, 0)
	if err != nil {
		return auctions, err
	}

	for _, hit := range results.Hits.Hits {
		var auction entity.Auction
		if err := json.Unmarshal(hit.Source, &auction); err != nil {
			return auctions, err
		}
		auctions = append(auctions, auction)
	}

	return auctions, nil
}
