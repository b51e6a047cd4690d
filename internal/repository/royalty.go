package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/nft-marketplace-engine/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrRoyaltyConfigNotFound = errors.New("royalty config not found")
)

type RoyaltyRepository interface {
	GetConfigForToken(contract string, tokenId uint64) (entity.RoyaltyConfig, error)
}

type royaltyRepository struct {
	elastic elastic_search.Index
}

func NewRoyaltyRepository(elastic elastic_search.Index) RoyaltyRepository {
	return royaltyRepository{elastic}
}

func (r royaltyRepository) GetConfigForToken(contract string, tokenId uint64) (entity.RoyaltyConfig, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("token.contract.keyword", contract),
		elastic.NewTermQuery("token.tokenId", tokenId),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.RoyaltyIndex.Get()).
		Query(query).
		Size(1))

	if err != nil {
		return entity.RoyaltyConfig{}, err
	}

	if len(result.Hits.Hits) == 0 {
		return entity.RoyaltyConfig{}, ErrRoyaltyConfigNotFound
	}

	var config entity.RoyaltyConfig
	err = json.Unmarshal(result.Hits.Hits[0].Source, &config)

	return config, err
}
