package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

type RoyaltyRecipient struct {
	Address       string `json:"address"`
	PercentageBps uint64 `json:"percentageBps"`
	Role          string `json:"role"`
}

type RoyaltyConfig struct {
	Token      Token              `json:"token"`
	Recipients []RoyaltyRecipient `json:"recipients"`
	TotalBps   uint64             `json:"totalBps"`
	UpdatedAt  int64              `json:"updatedAt"`
	Active     bool               `json:"active"`
}

func (r RoyaltyConfig) Slug() string {
	return CreateRoyaltyConfigSlug(r.Token.TokenId, r.Token.Contract)
}

func CreateRoyaltyConfigSlug(tokenId uint64, contract string) string {
	return slug.Make(fmt.Sprintf("royalty-%d-%s", tokenId, contract))
}
