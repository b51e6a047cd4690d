package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Token identifies a uniquely-owned asset inside its contract.
type Token struct {
	Contract string `json:"contract"`
	TokenId  uint64 `json:"tokenId"`
}

func (t Token) Slug() string {
	return CreateTokenSlug(t.TokenId, t.Contract)
}

func CreateTokenSlug(tokenId uint64, contract string) string {
	return slug.Make(fmt.Sprintf("token-%d-%s", tokenId, contract))
}

func (t Token) String() string {
	return fmt.Sprintf("%s:%d", t.Contract, t.TokenId)
}
