package entity

import (
	"crypto/md5"
	"fmt"
)

type Offer struct {
	Id        string `json:"id"`
	Bidder    string `json:"bidder"`
	Token     Token  `json:"token"`
	Amount    uint64 `json:"amount"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
	Active    bool   `json:"active"`
}

func (o Offer) Slug() string {
	return o.Id
}

func (o Offer) HasExpired(now int64) bool {
	return o.ExpiresAt != 0 && now > o.ExpiresAt
}

func CreateOfferSlug(seq uint64, tokenId uint64, contract, bidder string, createdAt int64) string {
	data := []byte(fmt.Sprintf("offer-%d-%d-%s-%s-%d", seq, tokenId, contract, bidder, createdAt))
	return fmt.Sprintf("%x", md5.Sum(data))
}
