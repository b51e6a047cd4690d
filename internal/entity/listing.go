package entity

import (
	"crypto/md5"
	"fmt"
)

type Listing struct {
	Id        string `json:"id"`
	Seller    string `json:"seller"`
	Token     Token  `json:"token"`
	Price     uint64 `json:"price"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
	Active    bool   `json:"active"`
}

func (l Listing) Slug() string {
	return l.Id
}

// HasExpired reports lazy expiry. ExpiresAt == 0 means the listing never
// expires.
func (l Listing) HasExpired(now int64) bool {
	return l.ExpiresAt != 0 && now > l.ExpiresAt
}

func CreateListingSlug(seq uint64, tokenId uint64, contract, seller string, createdAt int64) string {
	data := []byte(fmt.Sprintf("listing-%d-%d-%s-%s-%d", seq, tokenId, contract, seller, createdAt))
	return fmt.Sprintf("%x", md5.Sum(data))
}
