package entity

import (
	"crypto/md5"
	"fmt"
)

type Auction struct {
	Id            string `json:"id"`
	Seller        string `json:"seller"`
	Token         Token  `json:"token"`
	StartingPrice uint64 `json:"startingPrice"`
	HighestBid    uint64 `json:"highestBid"`
	HighestBidder string `json:"highestBidder"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
	Active        bool   `json:"active"`
}

func (a Auction) Slug() string {
	return a.Id
}

func (a Auction) HasEnded(now int64) bool {
	return now >= a.EndTime
}

// HasBids reports whether a leader currently holds the auction. The engine
// never escrows more than this single leading bid.
func (a Auction) HasBids() bool {
	return a.HighestBidder != ""
}

func CreateAuctionSlug(seq uint64, tokenId uint64, contract, seller string, createdAt int64) string {
	data := []byte(fmt.Sprintf("auction-%d-%d-%s-%s-%d", seq, tokenId, contract, seller, createdAt))
	return fmt.Sprintf("%x", md5.Sum(data))
}
