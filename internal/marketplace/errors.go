package marketplace

import "errors"

// Authorization
var (
	ErrNotOwner      = errors.New("not the token owner")
	ErrNotSeller     = errors.New("not the seller")
	ErrNotBidder     = errors.New("not the bidder")
	ErrNotApproved   = errors.New("engine not approved to transfer")
	ErrNotAuthorized = errors.New("not authorized")
)

// State
var (
	ErrNotActive      = errors.New("not active")
	ErrExpired        = errors.New("expired")
	ErrEnded          = errors.New("auction ended")
	ErrNotEnded       = errors.New("auction not ended")
	ErrHasBids        = errors.New("auction has bids")
	ErrAlreadyListed  = errors.New("already listed")
	ErrDuplicateOffer = errors.New("duplicate offer")
	ErrNotFound       = errors.New("not found")
)

// Validation
var (
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrSelfTrade          = errors.New("cannot buy own listing")
	ErrSelfOffer          = errors.New("cannot offer on own token")
	ErrSelfBid            = errors.New("cannot bid on own auction")
	ErrBidTooLow          = errors.New("bid too low")
	ErrBelowStartingPrice = errors.New("bid below starting price")
)

// Payment
var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInsufficientEscrow  = errors.New("insufficient escrow")
	ErrTransferFailed      = errors.New("token transfer failed")
	ErrRefundFailed        = errors.New("escrow refund failed")
	ErrReentrantCall       = errors.New("reentrant call")
)
