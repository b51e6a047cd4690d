package payment

import "errors"

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientCustody = errors.New("insufficient custody")
	ErrPaymentRejected     = errors.New("payment rejected")
)

type Kind string

const (
	// Collect pulls value from an external account into engine custody.
	Collect Kind = "collect"
	// Pay pushes value out of engine custody to an external account.
	Pay Kind = "pay"
)

type Instruction struct {
	Kind    Kind
	Account string
	Amount  uint64
}

// Channel moves native value between external accounts and engine custody.
// Instructions are applied strictly in order and all-or-nothing: a rejected
// payment anywhere in the batch leaves every balance untouched.
type Channel interface {
	Check(instructions []Instruction) error
	Apply(instructions []Instruction) error
}

// Batch accumulates the value movements of a single engine operation. The
// engine checks the batch before the token moves and applies it afterwards,
// so a rejecting recipient aborts a sale before ownership changes.
type Batch struct {
	channel      Channel
	instructions []Instruction
}

func NewBatch(channel Channel) *Batch {
	return &Batch{channel: channel}
}

func (b *Batch) Collect(account string, amount uint64) {
	if amount == 0 {
		return
	}
	b.instructions = append(b.instructions, Instruction{Collect, account, amount})
}

func (b *Batch) Pay(account string, amount uint64) {
	if amount == 0 {
		return
	}
	b.instructions = append(b.instructions, Instruction{Pay, account, amount})
}

func (b *Batch) Check() error {
	return b.channel.Check(b.instructions)
}

func (b *Batch) Commit() error {
	return b.channel.Apply(b.instructions)
}

func (b *Batch) Instructions() []Instruction {
	return b.instructions
}
