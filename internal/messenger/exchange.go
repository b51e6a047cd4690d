package messenger

import "github.com/streadway/amqp"

type exchange struct {
	Name        string
	Type        string
	Durable     bool
	AutoDeleted bool
	Internal    bool
	NoWait      bool
	Arguments   amqp.Table
}

var exchanges = map[string]exchange{
	"marketplace.sales": {
		Name:        "marketplace.sales",
		Type:        "topic",
		Durable:     true,
		AutoDeleted: false,
		Internal:    false,
		NoWait:      true,
		Arguments:   nil,
	},
	"marketplace.actions": {
		Name:        "marketplace.actions",
		Type:        "topic",
		Durable:     true,
		AutoDeleted: false,
		Internal:    false,
		NoWait:      true,
		Arguments:   nil,
	},
}
