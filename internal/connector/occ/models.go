package occ

import "github.com/fairyhunter13/product-configurator-simulator/internal/model"

// Configuration is the wire shape of a configuration.
type Configuration struct {
	ConfigID            string  `json:"configId"`
	RootProduct         string  `json:"rootProduct,omitempty"`
	Complete            bool    `json:"complete"`
	Consistent          bool    `json:"consistent"`
	TotalNumberOfIssues int     `json:"totalNumberOfIssues"`
	Groups              []Group `json:"groups"`
}

type Group struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	Description  string      `json:"description,omitempty"`
	GroupType    string      `json:"groupType,omitempty"`
	Configurable bool        `json:"configurable"`
	Attributes   []Attribute `json:"attributes,omitempty"`
	SubGroups    []Group     `json:"subGroups,omitempty"`
}

type Attribute struct {
	Name         string        `json:"name"`
	LangDepName  string        `json:"langDepName,omitempty"`
	Required     bool          `json:"required"`
	Type         string        `json:"type,omitempty"`
	Value        string        `json:"value,omitempty"`
	DomainValues []DomainValue `json:"domainValues,omitempty"`
	Incomplete   bool          `json:"incomplete"`
}

type DomainValue struct {
	Key         string `json:"key"`
	LangDepName string `json:"langDepName,omitempty"`
	Selected    bool   `json:"selected"`
}

// Prices is the answer of the pricing endpoint.
type Prices struct {
	ConfigID     string              `json:"configId"`
	PricingError bool                `json:"pricingError"`
	PriceSummary *model.PriceSummary `json:"priceSummary,omitempty"`
}

// AddToCartRequest is the body of the add to cart call.
type AddToCartRequest struct {
	UserID   string  `json:"userId"`
	CartID   string  `json:"cartId"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	ConfigID string  `json:"configId"`
}

type Product struct {
	Code string `json:"code"`
}

// UpdateCartEntryRequest binds a configuration to an existing cart entry.
type UpdateCartEntryRequest struct {
	UserID        string        `json:"userId"`
	CartID        string        `json:"cartId"`
	EntryNumber   string        `json:"entryNumber"`
	Configuration Configuration `json:"configuration"`
}

// CartModification is the wire shape of a cart change.
type CartModification struct {
	Entry               *Entry `json:"entry,omitempty"`
	Quantity            int    `json:"quantity"`
	QuantityAdded       int    `json:"quantityAdded"`
	StatusCode          string `json:"statusCode,omitempty"`
	StatusMessage       string `json:"statusMessage,omitempty"`
	DeliveryModeChanged bool   `json:"deliveryModeChanged"`
}

// Entry is the cart entry touched by a cart modification.
type Entry struct {
	EntryNumber int      `json:"entryNumber"`
	Quantity    int      `json:"quantity"`
	Product     *Product `json:"product,omitempty"`
}
