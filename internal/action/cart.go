package action

import "github.com/fairyhunter13/product-configurator-simulator/internal/model"

type AddToCart struct {
	Params model.AddToCartParameters
}

func (AddToCart) Type() Type         { return TypeAddToCart }
func (a AddToCart) OwnerKey() string { return a.Params.OwnerKey }

type UpdateCartEntry struct {
	Params model.UpdateForCartEntryParameters
}

func (UpdateCartEntry) Type() Type         { return TypeUpdateCartEntry }
func (a UpdateCartEntry) OwnerKey() string { return a.Params.Configuration.Owner.Key }

// CartProcessesIncrement keeps a cart in processing state until the pending
// add or update answers.
type CartProcessesIncrement struct {
	Owner  string
	CartID string
}

func (CartProcessesIncrement) Type() Type         { return TypeCartProcessesIncrement }
func (a CartProcessesIncrement) OwnerKey() string { return a.Owner }

// CartAddResult is the merged payload of a successful add to cart: the
// request context plus every field of the backend answer.
type CartAddResult struct {
	OwnerKey            string            `json:"ownerKey"`
	ConfigID            string            `json:"configId"`
	UserID              string            `json:"userId"`
	CartID              string            `json:"cartId"`
	ProductCode         string            `json:"productCode"`
	Quantity            int               `json:"quantity"`
	Entry               *model.OrderEntry `json:"entry,omitempty"`
	QuantityAdded       int               `json:"quantityAdded"`
	StatusCode          string            `json:"statusCode,omitempty"`
	StatusMessage       string            `json:"statusMessage,omitempty"`
	DeliveryModeChanged bool              `json:"deliveryModeChanged"`
}

// MergeCartAdd combines request and answer. Fields present in both take the
// backend value.
func MergeCartAdd(p model.AddToCartParameters, m model.CartModification) CartAddResult {
	return CartAddResult{
		OwnerKey:            p.OwnerKey,
		ConfigID:            p.ConfigID,
		UserID:              p.UserID,
		CartID:              p.CartID,
		ProductCode:         p.ProductCode,
		Quantity:            m.Quantity,
		Entry:               m.Entry,
		QuantityAdded:       m.QuantityAdded,
		StatusCode:          m.StatusCode,
		StatusMessage:       m.StatusMessage,
		DeliveryModeChanged: m.DeliveryModeChanged,
	}
}

type CartAddEntrySuccess struct {
	Result CartAddResult
}

func (CartAddEntrySuccess) Type() Type         { return TypeCartAddEntrySuccess }
func (a CartAddEntrySuccess) OwnerKey() string { return a.Result.OwnerKey }

type CartAddEntryFail struct {
	Owner  string
	CartID string
	Error  model.ErrorRecord
}

func (CartAddEntryFail) Type() Type         { return TypeCartAddEntryFail }
func (a CartAddEntryFail) OwnerKey() string { return a.Owner }

// CartUpdateResult is the merged payload of a successful cart entry update.
type CartUpdateResult struct {
	OwnerKey            string            `json:"ownerKey"`
	UserID              string            `json:"userId"`
	CartID              string            `json:"cartId"`
	EntryNumber         string            `json:"entryNumber"`
	Quantity            int               `json:"quantity"`
	Entry               *model.OrderEntry `json:"entry,omitempty"`
	QuantityAdded       int               `json:"quantityAdded"`
	StatusCode          string            `json:"statusCode,omitempty"`
	StatusMessage       string            `json:"statusMessage,omitempty"`
	DeliveryModeChanged bool              `json:"deliveryModeChanged"`
}

// MergeCartUpdate combines an entry update request with the backend answer.
func MergeCartUpdate(p model.UpdateForCartEntryParameters, m model.CartModification) CartUpdateResult {
	return CartUpdateResult{
		OwnerKey:            p.Configuration.Owner.Key,
		UserID:              p.UserID,
		CartID:              p.CartID,
		EntryNumber:         p.CartEntryNumber,
		Quantity:            m.Quantity,
		Entry:               m.Entry,
		QuantityAdded:       m.QuantityAdded,
		StatusCode:          m.StatusCode,
		StatusMessage:       m.StatusMessage,
		DeliveryModeChanged: m.DeliveryModeChanged,
	}
}

type CartUpdateEntrySuccess struct {
	Result CartUpdateResult
}

func (CartUpdateEntrySuccess) Type() Type         { return TypeCartUpdateEntrySuccess }
func (a CartUpdateEntrySuccess) OwnerKey() string { return a.Result.OwnerKey }

type CartUpdateEntryFail struct {
	Owner  string
	CartID string
	Error  model.ErrorRecord
}

func (CartUpdateEntryFail) Type() Type         { return TypeCartUpdateEntryFail }
func (a CartUpdateEntryFail) OwnerKey() string { return a.Owner }
