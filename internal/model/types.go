// Package model defines domain types used by the service.
package model

// OwnerKind tells which storefront entity a configuration session belongs to.
type OwnerKind string

const (
	OwnerProduct        OwnerKind = "product"
	OwnerCartEntry      OwnerKind = "cartEntry"
	OwnerCartEntryGroup OwnerKind = "cartEntryGroup"
)

// Valid reports whether k is one of the known owner kinds.
func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerProduct, OwnerCartEntry, OwnerCartEntryGroup:
		return true
	}
	return false
}

// Owner identifies the entity a Configuration is attached to.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
	Key  string    `json:"key"`
}

// NewOwner builds an Owner with its key derived from kind and id.
func NewOwner(kind OwnerKind, id string) Owner {
	return Owner{Kind: kind, ID: id, Key: OwnerKey(kind, id)}
}

// OwnerKey returns the store key for kind and id.
func OwnerKey(kind OwnerKind, id string) string {
	return string(kind) + "/" + id
}

// Configuration is one configuration session as known to the storefront.
type Configuration struct {
	ConfigID            string        `json:"configId"`
	Owner               Owner         `json:"owner"`
	ProductCode         string        `json:"productCode,omitempty"`
	Groups              []Group       `json:"groups"`
	PriceSummary        *PriceSummary `json:"priceSummary,omitempty"`
	TotalNumberOfIssues int           `json:"totalNumberOfIssues"`
	Complete            bool          `json:"complete"`
	Consistent          bool          `json:"consistent"`
}

// Group is a node of the characteristic tree.
type Group struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	GroupType   string      `json:"groupType,omitempty"`
	Attributes  []Attribute `json:"attributes"`
	SubGroups   []Group     `json:"subGroups"`
}

// Attribute is a selectable characteristic inside a group.
type Attribute struct {
	Name                string  `json:"name"`
	Label               string  `json:"label,omitempty"`
	Required            bool    `json:"required"`
	UIType              string  `json:"uiType,omitempty"`
	SelectedSingleValue string  `json:"selectedSingleValue,omitempty"`
	Values              []Value `json:"values,omitempty"`
	Incomplete          bool    `json:"incomplete"`
}

// Value is one domain value of an attribute.
type Value struct {
	ValueCode string `json:"valueCode"`
	Name      string `json:"name,omitempty"`
	Selected  bool   `json:"selected"`
}

// Price is a monetary amount as rendered by the backend.
type Price struct {
	CurrencyISO    string  `json:"currencyIso"`
	Value          float64 `json:"value"`
	FormattedValue string  `json:"formattedValue,omitempty"`
}

// PriceSummary groups the prices shown next to a configuration.
type PriceSummary struct {
	BasePrice       *Price `json:"basePrice,omitempty"`
	SelectedOptions *Price `json:"selectedOptions,omitempty"`
	CurrentTotal    *Price `json:"currentTotal,omitempty"`
}

// Overview is a flattened, read-only projection of a configuration.
type Overview struct {
	ConfigID            string          `json:"configId"`
	ProductCode         string          `json:"productCode,omitempty"`
	TotalNumberOfIssues int             `json:"totalNumberOfIssues"`
	PriceSummary        *PriceSummary   `json:"priceSummary,omitempty"`
	Groups              []GroupOverview `json:"groups"`
}

// GroupOverview is one flattened group of an Overview.
type GroupOverview struct {
	ID               string              `json:"id"`
	GroupDescription string              `json:"groupDescription"`
	Attributes       []AttributeOverview `json:"attributes"`
}

// AttributeOverview is a characteristic/value pair of an overview group.
type AttributeOverview struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// AddToCartParameters is the payload of an add-to-cart request.
type AddToCartParameters struct {
	OwnerKey    string `json:"ownerKey"`
	ConfigID    string `json:"configId"`
	CartID      string `json:"cartId"`
	UserID      string `json:"userId"`
	ProductCode string `json:"productCode"`
	Quantity    int    `json:"quantity"`
}

// UpdateForCartEntryParameters is the payload of a cart entry update.
type UpdateForCartEntryParameters struct {
	UserID          string        `json:"userId"`
	CartID          string        `json:"cartId"`
	CartEntryNumber string        `json:"cartEntryNumber"`
	Configuration   Configuration `json:"configuration"`
}

// ReadFromCartEntryParameters is the payload of a cart entry read.
type ReadFromCartEntryParameters struct {
	UserID          string `json:"userId"`
	CartID          string `json:"cartId"`
	CartEntryNumber string `json:"cartEntryNumber"`
	Owner           Owner  `json:"owner"`
}

// OrderEntry is the cart entry affected by a cart modification.
type OrderEntry struct {
	EntryNumber int    `json:"entryNumber"`
	Quantity    int    `json:"quantity"`
	ProductCode string `json:"productCode,omitempty"`
}

// CartModification is the backend answer to a cart add or update.
type CartModification struct {
	Entry               *OrderEntry `json:"entry,omitempty"`
	Quantity            int         `json:"quantity"`
	QuantityAdded       int         `json:"quantityAdded"`
	StatusCode          string      `json:"statusCode,omitempty"`
	StatusMessage       string      `json:"statusMessage,omitempty"`
	DeliveryModeChanged bool        `json:"deliveryModeChanged"`
}

// ErrorRecord is the serializable form of a failed remote call.
type ErrorRecord struct {
	Status   int    `json:"status,omitempty"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
	ConfigID string `json:"configId,omitempty"`
}
