package occ

import "github.com/fairyhunter13/product-configurator-simulator/internal/model"

// Normalize maps a wire configuration onto the domain shape.
func Normalize(src Configuration, owner model.Owner) model.Configuration {
	return model.Configuration{
		ConfigID:            src.ConfigID,
		Owner:               owner,
		ProductCode:         src.RootProduct,
		Groups:              normalizeGroups(src.Groups),
		TotalNumberOfIssues: src.TotalNumberOfIssues,
		Complete:            src.Complete,
		Consistent:          src.Consistent,
	}
}

func normalizeGroups(groups []Group) []model.Group {
	out := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		attrs := make([]model.Attribute, 0, len(g.Attributes))
		for _, a := range g.Attributes {
			attr := model.Attribute{
				Name:                a.Name,
				Label:               a.LangDepName,
				Required:            a.Required,
				UIType:              a.Type,
				SelectedSingleValue: a.Value,
				Incomplete:          a.Incomplete,
			}
			for _, v := range a.DomainValues {
				attr.Values = append(attr.Values, model.Value{ValueCode: v.Key, Name: v.LangDepName, Selected: v.Selected})
			}
			attrs = append(attrs, attr)
		}
		out = append(out, model.Group{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			GroupType:   g.GroupType,
			Attributes:  attrs,
			SubGroups:   normalizeGroups(g.SubGroups),
		})
	}
	return out
}

// Serialize maps a domain configuration onto the wire shape. Only the value
// of each attribute is sent; the backend owns labels and domains.
func Serialize(src model.Configuration) Configuration {
	return Configuration{
		ConfigID:    src.ConfigID,
		RootProduct: src.ProductCode,
		Groups:      serializeGroups(src.Groups),
	}
}

func serializeGroups(groups []model.Group) []Group {
	if len(groups) == 0 {
		return nil
	}
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		wg := Group{
			ID:           g.ID,
			Name:         g.Name,
			GroupType:    g.GroupType,
			Configurable: true,
			SubGroups:    serializeGroups(g.SubGroups),
		}
		for _, a := range g.Attributes {
			wg.Attributes = append(wg.Attributes, Attribute{
				Name:     a.Name,
				Required: a.Required,
				Type:     a.UIType,
				Value:    a.SelectedSingleValue,
			})
		}
		out = append(out, wg)
	}
	return out
}

func normalizeCartModification(src CartModification) model.CartModification {
	out := model.CartModification{
		Quantity:            src.Quantity,
		QuantityAdded:       src.QuantityAdded,
		StatusCode:          src.StatusCode,
		StatusMessage:       src.StatusMessage,
		DeliveryModeChanged: src.DeliveryModeChanged,
	}
	if src.Entry != nil {
		out.Entry = &model.OrderEntry{EntryNumber: src.Entry.EntryNumber, Quantity: src.Entry.Quantity}
		if src.Entry.Product != nil {
			out.Entry.ProductCode = src.Entry.Product.Code
		}
	}
	return out
}
