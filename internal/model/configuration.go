package model

// Clone returns a deep copy of c so callers can mutate it freely.
func (c Configuration) Clone() Configuration {
	out := c
	out.Groups = cloneGroups(c.Groups)
	if c.PriceSummary != nil {
		ps := c.PriceSummary.clone()
		out.PriceSummary = &ps
	}
	return out
}

func cloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Attributes = cloneAttributes(g.Attributes)
		out[i].SubGroups = cloneGroups(g.SubGroups)
	}
	return out
}

func cloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = a
		if a.Values != nil {
			out[i].Values = append([]Value(nil), a.Values...)
		}
	}
	return out
}

func (p PriceSummary) clone() PriceSummary {
	cp := func(v *Price) *Price {
		if v == nil {
			return nil
		}
		x := *v
		return &x
	}
	return PriceSummary{
		BasePrice:       cp(p.BasePrice),
		SelectedOptions: cp(p.SelectedOptions),
		CurrentTotal:    cp(p.CurrentTotal),
	}
}

// Clone returns a deep copy of o.
func (o Overview) Clone() Overview {
	out := o
	if o.PriceSummary != nil {
		ps := o.PriceSummary.clone()
		out.PriceSummary = &ps
	}
	if o.Groups != nil {
		out.Groups = make([]GroupOverview, len(o.Groups))
		for i, g := range o.Groups {
			out.Groups[i] = g
			out.Groups[i].Attributes = append([]AttributeOverview(nil), g.Attributes...)
		}
	}
	return out
}

// FindGroup looks up a group anywhere in the tree.
func (c Configuration) FindGroup(groupID string) (Group, bool) {
	if path := groupPath(c.Groups, groupID); path != nil {
		return *path[len(path)-1], true
	}
	return Group{}, false
}

// FindAttribute looks up an attribute of the given group.
func (c Configuration) FindAttribute(groupID, name string) (Attribute, bool) {
	g, ok := c.FindGroup(groupID)
	if !ok {
		return Attribute{}, false
	}
	for _, a := range g.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Extract builds an update payload that carries only attr on the path to its
// group. Sibling groups and attributes are left out. ok is false when the
// group does not exist in c.
func (c Configuration) Extract(groupID string, attr Attribute) (Configuration, bool) {
	path := groupPath(c.Groups, groupID)
	if path == nil {
		return Configuration{}, false
	}
	leaf := Group{
		ID:          path[len(path)-1].ID,
		Name:        path[len(path)-1].Name,
		Description: path[len(path)-1].Description,
		GroupType:   path[len(path)-1].GroupType,
		Attributes:  cloneAttributes([]Attribute{attr}),
	}
	for i := len(path) - 2; i >= 0; i-- {
		leaf = Group{
			ID:        path[i].ID,
			Name:      path[i].Name,
			GroupType: path[i].GroupType,
			SubGroups: []Group{leaf},
		}
	}
	return Configuration{
		ConfigID:    c.ConfigID,
		Owner:       c.Owner,
		ProductCode: c.ProductCode,
		Groups:      []Group{leaf},
	}, true
}

// WithAttributeValue returns a copy of attr with value selected.
func WithAttributeValue(attr Attribute, value string) Attribute {
	out := cloneAttributes([]Attribute{attr})[0]
	out.SelectedSingleValue = value
	for i := range out.Values {
		out.Values[i].Selected = out.Values[i].ValueCode == value
	}
	return out
}

// groupPath returns pointers from the top-level group down to groupID.
func groupPath(groups []Group, groupID string) []*Group {
	for i := range groups {
		g := &groups[i]
		if g.ID == groupID {
			return []*Group{g}
		}
		if sub := groupPath(g.SubGroups, groupID); sub != nil {
			return append([]*Group{g}, sub...)
		}
	}
	return nil
}
