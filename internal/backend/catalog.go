package backend

// option is one selectable value of an attribute with its surcharge.
type option struct {
	code  string
	name  string
	price float64
}

type attribute struct {
	name     string
	label    string
	uiType   string
	required bool
	options  []option
}

type group struct {
	id          string
	name        string
	description string
	attributes  []attribute
	subGroups   []group
}

type product struct {
	code      string
	basePrice float64
	currency  string
	groups    []group
}

// catalog is the fixed set of configurable products the simulator serves.
var catalog = map[string]product{
	"CONF_LAPTOP": {
		code:      "CONF_LAPTOP",
		basePrice: 999,
		currency:  "USD",
		groups: []group{
			{
				id: "_GEN", name: "_GEN", description: "General",
				attributes: []attribute{{
					name: "WARRANTY", label: "Warranty", uiType: "RADIO_BUTTON",
					options: []option{{"1Y", "1 year", 0}, {"3Y", "3 years", 99}},
				}},
			},
			{
				id: "DISPLAY", name: "DISPLAY", description: "Display",
				attributes: []attribute{{
					name: "DISPLAY_SIZE", label: "Display size", uiType: "DROPDOWN", required: true,
					options: []option{{"13", "13 inch", 0}, {"15", "15 inch", 150}},
				}},
			},
			{
				id: "HARDWARE", name: "HARDWARE", description: "Hardware",
				subGroups: []group{
					{
						id: "CPU", name: "CPU", description: "Processor",
						attributes: []attribute{{
							name: "CPU", label: "Processor", uiType: "RADIO_BUTTON", required: true,
							options: []option{{"I5", "Core i5", 0}, {"I7", "Core i7", 300}},
						}},
					},
					{
						id: "MEMORY", name: "MEMORY", description: "Memory",
						attributes: []attribute{{
							name: "RAM", label: "Memory", uiType: "DROPDOWN", required: true,
							options: []option{{"8", "8 GB", 0}, {"16", "16 GB", 100}, {"32", "32 GB", 250}},
						}},
					},
				},
			},
			{
				id: "SOFTWARE", name: "SOFTWARE", description: "Software",
				attributes: []attribute{{
					name: "OS", label: "Operating system", uiType: "RADIO_BUTTON",
					options: []option{{"LINUX", "Linux", 0}, {"WIN", "Windows", 120}},
				}},
			},
		},
	},
}

// findAttribute walks the product tree for an attribute by name.
func (p product) findAttribute(name string) (attribute, bool) {
	var walk func([]group) (attribute, bool)
	walk = func(gs []group) (attribute, bool) {
		for _, g := range gs {
			for _, a := range g.attributes {
				if a.name == name {
					return a, true
				}
			}
			if a, ok := walk(g.subGroups); ok {
				return a, true
			}
		}
		return attribute{}, false
	}
	return walk(p.groups)
}

func (a attribute) option(code string) (option, bool) {
	for _, o := range a.options {
		if o.code == code {
			return o, true
		}
	}
	return option{}, false
}
