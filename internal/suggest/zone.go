// Package suggest proposes a zone name for a chore based on its title.
package suggest

import "strings"

// DefaultZone is returned when no keyword matches.
const DefaultZone = "General"

// Zone returns the suggested zone name for a chore title.
// Matching is case-insensitive: exact match first, then substring match.
func Zone(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return DefaultZone
	}

	if z, ok := exactMatch[name]; ok {
		return z
	}

	// Substring matches are ordered more-specific first.
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.zone
		}
	}

	return DefaultZone
}

var exactMatch = map[string]string{
	// Kitchen
	"dishes":           "Kitchen",
	"do the dishes":    "Kitchen",
	"unload dishwasher": "Kitchen",
	"load dishwasher":  "Kitchen",
	"wipe counters":    "Kitchen",
	"clean fridge":     "Kitchen",
	"clean oven":       "Kitchen",
	"take out compost": "Kitchen",

	// Bathroom
	"clean toilet":  "Bathroom",
	"scrub shower":  "Bathroom",
	"clean mirrors": "Bathroom",

	// Bedroom
	"change sheets": "Bedroom",
	"make beds":     "Bedroom",

	// Laundry
	"laundry":        "Laundry",
	"fold laundry":   "Laundry",
	"wash clothes":   "Laundry",
	"ironing":        "Laundry",

	// Outdoor
	"mow the lawn": "Outdoor",
	"mow lawn":     "Outdoor",
	"rake leaves":  "Outdoor",
	"shovel snow":  "Outdoor",
	"water plants": "Outdoor",

	// Pets
	"feed the dog":    "Pets",
	"feed the cat":    "Pets",
	"walk the dog":    "Pets",
	"clean litter box": "Pets",
}

type substringEntry struct {
	keyword string
	zone    string
}

var substringMatches = []substringEntry{
	// Kitchen
	{"dishwasher", "Kitchen"},
	{"dishes", "Kitchen"},
	{"counter", "Kitchen"},
	{"fridge", "Kitchen"},
	{"freezer", "Kitchen"},
	{"oven", "Kitchen"},
	{"stove", "Kitchen"},
	{"microwave", "Kitchen"},
	{"pantry", "Kitchen"},
	{"compost", "Kitchen"},
	{"sink", "Kitchen"},
	{"kitchen", "Kitchen"},

	// Bathroom
	{"toilet", "Bathroom"},
	{"shower", "Bathroom"},
	{"bathtub", "Bathroom"},
	{"bath", "Bathroom"},
	{"mirror", "Bathroom"},
	{"bathroom", "Bathroom"},

	// Laundry
	{"laundry", "Laundry"},
	{"washing machine", "Laundry"},
	{"clothes", "Laundry"},
	{"iron", "Laundry"},
	{"sheets", "Bedroom"},

	// Bedroom
	{"bed", "Bedroom"},
	{"closet", "Bedroom"},
	{"bedroom", "Bedroom"},

	// Outdoor
	{"lawn", "Outdoor"},
	{"garden", "Outdoor"},
	{"weed", "Outdoor"},
	{"rake", "Outdoor"},
	{"snow", "Outdoor"},
	{"gutter", "Outdoor"},
	{"garage", "Outdoor"},
	{"deck", "Outdoor"},
	{"patio", "Outdoor"},
	{"plant", "Outdoor"},
	{"yard", "Outdoor"},

	// Pets
	{"litter", "Pets"},
	{"dog", "Pets"},
	{"cat", "Pets"},
	{"fish tank", "Pets"},
	{"aquarium", "Pets"},
	{"pet", "Pets"},

	// Whole-house chores stay General
	{"vacuum", "General"},
	{"mop", "General"},
	{"dust", "General"},
	{"trash", "General"},
	{"garbage", "General"},
	{"recycling", "General"},
}
