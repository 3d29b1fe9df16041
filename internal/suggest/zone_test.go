package suggest

import "testing"

func TestZone(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Dishes", "Kitchen"},
		{"unload dishwasher", "Kitchen"},
		{"Wipe the counters", "Kitchen"},
		{"Clean toilet", "Bathroom"},
		{"scrub SHOWER", "Bathroom"},
		{"Fold laundry", "Laundry"},
		{"Change sheets", "Bedroom"},
		{"Mow the lawn", "Outdoor"},
		{"rake leaves in the yard", "Outdoor"},
		{"Walk the dog", "Pets"},
		{"clean litter box", "Pets"},
		{"Vacuum living room", "General"},
		{"take out the trash", "General"},
		{"something unrecognizable", "General"},
		{"", "General"},
		{"   ", "General"},
	}

	for _, tt := range tests {
		if got := Zone(tt.title); got != tt.want {
			t.Errorf("Zone(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestZoneExactBeatsSubstring(t *testing.T) {
	// "change sheets" matches the Bedroom exact entry even though "sheets"
	// could be read as laundry.
	if got := Zone("change sheets"); got != "Bedroom" {
		t.Errorf("Zone(change sheets) = %q, want Bedroom", got)
	}
}
