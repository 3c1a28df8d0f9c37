package events

import "strings"

var (
	residenceLocations = []string{
		"cypress residence hall", "cypress hall",
		"laurel residence hall", "laurel hall", "laurel extension",
		"oak residence hall", "oak hall",
		"redwood residence hall", "redwood hall", "redwood glass lounge", "redwood 1st floor lounge",
		"maple hall", "maple kitchen", "maple hall club room", "maple club room",
		"martinson honors residence hall", "honors residence",
		"warren street village", "greek residence", "dormitory",
	}

	// "ra " keeps its trailing space so words like "rally" or "grad" do not match.
	residenceKeywords = []string{"residence", "housing", "dorm", "hall council", "ra ", "resident assistant"}
)

// IsResidenceLife reports whether an event belongs to residence life by
// location, organizer, tags, or description. A description that mentions
// commuters does not count.
func IsResidenceLife(ev Event) bool {
	if containsAny(strings.ToLower(ev.Location), residenceLocations) {
		return true
	}
	if strings.Contains(strings.ToLower(ev.OrganizerName), "residence life") {
		return true
	}
	for _, tag := range ev.Tags {
		if containsAny(strings.ToLower(tag), residenceKeywords) {
			return true
		}
	}
	desc := strings.ToLower(ev.Description)
	return containsAny(desc, residenceKeywords) && !strings.Contains(desc, "commuter")
}
