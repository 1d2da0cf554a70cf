package foursquare

import (
	"fmt"
	"log"
	"strings"

	"nearme/internal/models"
)

// IconSize is the size token placed between an icon's prefix and suffix.
const IconSize = "64"

// MapVenues converts API venues into store records, keeping the API order.
// Venues that cannot be mapped are logged and skipped.
func MapVenues(in []APIVenue) []models.Venue {
	out := make([]models.Venue, 0, len(in))
	for i, v := range in {
		venue, err := ToVenue(v)
		if err != nil {
			log.Printf("Skipping venue %d (%s): %v", i, v.ID, err)
			continue
		}
		out = append(out, venue)
	}
	return out
}

// ToVenue maps a single API venue. Only the first category is used; its
// icon link is prefix + IconSize + suffix. The formatted address lines are
// joined with newlines and trimmed.
func ToVenue(v APIVenue) (models.Venue, error) {
	loc := v.Location
	switch {
	case loc == nil:
		return models.Venue{}, fmt.Errorf("missing location")
	case loc.Distance == nil:
		return models.Venue{}, fmt.Errorf("missing location.distance")
	case loc.Lat == nil || loc.Lng == nil:
		return models.Venue{}, fmt.Errorf("missing location.lat/lng")
	}

	venue := models.Venue{
		Distance:  *loc.Distance,
		Latitude:  *loc.Lat,
		Longitude: *loc.Lng,
		Address:   strings.TrimSpace(strings.Join(loc.FormattedAddress, "\n")),
	}
	if v.Name != nil {
		venue.Name = *v.Name
	}
	if len(v.Categories) > 0 {
		first := v.Categories[0]
		venue.Category = first.Name
		if first.Icon != nil && first.Icon.Prefix != "" {
			venue.IconLink = first.Icon.Prefix + IconSize + first.Icon.Suffix
		}
	}
	return venue, nil
}
