package models

import "fmt"

// Venue is a place near the user as persisted in the local store.
// Empty strings mean the API did not provide the value.
type Venue struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Category  string  `json:"category,omitempty"`
	IconLink  string  `json:"iconLink,omitempty"`
	Distance  int     `json:"distance"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// DistanceLabel renders the distance the way list rows show it.
func (v Venue) DistanceLabel() string {
	return fmt.Sprintf("%d m", v.Distance)
}

// CoordinatesLabel renders "lat, lng".
func (v Venue) CoordinatesLabel() string {
	return fmt.Sprintf("%v, %v", v.Latitude, v.Longitude)
}
