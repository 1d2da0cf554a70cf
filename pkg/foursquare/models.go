package foursquare

// SearchResponse is the top-level envelope of a venues search. Response is a
// pointer so a body without it can be told apart from an empty result.
type SearchResponse struct {
	Meta     Meta          `json:"meta"`
	Response *SearchResult `json:"response"`
}

// Meta carries the API status code and, on failures, the error detail.
type Meta struct {
	Code        int    `json:"code"`
	ErrorType   string `json:"errorType"`
	ErrorDetail string `json:"errorDetail"`
	RequestID   string `json:"requestId"`
}

// SearchResult holds the venues array. A missing array is a data error.
type SearchResult struct {
	Venues *[]APIVenue `json:"venues"`
}

// APIVenue is a single venue as returned by the search endpoint.
type APIVenue struct {
	ID         string     `json:"id"`
	Name       *string    `json:"name"`
	Categories []Category `json:"categories"`
	Location   *Location  `json:"location"`
}

// Category is a venue category; only the first one of a venue is used.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
	Icon    *Icon  `json:"icon"`
}

// Icon is split into prefix and suffix with the size token going in between.
type Icon struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// Location holds the distance from the requested coordinate and the address.
// Distance, Lat and Lng are required; a venue missing any of them is skipped.
type Location struct {
	Distance         *int     `json:"distance"`
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
	FormattedAddress []string `json:"formattedAddress"`
}
