package places

// searchResponse mirrors the fields of a text search response that are read.
type searchResponse struct {
	Status           string         `json:"status"`
	ErrorMessage     string         `json:"error_message"`
	NextPageToken    string         `json:"next_page_token"`
	HTMLAttributions []string       `json:"html_attributions"`
	Results          []searchResult `json:"results"`
}

type searchResult struct {
	PlaceID  *string  `json:"place_id"`
	Name     *string  `json:"name"`
	Rating   *float64 `json:"rating"`
	Geometry *struct {
		Location *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// err reports a service-level failure. OK and ZERO_RESULTS are successes; an
// absent status is tolerated as long as no error_message is present.
func (r *searchResponse) err() error {
	if r.ErrorMessage != "" {
		return &ServiceError{Status: r.Status, Message: r.ErrorMessage}
	}
	switch r.Status {
	case "", "OK", "ZERO_RESULTS":
		return nil
	default:
		return &ServiceError{Status: r.Status}
	}
}

func (r *searchResponse) page() *Page {
	p := &Page{
		Matches:          make([]Match, 0, len(r.Results)),
		NextPageToken:    r.NextPageToken,
		HTMLAttributions: r.HTMLAttributions,
	}
	for _, res := range r.Results {
		m := Match{
			PlaceID: res.PlaceID,
			Name:    res.Name,
			Rating:  res.Rating,
		}
		if res.Geometry != nil && res.Geometry.Location != nil {
			m.Location = Location{Lat: res.Geometry.Location.Lat, Lng: res.Geometry.Location.Lng}
		}
		p.Matches = append(p.Matches, m)
	}
	return p
}
