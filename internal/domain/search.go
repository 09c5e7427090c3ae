package domain

import "time"

// SearchCountiesAll in SearchRequest.Counties searches every county.
const SearchCountiesAll = "ALL"

// SearchRequest asks for current registrations against each name in Items.
// Empty Counties behaves like ALL.
type SearchRequest struct {
	Counties []string     `json:"counties"`
	Items    []SearchItem `json:"search_items"`
}

// SearchItem is one name to look up. A zero year leaves that end of the
// range open.
type SearchItem struct {
	Name     PartyName `json:"name"`
	YearFrom int       `json:"year_from,omitempty"`
	YearTo   int       `json:"year_to,omitempty"`
}

type SearchResult struct {
	NameKey       string            `json:"name_key"`
	Registrations []RegistrationRef `json:"registrations"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// RegistrationEvent is published once for every registration the register
// allocates.
type RegistrationEvent struct {
	Registration  RegistrationRef  `json:"registration"`
	Amends        *RegistrationRef `json:"amends,omitempty"`
	ClassOfCharge string           `json:"class_of_charge"`
	NameKeys      []string         `json:"name_keys"`
	Timestamp     time.Time        `json:"timestamp"`
}
