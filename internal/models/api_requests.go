package models

// ShotPageRequest asks for one page of a player's raw shots.
type ShotPageRequest struct {
	PlayerName string `json:"player_name" validate:"required"`
	Years      []int  `json:"years,omitempty"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// ShotBinsRequest asks for a two-dimensional histogram of a player's shots.
type ShotBinsRequest struct {
	PlayerName string `json:"player_name" validate:"required"`
	Years      []int  `json:"years,omitempty"`
	XBins      int    `json:"x_bins"`
	YBins      int    `json:"y_bins"`
}

// CompareRequest asks for two player summaries side by side.
type CompareRequest struct {
	Player1 string `json:"player1" validate:"required"`
	Player2 string `json:"player2" validate:"required"`
	Years   []int  `json:"years,omitempty"`
}

// PlayersResponse wraps the player listing.
type PlayersResponse struct {
	Players []RosterEntry `json:"players"`
}

// YearsResponse wraps the season listing.
type YearsResponse struct {
	Years []int `json:"years"`
}

// ShotsResponse is the payload of the raw shots endpoint.
type ShotsResponse struct {
	Shots []Shot `json:"shots"`
	Total int    `json:"total"`
}

// ShotPageResponse is the payload of the paged shots endpoint.
type ShotPageResponse struct {
	Shots    []Shot `json:"shots"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Count    int    `json:"count"`
}

// CompareResponse holds two summaries.
type CompareResponse struct {
	Player1 *PlayerSummary `json:"player1"`
	Player2 *PlayerSummary `json:"player2"`
}
