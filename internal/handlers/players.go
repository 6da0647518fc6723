package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtside/shotchart-api/internal/models"
)

// ListPlayers returns players with shot totals
// @Summary List Players
// @Description Players with at least min_shots attempts whose name contains search, most shots first
// @Tags Players
// @Produce json
// @Param search query string false "Case-insensitive name filter"
// @Param min_shots query int false "Minimum attempts" default(100)
// @Param limit query int false "Maximum results" default(100)
// @Success 200 {object} models.PlayersResponse
// @Router /players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	minShots := queryInt(r, "min_shots", 100)
	limit := queryInt(r, "limit", 100)

	players, err := h.stats.ListPlayers(r.Context(), search, minShots, limit)
	if err != nil {
		h.logger.Errorw("Failed to list players", "search", search, "error", err)
		players = []models.RosterEntry{}
	}
	h.jsonResponse(w, http.StatusOK, models.PlayersResponse{Players: players})
}

// ListYears returns every season present in the data
// @Summary List Seasons
// @Tags Players
// @Produce json
// @Success 200 {object} models.YearsResponse
// @Router /years [get]
func (h *Handler) ListYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.stats.ListYears(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list years", "error", err)
		years = []int{}
	}
	h.jsonResponse(w, http.StatusOK, models.YearsResponse{Years: years})
}

// GetPlayer returns the aggregated summary for one player
// @Summary Get Player Summary
// @Tags Players
// @Produce json
// @Param name path string true "Player name"
// @Param years query string false "Comma-separated seasons"
// @Success 200 {object} models.PlayerSummary
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string
// @Router /player/{name} [get]
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	years, err := parseYears(r.URL.Query().Get("years"))
	if err != nil {
		h.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary, err := h.stats.GetPlayer(r.Context(), name, years)
	if err != nil {
		h.storeError(w, err, "get player stats", "player", name)
		return
	}
	h.jsonResponse(w, http.StatusOK, summary)
}

// GetPlayerShots returns raw shot rows for one player
// @Summary Get Player Shots
// @Tags Players
// @Produce json
// @Param name path string true "Player name"
// @Param years query string false "Comma-separated seasons"
// @Param limit query int false "Maximum shots" default(50000)
// @Success 200 {object} models.ShotsResponse
// @Router /player/{name}/shots [get]
func (h *Handler) GetPlayerShots(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	years, err := parseYears(r.URL.Query().Get("years"))
	if err != nil {
		h.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	limit := queryInt(r, "limit", 50000)

	resp, err := h.stats.GetPlayerShots(r.Context(), name, years, limit)
	if err != nil {
		h.logger.Errorw("Failed to get player shots", "player", name, "error", err)
		resp = &models.ShotsResponse{Shots: []models.Shot{}}
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// GetShotPage returns one page of a player's shots
// @Summary Get Shot Page
// @Tags Players
// @Accept json
// @Produce json
// @Param request body models.ShotPageRequest true "Page request"
// @Success 200 {object} models.ShotPageResponse
// @Failure 400 {object} map[string]string
// @Router /player/shots/page [post]
func (h *Handler) GetShotPage(w http.ResponseWriter, r *http.Request) {
	var req models.ShotPageRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	resp, err := h.stats.GetShotPage(r.Context(), req)
	if err != nil {
		h.logger.Errorw("Failed to get shot page", "player", req.PlayerName, "error", err)
		resp = &models.ShotPageResponse{Shots: []models.Shot{}, Page: req.Page, PageSize: req.PageSize}
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// GetShotBins returns a 2-D histogram of a player's shots
// @Summary Get Shot Bins
// @Tags Players
// @Accept json
// @Produce json
// @Param request body models.ShotBinsRequest true "Bin request"
// @Success 200 {object} models.BinResult
// @Failure 400 {object} map[string]string
// @Router /player/shots/bins [post]
func (h *Handler) GetShotBins(w http.ResponseWriter, r *http.Request) {
	var req models.ShotBinsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	resp, err := h.stats.GetShotBins(r.Context(), req)
	if err != nil {
		h.logger.Errorw("Failed to bin shots", "player", req.PlayerName, "error", err)
		resp = &models.BinResult{Bins: []models.ShotBin{}}
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// Compare returns two player summaries side by side
// @Summary Compare Players
// @Tags Players
// @Accept json
// @Produce json
// @Param request body models.CompareRequest true "Players to compare"
// @Success 200 {object} models.CompareResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string
// @Router /compare [post]
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	resp, err := h.stats.Compare(r.Context(), req)
	if err != nil {
		h.storeError(w, err, "compare players", "player1", req.Player1, "player2", req.Player2)
		return
	}
	h.jsonResponse(w, http.StatusOK, resp)
}
