package handlers

import (
	"net/http"

	"github.com/courtside/shotchart-api/internal/models"
)

// PredictShot scores a hypothetical shot
// @Summary Predict Shot
// @Description Probability that a shot from the given location and context is made
// @Tags Model
// @Accept json
// @Produce json
// @Param request body models.PredictShotRequest true "Shot"
// @Success 200 {object} models.PredictShotResponse
// @Failure 400 {object} map[string]string
// @Router /predict_shot [post]
func (h *Handler) PredictShot(w http.ResponseWriter, r *http.Request) {
	var req models.PredictShotRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	prob, err := h.predictor.Predict(&req)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	h.jsonResponse(w, http.StatusOK, models.PredictShotResponse{ProbabilityMake: prob})
}

// PredictGrid scores every point of an x/y grid
// @Summary Predict Grid
// @Tags Model
// @Accept json
// @Produce json
// @Param request body models.PredictGridRequest true "Grid"
// @Success 200 {object} models.PredictGridResponse
// @Failure 400 {object} map[string]string
// @Router /predict_grid [post]
func (h *Handler) PredictGrid(w http.ResponseWriter, r *http.Request) {
	var req models.PredictGridRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	h.jsonResponse(w, http.StatusOK, models.PredictGridResponse{Points: h.predictor.PredictGrid(req)})
}
