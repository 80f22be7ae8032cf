package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tabroom/allocation"
	"github.com/Dosada05/tabroom/models"
	"github.com/Dosada05/tabroom/services"
)

type TabulationHandler struct {
	tabulationService services.TabulationService
}

func NewTabulationHandler(ts services.TabulationService) *TabulationHandler {
	return &TabulationHandler{tabulationService: ts}
}

type proposeAllocationInput struct {
	Stage       models.Stage `json:"stage"`
	ScheduledAt *time.Time   `json:"scheduled_at"`
}

type commitAllocationInput struct {
	Stage     models.Stage          `json:"stage"`
	Overrides []allocation.Override `json:"overrides"`
}

type buildBracketInput struct {
	Size int `json:"size"`
}

// GenerateDraw
// @Summary Generate the draw of a preliminary round
// @Tags tabulation
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param round path int true "Round number"
// @Success 201 {object} draw.Draw
// @Failure 409 {object} map[string]string "round already drawn or previous round missing"
// @Failure 422 {object} map[string]interface{} "no valid pairing exists"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/rounds/{round}/draw [post]
func (h *TabulationHandler) GenerateDraw(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	d, err := h.tabulationService.GenerateDraw(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": d}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPairings
// @Summary List pairings, optionally narrowed by stage and round
// @Tags tabulation
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stage query string false "preliminary or elimination"
// @Param round query int false "Round number"
// @Success 200 {array} models.Pairing
// @Router /tournaments/{tournamentID}/pairings [get]
func (h *TabulationHandler) ListPairings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var stage *models.Stage
	if raw := r.URL.Query().Get("stage"); raw != "" {
		parsed, err := parseStage(raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		stage = &parsed
	}

	var round *int
	if raw := r.URL.Query().Get("round"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			badRequestResponse(w, r, errors.New("round must be a non-negative integer"))
			return
		}
		round = &parsed
	}

	pairings, err := h.tabulationService.ListPairings(r.Context(), tournamentID, stage, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pairings": pairings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ProposeAllocation
// @Summary Propose judge assignments for a drawn round
// @Tags tabulation
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param round path int true "Round number"
// @Param input body proposeAllocationInput false "Stage and start time"
// @Success 201 {object} allocation.Proposal
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/rounds/{round}/allocations [post]
func (h *TabulationHandler) ProposeAllocation(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input proposeAllocationInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	proposal, err := h.tabulationService.ProposeAllocation(r.Context(), tournamentID, services.ProposeAllocationParams{
		Stage:       input.Stage,
		Round:       round,
		ScheduledAt: input.ScheduledAt,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"proposal": proposal}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CommitAllocation
// @Summary Commit a proposal with manual overrides
// @Tags tabulation
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param round path int true "Round number"
// @Param proposalID path string true "Proposal ID"
// @Param input body commitAllocationInput false "Stage and overrides"
// @Success 200 {array} models.Pairing
// @Failure 404 {object} map[string]string "proposal expired or unknown"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/rounds/{round}/allocations/{proposalID}/commit [post]
func (h *TabulationHandler) CommitAllocation(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	proposalID := chi.URLParam(r, "proposalID")
	if proposalID == "" {
		badRequestResponse(w, r, errors.New("missing proposalID in URL path"))
		return
	}

	var input commitAllocationInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pairings, err := h.tabulationService.CommitAllocation(r.Context(), tournamentID, services.CommitAllocationParams{
		Stage:      input.Stage,
		Round:      round,
		ProposalID: proposalID,
		Overrides:  input.Overrides,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pairings": pairings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BuildBracket
// @Summary Seed the elimination bracket from the current standings
// @Tags tabulation
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body buildBracketInput true "Bracket size"
// @Success 201 {object} brackets.Bracket
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket [post]
func (h *TabulationHandler) BuildBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input buildBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.tabulationService.BuildBracket(r.Context(), tournamentID, input.Size)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResult
// @Summary Record the result of a debated room
// @Tags tabulation
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stage path string true "preliminary or elimination"
// @Param uid path string true "Pairing UID"
// @Param input body models.Result true "Winner and speaker scores"
// @Success 200 {object} models.Pairing
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/pairings/{stage}/{uid}/result [post]
func (h *TabulationHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stage, err := getStageFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	uid := chi.URLParam(r, "uid")
	if uid == "" {
		badRequestResponse(w, r, errors.New("missing uid in URL path"))
		return
	}

	var input models.Result
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pairing, err := h.tabulationService.RecordResult(r.Context(), tournamentID, stage, uid, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pairing": pairing}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TabulationHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ranked, err := h.tabulationService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": ranked}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublishStandings writes the computed records back and pushes the table to
// live clients.
func (h *TabulationHandler) PublishStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ranked, err := h.tabulationService.PublishStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": ranked}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TabulationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings, err := h.tabulationService.GetSettings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TabulationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input models.TabulationSettings
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings, err := h.tabulationService.UpdateSettings(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
