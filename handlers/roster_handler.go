package handlers

import (
	"net/http"

	"github.com/Dosada05/tabroom/models"
	"github.com/Dosada05/tabroom/services"
)

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rs services.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rs}
}

type createTeamInput struct {
	Name             string       `json:"name"`
	InstitutionID    *int         `json:"institution_id"`
	PreAllocatedSide *models.Side `json:"pre_allocated_side"`
}

type setTeamActiveInput struct {
	Active *bool `json:"active"`
}

type createJudgeInput struct {
	Name            string                `json:"name"`
	Tier            models.ExperienceTier `json:"tier"`
	Specializations []string              `json:"specializations"`
	Availability    models.Availability   `json:"availability"`
	Alumni          bool                  `json:"alumni"`
	MaxRoundsPerDay int                   `json:"max_rounds_per_day"`
}

type createConflictInput struct {
	Kind      models.ConflictKind `json:"kind"`
	SubjectID int                 `json:"subject_id"`
	ObjectID  int                 `json:"object_id"`
}

// CreateTeam
// @Summary Register a team
// @Tags roster
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body createTeamInput true "Team"
// @Success 201 {object} models.Team
// @Failure 409 {object} map[string]string "team name taken"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/teams [post]
func (h *RosterHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input createTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.rosterService.AddTeam(r.Context(), tournamentID, models.Team{
		Name:             input.Name,
		InstitutionID:    input.InstitutionID,
		PreAllocatedSide: input.PreAllocatedSide,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.rosterService.ListTeams(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetTeamActive withdraws ({"active": false}) or reinstates a team.
func (h *RosterHandler) SetTeamActive(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input setTeamActiveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Active == nil {
		errorResponse(w, r, http.StatusBadRequest, "active is required")
		return
	}

	team, err := h.rosterService.SetTeamActive(r.Context(), tournamentID, teamID, *input.Active)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateJudge
// @Summary Register a judge
// @Tags roster
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body createJudgeInput true "Judge"
// @Success 201 {object} models.Judge
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/judges [post]
func (h *RosterHandler) CreateJudge(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input createJudgeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	judge, err := h.rosterService.AddJudge(r.Context(), tournamentID, models.Judge{
		Name:            input.Name,
		Tier:            input.Tier,
		Specializations: input.Specializations,
		Availability:    input.Availability,
		Alumni:          input.Alumni,
		MaxRoundsPerDay: input.MaxRoundsPerDay,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"judge": judge}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) ListJudges(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	judges, err := h.rosterService.ListJudges(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"judges": judges}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) UpdateJudgeAvailability(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	judgeID, err := getIDFromURL(r, "judgeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input models.Availability
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	judge, err := h.rosterService.UpdateJudgeAvailability(r.Context(), tournamentID, judgeID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"judge": judge}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) CreateConflict(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input createConflictInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := h.rosterService.AddConflict(r.Context(), tournamentID, models.ConflictRecord{
		Kind:      input.Kind,
		SubjectID: input.SubjectID,
		ObjectID:  input.ObjectID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"conflict": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	records, err := h.rosterService.ListConflicts(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"conflicts": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) DeleteConflict(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	conflictID, err := getIDFromURL(r, "conflictID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rosterService.RemoveConflict(r.Context(), tournamentID, conflictID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
