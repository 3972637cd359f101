package handlers

import (
	"net/http"

	"github.com/Dosada05/smash-arena/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// CreateTeam godoc
// @Summary Create a team
// @Tags teams
// @Description Players must already be in the arena's pool. Not allowed once the arena is locked.
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param body body services.CreateTeamInput true "Team data"
// @Success 201 {object} map[string]interface{} "Created team"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Name taken or arena locked"
// @Security BearerAuth
// @Router /arenas/{arenaID}/teams [post]
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), actor, arenaID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTeams godoc
// @Summary Teams of an arena
// @Tags teams
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Teams"
// @Router /arenas/{arenaID}/teams [get]
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teams, err := h.teamService.ListTeams(r.Context(), arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteTeam godoc
// @Summary Delete a team
// @Tags teams
// @Param arenaID path int true "Arena ID"
// @Param teamID path int true "Team ID"
// @Success 204 "Deleted"
// @Failure 409 {object} map[string]string "Team has matches or arena locked"
// @Security BearerAuth
// @Router /arenas/{arenaID}/teams/{teamID} [delete]
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.teamService.DeleteTeam(r.Context(), actor, arenaID, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
