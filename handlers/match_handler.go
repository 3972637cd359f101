package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/smash-arena/scoring"
	"github.com/Dosada05/smash-arena/services"
)

// ScorerPINHeader carries the arena's scorer PIN on score writes.
const ScorerPINHeader = "X-Scorer-PIN"

type MatchHandler struct {
	matchService  services.MatchService
	accessService services.AccessService
}

func NewMatchHandler(ms services.MatchService, as services.AccessService) *MatchHandler {
	return &MatchHandler{
		matchService:  ms,
		accessService: as,
	}
}

// ScheduleMatch godoc
// @Summary Schedule a match
// @Tags matches
// @Description The arena must be locked. Points is 11, 15 or 21; use custom_points for anything else.
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param body body services.ScheduleMatchInput true "Match data"
// @Success 201 {object} map[string]interface{} "Scheduled match"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Arena not locked"
// @Security BearerAuth
// @Router /arenas/{arenaID}/matches [post]
func (h *MatchHandler) ScheduleMatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ScheduleMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ScheduleMatch(r.Context(), actor, arenaID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateRoundRobin godoc
// @Summary Schedule a full round robin
// @Tags matches
// @Description Pairs every team with every other team. The arena must be locked and have no matches yet.
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param body body services.RoundRobinInput true "Fixture options"
// @Success 201 {object} map[string]interface{} "Created matches"
// @Failure 400 {object} map[string]string "Fewer than two teams or bad options"
// @Failure 409 {object} map[string]string "Arena not locked or already has matches"
// @Security BearerAuth
// @Router /arenas/{arenaID}/matches/round-robin [post]
func (h *MatchHandler) GenerateRoundRobin(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.RoundRobinInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.GenerateRoundRobin(r.Context(), actor, arenaID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches godoc
// @Summary Matches of an arena
// @Tags matches
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Matches ordered by start time"
// @Failure 404 {object} map[string]string "Arena not found"
// @Router /arenas/{arenaID}/matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matches, err := h.matchService.ListMatches(r.Context(), arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatch godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "Match"
// @Failure 404 {object} map[string]string "Match not found"
// @Router /arenas/{arenaID}/matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if match.ArenaID != arenaID {
		notFoundResponse(w, r)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteMatch godoc
// @Summary Delete a match that is not completed
// @Tags matches
// @Param arenaID path int true "Arena ID"
// @Param matchID path int true "Match ID"
// @Success 204 "Deleted"
// @Failure 409 {object} map[string]string "Match completed"
// @Security BearerAuth
// @Router /arenas/{arenaID}/matches/{matchID} [delete]
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.matchService.DeleteMatch(r.Context(), actor, arenaID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scoreGrant resolves the write permission for the request. The PIN may
// come from the header or, for forms, the pin query parameter.
func (h *MatchHandler) scoreGrant(w http.ResponseWriter, r *http.Request) (services.ScoreGrant, int, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return services.ScoreGrant{}, 0, false
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return services.ScoreGrant{}, 0, false
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return services.ScoreGrant{}, 0, false
	}

	pin := strings.TrimSpace(r.Header.Get(ScorerPINHeader))
	if pin == "" {
		pin = strings.TrimSpace(r.URL.Query().Get("pin"))
	}
	grant, err := h.accessService.GrantScoring(r.Context(), actor, arenaID, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return services.ScoreGrant{}, 0, false
	}
	return grant, matchID, true
}

// ApplyPoint godoc
// @Summary Add or remove one point
// @Tags scoring
// @Description Organizers score without a PIN; everyone else sends the arena's scorer PIN in the X-Scorer-PIN header.
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param matchID path int true "Match ID"
// @Param X-Scorer-PIN header string false "Scorer PIN"
// @Param body body services.PointInput true "{\"set_index\": 0, \"side\": \"A\", \"delta\": 1}"
// @Success 200 {object} services.ScoreUpdate "Updated match"
// @Failure 400 {object} map[string]string "Bad delta, side or set"
// @Failure 403 {object} map[string]string "Wrong PIN"
// @Failure 409 {object} map[string]string "Set or match already decided"
// @Security BearerAuth
// @Router /arenas/{arenaID}/matches/{matchID}/points [post]
func (h *MatchHandler) ApplyPoint(w http.ResponseWriter, r *http.Request) {
	grant, matchID, ok := h.scoreGrant(w, r)
	if !ok {
		return
	}
	var input services.PointInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	upd, err := h.matchService.ApplyPoint(r.Context(), grant, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, upd, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitScore godoc
// @Summary Save a full score sheet
// @Tags scoring
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param matchID path int true "Match ID"
// @Param X-Scorer-PIN header string false "Scorer PIN"
// @Param body body object true "{\"score\": [{\"a\": 21, \"b\": 15}, {\"a\": 0, \"b\": 0}, {\"a\": 0, \"b\": 0}]}"
// @Success 200 {object} services.ScoreUpdate "Updated match"
// @Failure 400 {object} map[string]string "Wrong number of sets or negative points"
// @Failure 403 {object} map[string]string "Wrong PIN"
// @Failure 409 {object} map[string]string "Match completed"
// @Security BearerAuth
// @Router /arenas/{arenaID}/matches/{matchID}/score [put]
func (h *MatchHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	grant, matchID, ok := h.scoreGrant(w, r)
	if !ok {
		return
	}
	var input struct {
		Score scoring.MatchScore `json:"score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Score == nil {
		badRequestResponse(w, r, errors.New("score is required"))
		return
	}

	upd, err := h.matchService.SubmitScore(r.Context(), grant, matchID, input.Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, upd, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UndoLastPoint godoc
// @Summary Undo the last point
// @Tags scoring
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param matchID path int true "Match ID"
// @Param X-Scorer-PIN header string false "Scorer PIN"
// @Success 200 {object} services.ScoreUpdate "Updated match"
// @Failure 409 {object} map[string]string "Nothing to undo or match completed"
// @Security BearerAuth
// @Router /arenas/{arenaID}/matches/{matchID}/undo [post]
func (h *MatchHandler) UndoLastPoint(w http.ResponseWriter, r *http.Request) {
	grant, matchID, ok := h.scoreGrant(w, r)
	if !ok {
		return
	}
	upd, err := h.matchService.UndoLastPoint(r.Context(), grant, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, upd, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListScoreEvents godoc
// @Summary Score log of a match
// @Tags scoring
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "Events, oldest first"
// @Failure 404 {object} map[string]string "Match not found"
// @Router /arenas/{arenaID}/matches/{matchID}/events [get]
func (h *MatchHandler) ListScoreEvents(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	events, err := h.matchService.ListScoreEvents(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
