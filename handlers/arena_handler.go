package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/smash-arena/repositories"
	"github.com/Dosada05/smash-arena/services"
	"github.com/go-chi/chi/v5"
)

const defaultArenaPageSize = 50

type ArenaHandler struct {
	arenaService services.ArenaService
}

func NewArenaHandler(arenaService services.ArenaService) *ArenaHandler {
	return &ArenaHandler{arenaService: arenaService}
}

// CreateArena godoc
// @Summary Create an arena
// @Tags arenas
// @Description Creates an arena owned by the current organizer. The scorer PIN starts as 0000.
// @Accept json
// @Produce json
// @Param body body services.CreateArenaInput true "Arena data"
// @Success 201 {object} map[string]interface{} "Created arena"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an organizer"
// @Security BearerAuth
// @Router /arenas [post]
func (h *ArenaHandler) CreateArena(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var input services.CreateArenaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	arena, err := h.arenaService.CreateArena(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListArenas godoc
// @Summary List arenas
// @Tags arenas
// @Produce json
// @Param organizer_id query int false "Only arenas of this organizer"
// @Param locked query bool false "Filter by lock state"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{} "Arenas"
// @Failure 400 {object} map[string]string "Bad query"
// @Router /arenas [get]
func (h *ArenaHandler) ListArenas(w http.ResponseWriter, r *http.Request) {
	filter, err := parseArenaFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	arenas, err := h.arenaService.ListArenas(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arenas": arenas}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseArenaFilter(r *http.Request) (repositories.ListArenasFilter, error) {
	q := r.URL.Query()
	filter := repositories.ListArenasFilter{Limit: defaultArenaPageSize}

	if v := q.Get("organizer_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid organizer_id: %q", v)
		}
		filter.OrganizerID = &id
	}
	if v := q.Get("locked"); v != "" {
		locked, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid locked: %q", v)
		}
		filter.Locked = &locked
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 200 {
			return filter, fmt.Errorf("invalid limit: %q", v)
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("invalid offset: %q", v)
		}
		filter.Offset = offset
	}
	return filter, nil
}

// GetArena godoc
// @Summary Arena dashboard
// @Tags arenas
// @Description Returns the arena with its teams, matches, player pool and current standings.
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Arena details"
// @Failure 400 {object} map[string]string "Bad ID"
// @Failure 404 {object} map[string]string "Arena not found"
// @Router /arenas/{arenaID} [get]
func (h *ArenaHandler) GetArena(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	details, err := h.arenaService.GetArenaDetails(r.Context(), arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, details, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetArenaByCode godoc
// @Summary Find an arena by join code
// @Tags arenas
// @Produce json
// @Param code path string true "Join code"
// @Success 200 {object} map[string]interface{} "Arena"
// @Failure 404 {object} map[string]string "Arena not found"
// @Router /arenas/code/{code} [get]
func (h *ArenaHandler) GetArenaByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if strings.TrimSpace(code) == "" {
		badRequestResponse(w, r, errors.New("join code is required"))
		return
	}
	arena, err := h.arenaService.GetArenaByJoinCode(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteArena godoc
// @Summary Delete an arena
// @Tags arenas
// @Param arenaID path int true "Arena ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Not the organizer"
// @Failure 404 {object} map[string]string "Arena not found"
// @Security BearerAuth
// @Router /arenas/{arenaID} [delete]
func (h *ArenaHandler) DeleteArena(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.arenaService.DeleteArena(r.Context(), actor, arenaID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinArena godoc
// @Summary Join an arena
// @Tags arenas
// @Description Public arenas add the user right away; private arenas create a pending join request.
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Joined"
// @Success 202 {object} map[string]interface{} "Request pending"
// @Failure 409 {object} map[string]string "Already a member or request pending"
// @Security BearerAuth
// @Router /arenas/{arenaID}/join [post]
func (h *ArenaHandler) JoinArena(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.arenaService.JoinArena(r.Context(), actor, arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Joined {
		status = http.StatusAccepted
	}
	if err := writeJSON(w, status, res, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListJoinRequests godoc
// @Summary Pending join requests
// @Tags arenas
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Requests"
// @Failure 403 {object} map[string]string "Not the organizer"
// @Security BearerAuth
// @Router /arenas/{arenaID}/join-requests [get]
func (h *ArenaHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	requests, err := h.arenaService.ListJoinRequests(r.Context(), actor, arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResolveJoinRequest godoc
// @Summary Approve or reject a join request
// @Tags arenas
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param requestID path int true "Request ID"
// @Param body body object true "{\"approve\": true}"
// @Success 200 {object} map[string]interface{} "Resolved request"
// @Failure 409 {object} map[string]string "Already resolved"
// @Security BearerAuth
// @Router /arenas/{arenaID}/join-requests/{requestID} [put]
func (h *ArenaHandler) ResolveJoinRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Approve *bool `json:"approve"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Approve == nil {
		badRequestResponse(w, r, errors.New("approve is required"))
		return
	}

	req, err := h.arenaService.ResolveJoinRequest(r.Context(), actor, arenaID, requestID, *input.Approve)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"request": req}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LockArena godoc
// @Summary Lock the arena
// @Tags arenas
// @Description Freezes the player pool and the teams. Matches can only be scheduled in a locked arena.
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Locked arena"
// @Failure 403 {object} map[string]string "Not the organizer"
// @Security BearerAuth
// @Router /arenas/{arenaID}/lock [post]
func (h *ArenaHandler) LockArena(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	arena, err := h.arenaService.LockArena(r.Context(), actor, arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateScorerPIN godoc
// @Summary Change the scorer PIN
// @Tags arenas
// @Accept json
// @Param arenaID path int true "Arena ID"
// @Param body body object true "{\"pin\": \"1234\"}"
// @Success 204 "Updated"
// @Failure 400 {object} map[string]string "PIN must be 4 digits"
// @Security BearerAuth
// @Router /arenas/{arenaID}/scorer-pin [put]
func (h *ArenaHandler) UpdateScorerPIN(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		PIN string `json:"pin"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.arenaService.UpdateScorerPIN(r.Context(), actor, arenaID, input.PIN); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateRankingCriteria godoc
// @Summary Replace the ranking order
// @Tags arenas
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param body body object true "{\"criteria\": [\"MATCHES_WON\", \"SETS_WON\", \"POINTS_DIFF\", \"HEAD_TO_HEAD\"]}"
// @Success 200 {object} map[string]interface{} "Updated arena"
// @Failure 400 {object} map[string]string "Not a permutation of the known criteria"
// @Security BearerAuth
// @Router /arenas/{arenaID}/ranking-criteria [put]
func (h *ArenaHandler) UpdateRankingCriteria(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Criteria []string `json:"criteria"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	arena, err := h.arenaService.UpdateRankingCriteria(r.Context(), actor, arenaID, input.Criteria)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MoveRankingCriterion godoc
// @Summary Move one ranking criterion up or down
// @Tags arenas
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param body body object true "{\"index\": 2, \"direction\": \"up\"}"
// @Success 200 {object} map[string]interface{} "Updated arena"
// @Failure 400 {object} map[string]string "Cannot move further"
// @Security BearerAuth
// @Router /arenas/{arenaID}/ranking-criteria/move [post]
func (h *ArenaHandler) MoveRankingCriterion(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Index     int    `json:"index"`
		Direction string `json:"direction"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	arena, err := h.arenaService.MoveRankingCriterion(r.Context(), actor, arenaID, input.Index, input.Direction)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPool godoc
// @Summary Player pool
// @Tags pool
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Players"
// @Router /arenas/{arenaID}/pool [get]
func (h *ArenaHandler) ListPool(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	players, err := h.arenaService.ListPoolPlayers(r.Context(), arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddPoolPlayer godoc
// @Summary Add a player to the pool
// @Tags pool
// @Description "@username" adds a registered user; anything else is looked up as a username and otherwise added as a guest.
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param body body object true "{\"entry\": \"@username or Name\"}"
// @Success 201 {object} map[string]interface{} "Added player"
// @Failure 404 {object} map[string]string "Unknown username"
// @Failure 409 {object} map[string]string "Already in pool or arena locked"
// @Security BearerAuth
// @Router /arenas/{arenaID}/pool [post]
func (h *ArenaHandler) AddPoolPlayer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Entry string `json:"entry"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	player, err := h.arenaService.AddPoolPlayer(r.Context(), actor, arenaID, input.Entry)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportPool godoc
// @Summary Bulk import players
// @Tags pool
// @Description One player per line as "Name, @username". Players already in the pool are skipped.
// @Accept json
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param body body object true "{\"text\": \"Ann, @ann\\nBob\"}"
// @Success 200 {object} services.ImportResult "Import result"
// @Failure 400 {object} map[string]string "Nothing to import"
// @Security BearerAuth
// @Router /arenas/{arenaID}/pool/import [post]
func (h *ArenaHandler) ImportPool(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Text string `json:"text"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.arenaService.ImportPoolPlayers(r.Context(), actor, arenaID, input.Text)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, res, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemovePoolPlayer godoc
// @Summary Remove a player from the pool
// @Tags pool
// @Param arenaID path int true "Arena ID"
// @Param playerID path int true "Pool player ID"
// @Success 204 "Removed"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /arenas/{arenaID}/pool/{playerID} [delete]
func (h *ArenaHandler) RemovePoolPlayer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.arenaService.RemovePoolPlayer(r.Context(), actor, arenaID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
