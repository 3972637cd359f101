package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/smash-arena/services"
	"github.com/go-chi/chi/v5"
)

var exportKinds = map[string]services.ExportKind{
	"standings.csv": services.ExportStandingsCSV,
	"roster.csv":    services.ExportRosterCSV,
	"roster.txt":    services.ExportRosterTXT,
}

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// GetStandings godoc
// @Summary Live standings
// @Tags standings
// @Description Ranks teams by the arena's ranking criteria using completed matches. Malformed results are listed under "excluded".
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} models.Standings "Standings"
// @Failure 404 {object} map[string]string "Arena not found"
// @Router /arenas/{arenaID}/standings [get]
func (h *StandingsHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	table, err := h.standingsService.GetStandings(r.Context(), arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, table, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetSnapshot godoc
// @Summary Last stored standings snapshot
// @Tags standings
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Success 200 {object} map[string]interface{} "Rows of the last snapshot"
// @Router /arenas/{arenaID}/standings/snapshot [get]
func (h *StandingsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, err := h.standingsService.GetSnapshot(r.Context(), arenaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rows": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func exportKindFromURL(r *http.Request) (services.ExportKind, error) {
	name := chi.URLParam(r, "export")
	kind, ok := exportKinds[name]
	if !ok {
		return "", fmt.Errorf("unknown export %q", name)
	}
	return kind, nil
}

// DownloadExport godoc
// @Summary Download an export
// @Tags exports
// @Produce text/csv
// @Produce text/plain
// @Param arenaID path int true "Arena ID"
// @Param export path string true "standings.csv, roster.csv or roster.txt"
// @Success 200 {file} file "Export file"
// @Failure 400 {object} map[string]string "Unknown export"
// @Router /arenas/{arenaID}/exports/{export} [get]
func (h *StandingsHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	kind, err := exportKindFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	export, err := h.standingsService.BuildExport(r.Context(), arenaID, kind)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

// PublishExport godoc
// @Summary Upload an export to file storage
// @Tags exports
// @Produce json
// @Param arenaID path int true "Arena ID"
// @Param export path string true "standings.csv, roster.csv or roster.txt"
// @Success 201 {object} services.PublishedExport "Public link"
// @Failure 403 {object} map[string]string "Not the organizer"
// @Failure 503 {object} map[string]string "Storage not configured"
// @Security BearerAuth
// @Router /arenas/{arenaID}/exports/{export} [post]
func (h *StandingsHandler) PublishExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	kind, err := exportKindFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	published, err := h.standingsService.PublishExport(r.Context(), actor, arenaID, kind)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, published, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
