package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/services"
	"github.com/go-chi/chi/v5"
)

type fakeStandings struct {
	services.StandingsService
	gotKind    services.ExportKind
	publishErr error
}

func (f *fakeStandings) GetStandings(_ context.Context, arenaID int) (*models.Standings, error) {
	if arenaID != 1 {
		return nil, services.ErrArenaNotFound
	}
	return &models.Standings{ArenaID: 1, Criteria: []string{"MATCHES_WON"}}, nil
}

func (f *fakeStandings) BuildExport(_ context.Context, _ int, kind services.ExportKind) (*services.Export, error) {
	f.gotKind = kind
	return &services.Export{FileName: "spring-open_Standings.csv", ContentType: "text/csv", Data: []byte("Rank,Team\n")}, nil
}

func (f *fakeStandings) PublishExport(_ context.Context, _ services.Actor, _ int, kind services.ExportKind) (*services.PublishedExport, error) {
	f.gotKind = kind
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return &services.PublishedExport{Key: "k", URL: "https://cdn.example.test/k"}, nil
}

func standingsRouter(h *StandingsHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/arenas/{arenaID}/standings", h.GetStandings)
	r.Get("/arenas/{arenaID}/exports/{export}", h.DownloadExport)
	r.Post("/arenas/{arenaID}/exports/{export}", h.PublishExport)
	return r
}

func TestGetStandingsHandler(t *testing.T) {
	router := standingsRouter(NewStandingsHandler(&fakeStandings{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/arenas/1/standings", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/arenas/3/standings", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing arena status = %d; want 404", rr.Code)
	}
}

func TestDownloadExportHandler(t *testing.T) {
	fake := &fakeStandings{}
	router := standingsRouter(NewStandingsHandler(fake))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/arenas/1/exports/standings.csv", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rr.Code, rr.Body.String())
	}
	if fake.gotKind != services.ExportStandingsCSV {
		t.Fatalf("kind = %q; want %q", fake.gotKind, services.ExportStandingsCSV)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="spring-open_Standings.csv"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("Content-Type = %q", got)
	}
	if rr.Body.String() != "Rank,Team\n" {
		t.Fatalf("body = %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/arenas/1/exports/bracket.pdf", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown export status = %d; want 400", rr.Code)
	}
}

func TestPublishExportHandler(t *testing.T) {
	tests := []struct {
		name string
		anon bool
		err  error
		want int
	}{
		{name: "published", want: http.StatusCreated},
		{name: "anonymous", anon: true, want: http.StatusUnauthorized},
		{name: "not organizer", err: services.ErrForbiddenOperation, want: http.StatusForbidden},
		{name: "no storage", err: services.ErrStorageUnavailable, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeStandings{publishErr: tt.err}
			router := standingsRouter(NewStandingsHandler(fake))

			req := httptest.NewRequest(http.MethodPost, "/arenas/1/exports/roster.txt", nil)
			if !tt.anon {
				req = asUser(req, 1, models.RoleOrganizer)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d; want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
			if !tt.anon && fake.gotKind != services.ExportRosterTXT {
				t.Fatalf("kind = %q; want %q", fake.gotKind, services.ExportRosterTXT)
			}
		})
	}
}
