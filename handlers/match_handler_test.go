package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/smash-arena/middleware"
	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/scoring"
	"github.com/Dosada05/smash-arena/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
)

// fakeAccess hands out an empty grant when the PIN matches.
type fakeAccess struct {
	pin     string
	gotPIN  string
	gotUser int
}

func (f *fakeAccess) GrantScoring(_ context.Context, actor services.Actor, _ int, pin string) (services.ScoreGrant, error) {
	f.gotPIN = pin
	f.gotUser = actor.UserID
	if pin != f.pin {
		return services.ScoreGrant{}, services.ErrScoringNotAllowed
	}
	return services.ScoreGrant{}, nil
}

// fakeMatches implements only what the tests call; anything else panics
// through the nil embedded interface.
type fakeMatches struct {
	services.MatchService
	match     *models.Match
	applyErr  error
	submitErr error
	gotPoint  services.PointInput
	gotScore  scoring.MatchScore
}

func (f *fakeMatches) GetMatch(_ context.Context, id int) (*models.Match, error) {
	if f.match == nil || f.match.ID != id {
		return nil, services.ErrMatchNotFound
	}
	return f.match, nil
}

func (f *fakeMatches) ApplyPoint(_ context.Context, _ services.ScoreGrant, _ int, input services.PointInput) (*services.ScoreUpdate, error) {
	f.gotPoint = input
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &services.ScoreUpdate{Match: f.match, Transition: scoring.Transition{Changed: true}}, nil
}

func (f *fakeMatches) SubmitScore(_ context.Context, _ services.ScoreGrant, _ int, score scoring.MatchScore) (*services.ScoreUpdate, error) {
	f.gotScore = score
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &services.ScoreUpdate{Match: f.match}, nil
}

func (f *fakeMatches) UndoLastPoint(context.Context, services.ScoreGrant, int) (*services.ScoreUpdate, error) {
	return nil, services.ErrNothingToUndo
}

func asUser(req *http.Request, id int, role models.UserRole) *http.Request {
	claims := jwt.MapClaims{"user_id": float64(id), "role": string(role), "username": "scorer"}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

func matchRouter(h *MatchHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/arenas/{arenaID}/matches/{matchID}", h.GetMatch)
	r.Post("/arenas/{arenaID}/matches/{matchID}/points", h.ApplyPoint)
	r.Put("/arenas/{arenaID}/matches/{matchID}/score", h.SubmitScore)
	r.Post("/arenas/{arenaID}/matches/{matchID}/undo", h.UndoLastPoint)
	return r
}

func TestApplyPointHandler(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		pin      string
		query    string
		anon     bool
		applyErr error
		want     int
	}{
		{name: "point with header pin", body: `{"set_index":0,"side":"A","delta":1}`, pin: "4321", want: http.StatusOK},
		{name: "point with query pin", body: `{"set_index":0,"side":"B","delta":-1}`, query: "?pin=4321", want: http.StatusOK},
		{name: "wrong pin", body: `{"set_index":0,"side":"A","delta":1}`, pin: "0000", want: http.StatusForbidden},
		{name: "anonymous", body: `{"set_index":0,"side":"A","delta":1}`, pin: "4321", anon: true, want: http.StatusUnauthorized},
		{name: "bad side", body: `{"set_index":0,"side":"C","delta":1}`, pin: "4321", want: http.StatusBadRequest},
		{name: "unknown field", body: `{"set":0}`, pin: "4321", want: http.StatusBadRequest},
		{name: "set decided", body: `{"set_index":0,"side":"A","delta":1}`, pin: "4321", applyErr: scoring.ErrSetDecided, want: http.StatusConflict},
		{name: "match completed", body: `{"set_index":0,"side":"A","delta":1}`, pin: "4321", applyErr: services.ErrMatchCompleted, want: http.StatusConflict},
		{name: "invalid delta", body: `{"set_index":0,"side":"A","delta":2}`, pin: "4321", applyErr: scoring.ErrInvalidDelta, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access := &fakeAccess{pin: "4321"}
			matches := &fakeMatches{match: &models.Match{ID: 5, ArenaID: 1}, applyErr: tt.applyErr}
			router := matchRouter(NewMatchHandler(matches, access))

			req := httptest.NewRequest(http.MethodPost, "/arenas/1/matches/5/points"+tt.query, strings.NewReader(tt.body))
			if tt.pin != "" {
				req.Header.Set(ScorerPINHeader, tt.pin)
			}
			if !tt.anon {
				req = asUser(req, 2, models.RolePlayer)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d; want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
			if rr.Code == http.StatusOK && matches.gotPoint.Side == scoring.SideNone {
				t.Fatalf("point input not passed through: %+v", matches.gotPoint)
			}
		})
	}
}

func TestApplyPointPassesInput(t *testing.T) {
	access := &fakeAccess{pin: "4321"}
	matches := &fakeMatches{match: &models.Match{ID: 5, ArenaID: 1}}
	router := matchRouter(NewMatchHandler(matches, access))

	req := httptest.NewRequest(http.MethodPost, "/arenas/1/matches/5/points", strings.NewReader(`{"set_index":2,"side":"B","delta":-1}`))
	req.Header.Set(ScorerPINHeader, " 4321 ")
	req = asUser(req, 9, models.RolePlayer)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rr.Code, rr.Body.String())
	}
	want := services.PointInput{SetIndex: 2, Side: scoring.SideB, Delta: -1}
	if matches.gotPoint != want {
		t.Fatalf("input = %+v; want %+v", matches.gotPoint, want)
	}
	if access.gotPIN != "4321" || access.gotUser != 9 {
		t.Fatalf("access got pin %q user %d", access.gotPIN, access.gotUser)
	}

	var body struct {
		Match      models.Match       `json:"match"`
		Transition scoring.Transition `json:"transition"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Match.ID != 5 {
		t.Fatalf("match id = %d; want 5", body.Match.ID)
	}
}

func TestSubmitScoreHandler(t *testing.T) {
	access := &fakeAccess{pin: "4321"}
	matches := &fakeMatches{match: &models.Match{ID: 5, ArenaID: 1}}
	router := matchRouter(NewMatchHandler(matches, access))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/arenas/1/matches/5/score", strings.NewReader(body))
		req.Header.Set(ScorerPINHeader, "4321")
		req = asUser(req, 2, models.RolePlayer)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := send(`{"score":[{"a":21,"b":15},{"a":19,"b":21},{"a":0,"b":0}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rr.Code, rr.Body.String())
	}
	if len(matches.gotScore) != 3 || matches.gotScore[1].B != 21 {
		t.Fatalf("score = %+v", matches.gotScore)
	}

	if rr := send(`{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing score status = %d; want 400", rr.Code)
	}

	for _, err := range []error{scoring.ErrSetOverplayed, scoring.ErrSetAfterMatch} {
		matches.submitErr = err
		if rr := send(`{"score":[{"a":45,"b":3},{"a":0,"b":0},{"a":0,"b":0}]}`); rr.Code != http.StatusBadRequest {
			t.Fatalf("%v status = %d; want 400", err, rr.Code)
		}
	}
}

func TestUndoNothingToUndo(t *testing.T) {
	router := matchRouter(NewMatchHandler(&fakeMatches{}, &fakeAccess{pin: "4321"}))
	req := httptest.NewRequest(http.MethodPost, "/arenas/1/matches/5/undo?pin=4321", nil)
	req = asUser(req, 2, models.RolePlayer)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d; want 409", rr.Code)
	}
}

func TestGetMatchChecksArena(t *testing.T) {
	matches := &fakeMatches{match: &models.Match{ID: 5, ArenaID: 1}}
	router := matchRouter(NewMatchHandler(matches, &fakeAccess{}))

	tests := []struct {
		path string
		want int
	}{
		{"/arenas/1/matches/5", http.StatusOK},
		{"/arenas/2/matches/5", http.StatusNotFound},
		{"/arenas/1/matches/6", http.StatusNotFound},
		{"/arenas/1/matches/abc", http.StatusBadRequest},
		{"/arenas/0/matches/5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("GET %s status = %d; want %d", tt.path, rr.Code, tt.want)
		}
	}
}
