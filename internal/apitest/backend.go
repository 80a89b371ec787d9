// Package apitest runs an in-memory destinai backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Makepad-fr/destinai/internal/model"
)

// Route names used by Calls and Fail.
const (
	RouteLoginPage  = "login.page"
	RouteList       = "favorites.list"
	RouteUpdate     = "favorites.update"
	RouteDelete     = "favorites.delete"
	RouteCreate     = "favorites.create"
	RouteOTPRequest = "otp.request"
	RouteOTPVerify  = "otp.verify"
	RouteLogout     = "auth.logout"
	RouteSession    = "auth.session"
	RouteRecommend  = "recommendations"
)

const (
	ValidCode    = "123456"
	ValidToken   = "magic-link-token"
	CSRFHeader   = "X-CSRF-TOKEN"
	FavoritesCap = model.MaxFavorites
)

type failure struct {
	status int
	body   model.APIError
}

// Backend mimics the server side of the API closely enough for client tests.
type Backend struct {
	Server *httptest.Server

	// CSRFToken, when set, is required on every mutating /api request and is
	// published through the login page meta tags.
	CSRFToken string
	// DestinationCount is how many destinations /api/recommendations returns.
	DestinationCount int
	// SessionTTL, when set, gives the verify cookie a Max-Age.
	SessionTTL time.Duration

	mu        sync.Mutex
	favorites []model.Favorite
	sessions  map[string]string
	calls     map[string]int
	queries   []map[string]string
	bodies    map[string][]map[string]any
	failures  map[string]failure
	seq       int
}

func NewBackend() *Backend {
	b := &Backend{
		DestinationCount: model.DestinationCount,
		sessions:         map[string]string{},
		calls:            map[string]int{},
		bodies:           map[string][]map[string]any{},
		failures:         map[string]failure{},
	}
	r := mux.NewRouter()
	r.HandleFunc("/login", b.loginPage).Methods(http.MethodGet).Name(RouteLoginPage)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/favorites", b.listFavorites).Methods(http.MethodGet).Name(RouteList)
	api.HandleFunc("/favorites", b.createFavorite).Methods(http.MethodPost).Name(RouteCreate)
	api.HandleFunc("/favorites/{id}", b.updateFavorite).Methods(http.MethodPatch).Name(RouteUpdate)
	api.HandleFunc("/favorites/{id}", b.deleteFavorite).Methods(http.MethodDelete).Name(RouteDelete)
	api.HandleFunc("/auth/otp/request", b.requestOTP).Methods(http.MethodPost).Name(RouteOTPRequest)
	api.HandleFunc("/auth/otp/verify", b.verifyOTP).Methods(http.MethodPost).Name(RouteOTPVerify)
	api.HandleFunc("/auth/logout", b.logout).Methods(http.MethodPost).Name(RouteLogout)
	api.HandleFunc("/auth/session", b.session).Methods(http.MethodGet).Name(RouteSession)
	api.HandleFunc("/recommendations", b.recommend).Methods(http.MethodPost).Name(RouteRecommend)
	r.Use(b.record)
	api.Use(b.intercept)
	b.Server = httptest.NewServer(r)
	return b
}

func (b *Backend) Close() { b.Server.Close() }

func (b *Backend) URL() string { return b.Server.URL }

// Login creates a session for email and returns its cookie value.
func (b *Backend) Login(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newSessionLocked(email)
}

func (b *Backend) newSessionLocked(email string) string {
	b.seq++
	token := fmt.Sprintf("sess-%d", b.seq)
	b.sessions[token] = email
	return token
}

// Seed stores favorites directly, newest last.
func (b *Backend) Seed(countries ...string) []model.Favorite {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Favorite, 0, len(countries))
	for _, c := range countries {
		out = append(out, b.addLocked(c))
	}
	return out
}

func (b *Backend) addLocked(country string) model.Favorite {
	f := model.Favorite{
		ID:        uuid.New(),
		Country:   country,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(len(b.favorites)) * time.Hour),
	}
	b.favorites = append(b.favorites, f)
	return f
}

// Favorites returns a copy of the stored favorites.
func (b *Backend) Favorites() []model.Favorite {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Favorite(nil), b.favorites...)
}

// Fail makes every following call to route answer with status and body.
func (b *Backend) Fail(route string, status int, body model.APIError) {
	b.mu.Lock()
	b.failures[route] = failure{status: status, body: body}
	b.mu.Unlock()
}

// Recover undoes Fail for route.
func (b *Backend) Recover(route string) {
	b.mu.Lock()
	delete(b.failures, route)
	b.mu.Unlock()
}

// Calls reports how many requests reached route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// ListQueries returns the query strings of every favorites list request.
func (b *Backend) ListQueries() []map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]string(nil), b.queries...)
}

// Bodies returns the decoded JSON bodies received on route.
func (b *Backend) Bodies(route string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.bodies[route]...)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		b.mu.Lock()
		b.calls[name]++
		if name == RouteList {
			q := map[string]string{}
			for k := range r.URL.Query() {
				q[k] = r.URL.Query().Get(k)
			}
			b.queries = append(b.queries, q)
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				b.bodies[name] = append(b.bodies[name], body)
				raw, _ := json.Marshal(body)
				r.Body = readCloser{strings.NewReader(string(raw))}
			}
		}
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := mux.CurrentRoute(r).GetName()
		b.mu.Lock()
		f, failing := b.failures[name]
		token := b.CSRFToken
		b.mu.Unlock()
		if failing {
			writeJSON(w, f.status, f.body)
			return
		}
		if token != "" && r.Method != http.MethodGet && r.Header.Get(CSRFHeader) != token {
			writeJSON(w, http.StatusForbidden, model.APIError{Error: "forbidden", Message: "Invalid CSRF token."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) user(r *http.Request) (string, bool) {
	ck, err := r.Cookie("destinai_session")
	if err != nil {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.sessions[ck.Value]
	return email, ok
}

func (b *Backend) requireUser(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := b.user(r); !ok {
		writeJSON(w, http.StatusUnauthorized, model.APIError{Error: "unauthorized", Message: "Authentication required."})
		return false
	}
	return true
}

func (b *Backend) loginPage(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	token := b.CSRFToken
	b.mu.Unlock()
	w.Header().Set("Content-Type", "text/html")
	meta := ""
	if token != "" {
		meta = fmt.Sprintf(`<meta name="_csrf_header" content="%s"><meta name="_csrf" content="%s">`, CSRFHeader, token)
	}
	fmt.Fprintf(w, `<!doctype html><html><head>%s<title>Sign in</title></head><body></body></html>`, meta)
}

func (b *Backend) listFavorites(w http.ResponseWriter, r *http.Request) {
	if !b.requireUser(w, r) {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	sortBy := q.Get("sort")
	if page < 1 || size < 1 || size > 50 || (sortBy != string(model.SortNewest) && sortBy != string(model.SortOldest)) {
		writeJSON(w, http.StatusBadRequest, model.APIError{Error: "bad_request", Message: "Invalid pagination."})
		return
	}
	country := strings.ToLower(q.Get("country"))

	b.mu.Lock()
	var matched []model.Favorite
	for _, f := range b.favorites {
		if country == "" || strings.Contains(strings.ToLower(f.Country), country) {
			matched = append(matched, f)
		}
	}
	b.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if sortBy == string(model.SortOldest) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	start := (page - 1) * size
	items := []model.Favorite{}
	if start < len(matched) {
		end := start + size
		if end > len(matched) {
			end = len(matched)
		}
		items = matched[start:end]
	}
	writeJSON(w, http.StatusOK, model.FavoritesPage{Items: items, Page: page, PageSize: size, Total: int64(len(matched))})
}

func (b *Backend) createFavorite(w http.ResponseWriter, r *http.Request) {
	if !b.requireUser(w, r) {
		return
	}
	var in struct {
		Country string `json:"country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Country) == "" {
		writeJSON(w, http.StatusBadRequest, model.APIError{Error: "validation_error", Message: "Validation failed."})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.favorites) >= FavoritesCap {
		writeJSON(w, http.StatusBadRequest, model.APIError{Error: "bad_request", Message: "Favorites limit reached."})
		return
	}
	for _, f := range b.favorites {
		if strings.EqualFold(f.Country, in.Country) {
			writeJSON(w, http.StatusBadRequest, model.APIError{Error: "bad_request", Message: "Favorite already exists for this country."})
			return
		}
	}
	writeJSON(w, http.StatusCreated, b.addLocked(in.Country))
}

func (b *Backend) updateFavorite(w http.ResponseWriter, r *http.Request) {
	if !b.requireUser(w, r) {
		return
	}
	var in struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len([]rune(in.Note)) > model.MaxNoteLength {
		writeJSON(w, http.StatusBadRequest, model.APIError{Error: "validation_error", Message: "Validation failed."})
		return
	}
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.favorites {
		if b.favorites[i].ID.String() == id {
			b.favorites[i].Note = in.Note
			writeJSON(w, http.StatusOK, b.favorites[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, model.APIError{Error: "not_found", Message: "Favorite not found."})
}

func (b *Backend) deleteFavorite(w http.ResponseWriter, r *http.Request) {
	if !b.requireUser(w, r) {
		return
	}
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.favorites {
		if b.favorites[i].ID.String() == id {
			b.favorites = append(b.favorites[:i], b.favorites[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, model.APIError{Error: "not_found", Message: "Favorite not found."})
}

func (b *Backend) requestOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !strings.Contains(in.Email, "@") {
		writeJSON(w, http.StatusBadRequest, model.APIError{Error: "validation_error", Message: "Validation failed."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (b *Backend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Code  string `json:"code"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		writeJSON(w, http.StatusBadRequest, model.APIError{Error: "validation_error", Message: "Validation failed."})
		return
	}
	if in.Code != ValidCode && in.Token != ValidToken {
		writeJSON(w, http.StatusUnauthorized, model.APIError{Error: "unauthorized", Message: "Invalid or expired code."})
		return
	}
	b.mu.Lock()
	token := b.newSessionLocked(in.Email)
	ttl := b.SessionTTL
	b.mu.Unlock()
	ck := &http.Cookie{Name: "destinai_session", Value: token, Path: "/", HttpOnly: true, Secure: true}
	if ttl > 0 {
		ck.MaxAge = int(ttl / time.Second)
	}
	http.SetCookie(w, ck)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "authenticated",
		"user":   model.User{ID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(in.Email)), Email: in.Email},
	})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie("destinai_session"); err == nil {
		b.mu.Lock()
		delete(b.sessions, ck.Value)
		b.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: "destinai_session", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (b *Backend) session(w http.ResponseWriter, r *http.Request) {
	email, ok := b.user(r)
	if !ok {
		writeJSON(w, http.StatusOK, model.Session{})
		return
	}
	writeJSON(w, http.StatusOK, model.Session{
		Authenticated: true,
		User:          &model.User{ID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(email)), Email: email},
	})
}

func (b *Backend) recommend(w http.ResponseWriter, r *http.Request) {
	if !b.requireUser(w, r) {
		return
	}
	b.mu.Lock()
	n := b.DestinationCount
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, model.Recommendations{SchemaVersion: "1", Destinations: Destinations(n)})
}

// Destinations builds n distinct sample destinations.
func Destinations(n int) []model.Destination {
	countries := []string{"Portugal", "Japan", "Chile", "Norway", "Morocco", "Peru", "Vietnam"}
	out := make([]model.Destination, 0, n)
	for i := 0; i < n; i++ {
		name := countries[i%len(countries)]
		if i >= len(countries) {
			name = fmt.Sprintf("%s %d", name, i)
		}
		out = append(out, model.Destination{
			Country:          name,
			Region:           "Region " + strconv.Itoa(i+1),
			DailyBudgetRange: "60-120",
			BestMonths:       []string{"May", "June"},
			WeatherSummary:   "Mild and sunny.",
			AccommodationFit: "Plenty of hotels.",
			TravelStyleFit:   "Easy to explore.",
			TopActivities:    []string{"Hiking", "Surfing"},
			Pros:             []string{"Food"},
			Cons:             []string{"Crowds"},
			WhyMatch:         "Balanced activities.",
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type readCloser struct{ *strings.Reader }

func (readCloser) Close() error { return nil }
