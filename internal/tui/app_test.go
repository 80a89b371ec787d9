package tui

import (
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/destinai/internal/api"
	"github.com/Makepad-fr/destinai/internal/apitest"
	"github.com/Makepad-fr/destinai/internal/model"
	"github.com/Makepad-fr/destinai/internal/store/handoff"
	"github.com/Makepad-fr/destinai/internal/view"
)

// memSession records what the screens persist.
type memSession struct {
	token   string
	expires *time.Time
	deleted int
}

func (m *memSession) Set(token string, expires *time.Time) error {
	m.token = token
	m.expires = expires
	return nil
}

func (m *memSession) Delete() error {
	m.token = ""
	m.deleted++
	return nil
}

type harness struct {
	t       *testing.T
	backend *apitest.Backend
	client  *api.Client
	session *memSession
	handoff *handoff.Memory
	app     tea.Model
}

func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()
	b := apitest.NewBackend()
	t.Cleanup(b.Close)
	c, err := api.NewClient(b.URL())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if loggedIn {
		c.SetSession(b.Login("ana@example.com"))
	}
	return &harness{t: t, backend: b, client: c, session: &memSession{}, handoff: handoff.NewMemory()}
}

func (h *harness) start(r Route) {
	h.t.Helper()
	h.app = New(Deps{Client: h.client, Handoff: h.handoff, Session: h.session, PageSize: 2, Theme: "mono"}, r)
	h.run(h.app.Init())
}

// step delivers msg without running the returned command.
func (h *harness) step(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.app, cmd = h.app.Update(msg)
	return cmd
}

// send delivers msg and runs every resulting command to completion.
func (h *harness) send(msg tea.Msg) {
	h.run(h.step(msg))
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		h.send(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) run(cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		h.send(msg)
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil, tea.QuitMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) route() Route { return h.app.(App).Route() }

func (h *harness) view() string { return h.app.View() }

func (h *harness) favorites() *favoritesScreen {
	h.t.Helper()
	s, ok := h.app.(App).active.(*favoritesScreen)
	if !ok {
		h.t.Fatalf("active screen is %s, not favorites", h.route())
	}
	return s
}

func (h *harness) results() *resultsScreen {
	h.t.Helper()
	s, ok := h.app.(App).active.(*resultsScreen)
	if !ok {
		h.t.Fatalf("active screen is %s, not results", h.route())
	}
	return s
}

func TestLoginRequestAndVerify(t *testing.T) {
	h := newHarness(t, false)
	h.start(RouteLogin)

	h.typeText("not-an-email")
	h.press("enter")
	if h.backend.Calls(apitest.RouteOTPRequest) != 0 {
		t.Fatal("invalid email must not reach the server")
	}
	if !strings.Contains(h.view(), view.MsgCheckInput) {
		t.Fatalf("expected input error, got:\n%s", h.view())
	}

	h = newHarness(t, false)
	h.start(RouteLogin)
	h.typeText("ana@example.com")
	h.press("enter")
	if h.backend.Calls(apitest.RouteOTPRequest) != 1 {
		t.Fatalf("expected one OTP request, got %d", h.backend.Calls(apitest.RouteOTPRequest))
	}
	if !strings.Contains(h.view(), "Code sent. Check your email to continue.") {
		t.Fatalf("expected code sent status, got:\n%s", h.view())
	}

	h.typeText(apitest.ValidCode)
	h.press("enter")
	if h.route() != RouteFavorites {
		t.Fatalf("expected favorites after verify, got %s", h.route())
	}
	if h.session.token == "" || h.session.token != h.client.SessionToken() {
		t.Fatalf("session not persisted: %q", h.session.token)
	}
	if h.backend.Calls(apitest.RouteList) != 1 {
		t.Fatal("favorites must load on entry")
	}
}

func TestLoginStoresCookieExpiry(t *testing.T) {
	h := newHarness(t, false)
	h.backend.SessionTTL = time.Hour
	h.start(RouteLogin)
	h.typeText("ana@example.com")
	h.press("enter")
	h.typeText(apitest.ValidCode)
	h.press("enter")
	if h.route() != RouteFavorites {
		t.Fatalf("expected favorites after verify, got %s", h.route())
	}
	if h.session.expires == nil || h.session.expires.Before(time.Now()) {
		t.Fatalf("expected a future expiry, got %v", h.session.expires)
	}
}

func TestLoginInvalidCodeStaysOnVerify(t *testing.T) {
	h := newHarness(t, false)
	h.start(RouteLogin)
	h.typeText("ana@example.com")
	h.press("enter")
	h.typeText("000000")
	h.press("enter")
	if h.route() != RouteLogin {
		t.Fatalf("expected to stay on login, got %s", h.route())
	}
	if !strings.Contains(h.view(), view.MsgInvalidCode) {
		t.Fatalf("expected invalid code message, got:\n%s", h.view())
	}

	// back to the request step keeps the email
	h.press("esc")
	s := h.app.(App).active.(*loginScreen)
	if s.flow.Step != view.StepRequest || s.email.Value() != "ana@example.com" {
		t.Fatalf("retry must keep the email, got step %v email %q", s.flow.Step, s.email.Value())
	}
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t, false)
	h.backend.Fail(apitest.RouteOTPRequest, http.StatusTooManyRequests, model.APIError{Error: "rate_limited"})
	h.start(RouteLogin)
	h.typeText("ana@example.com")
	h.press("enter")
	if !strings.Contains(h.view(), view.MsgRateLimited) {
		t.Fatalf("expected rate limit message, got:\n%s", h.view())
	}
}

func TestFavoritesPagingAndEmptyState(t *testing.T) {
	h := newHarness(t, true)
	h.start(RouteFavorites)
	if !strings.Contains(h.view(), view.MsgEmptyFavorite) {
		t.Fatalf("expected empty state, got:\n%s", h.view())
	}
	s := h.favorites()
	if s.pager.CanPrev() || s.pager.CanNext() {
		t.Fatal("empty list must disable both directions")
	}

	h = newHarness(t, true)
	h.backend.Seed("Spain", "Japan", "Chile")
	h.start(RouteFavorites)
	s = h.favorites()
	if got := s.pager.Label(); got != "Page 1 of 2" {
		t.Fatalf("unexpected pager %q", got)
	}

	h.press("left")
	if h.backend.Calls(apitest.RouteList) != 1 {
		t.Fatal("prev on the first page must not fetch")
	}
	h.press("right")
	s = h.favorites()
	if s.query.Page != 2 || s.pager.Label() != "Page 2 of 2" || len(s.list.Items()) != 1 {
		t.Fatalf("unexpected second page: query %+v pager %+v", s.query, s.pager)
	}
	h.press("right")
	if h.backend.Calls(apitest.RouteList) != 2 {
		t.Fatal("next on the last page must not fetch")
	}
}

func TestFavoritesSortAndFilterResetPage(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Seed("Spain", "Japan", "Chile", "Peru", "Panama")
	h.start(RouteFavorites)
	h.press("right")
	if h.favorites().query.Page != 2 {
		t.Fatal("expected page 2")
	}

	h.press("s")
	queries := h.backend.ListQueries()
	last := queries[len(queries)-1]
	if last["page"] != "1" || last["sort"] != string(model.SortOldest) {
		t.Fatalf("sort change must fetch page 1, got %v", last)
	}

	h.press("right", "/")
	h.typeText("an")
	h.press("enter")
	queries = h.backend.ListQueries()
	last = queries[len(queries)-1]
	if last["page"] != "1" || last["country"] != "an" {
		t.Fatalf("filter change must fetch page 1, got %v", last)
	}
	s := h.favorites()
	if s.total != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "an", s.total)
	}
}

func TestFavoritesEditNote(t *testing.T) {
	h := newHarness(t, true)
	seeded := h.backend.Seed("Japan")
	h.start(RouteFavorites)

	h.press("e")
	h.typeText("  cherry blossoms ")
	h.press("enter")

	if h.backend.Calls(apitest.RouteUpdate) != 1 {
		t.Fatalf("expected one update, got %d", h.backend.Calls(apitest.RouteUpdate))
	}
	body := h.backend.Bodies(apitest.RouteUpdate)[0]
	if body["note"] != "cherry blossoms" {
		t.Fatalf("note must be trimmed, got %q", body["note"])
	}
	s := h.favorites()
	if s.status[seeded[0].ID] != "Saved." {
		t.Fatalf("expected Saved. status, got %q", s.status[seeded[0].ID])
	}
	if s.guard.Len() != 0 {
		t.Fatal("guard must be released")
	}
}

func TestFavoritesEditFailureKeepsRow(t *testing.T) {
	h := newHarness(t, true)
	seeded := h.backend.Seed("Japan")
	h.backend.Fail(apitest.RouteUpdate, http.StatusInternalServerError, model.APIError{Error: "boom"})
	h.start(RouteFavorites)

	h.press("e")
	h.typeText("x")
	h.press("enter")
	s := h.favorites()
	if s.status[seeded[0].ID] != view.MsgNoteFailed {
		t.Fatalf("expected failure status, got %q", s.status[seeded[0].ID])
	}
	if s.guard.Busy(seeded[0].ID.String()) {
		t.Fatal("guard must be released after a failure")
	}
}

func TestFavoritesRapidTriggersSendOneRequest(t *testing.T) {
	h := newHarness(t, true)
	seeded := h.backend.Seed("Japan")
	h.start(RouteFavorites)
	s := h.favorites()

	first := s.saveNote(seeded[0], "one")
	second := s.saveNote(seeded[0], "two")
	if first == nil || second != nil {
		t.Fatal("second trigger for the same row must be a no-op")
	}
	if again := s.deleteFavorite(seeded[0]); again != nil {
		t.Fatal("delete must be refused while a save is in flight")
	}
	// the row's edit key is ignored while busy too
	h.step(keyMsg("e"))
	if s.mode != modeBrowse {
		t.Fatal("busy row must not enter edit mode")
	}

	h.run(first)
	if got := h.backend.Calls(apitest.RouteUpdate); got != 1 {
		t.Fatalf("expected exactly one update request, got %d", got)
	}
	if s.guard.Len() != 0 {
		t.Fatal("guard must be empty after the response")
	}
}

func TestFavoritesDeclinedDeleteSendsNothing(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Seed("Japan", "Chile")
	h.start(RouteFavorites)

	for _, answer := range []string{"n", "esc", "enter", "x"} {
		h.press("d")
		if !strings.Contains(h.view(), "Delete this favorite? (y/N)") {
			t.Fatalf("expected confirmation prompt, got:\n%s", h.view())
		}
		h.press(answer)
	}
	if h.backend.Calls(apitest.RouteDelete) != 0 {
		t.Fatal("declined delete must not send a request")
	}
	if len(h.backend.Favorites()) != 2 || len(h.favorites().list.Items()) != 2 {
		t.Fatal("rows must be unchanged")
	}
}

func TestFavoritesConfirmedDeleteReloads(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Seed("Japan", "Chile")
	h.start(RouteFavorites)

	h.press("d", "y")
	if h.backend.Calls(apitest.RouteDelete) != 1 {
		t.Fatal("expected one delete")
	}
	if h.backend.Calls(apitest.RouteList) != 2 {
		t.Fatal("delete must reload the list")
	}
	if got := len(h.favorites().list.Items()); got != 1 {
		t.Fatalf("expected 1 row after delete, got %d", got)
	}
}

func TestFavoritesLoadFailureAndRetry(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Fail(apitest.RouteList, http.StatusInternalServerError, model.APIError{Error: "boom"})
	h.start(RouteFavorites)
	if !strings.Contains(h.view(), view.MsgUnavailable) {
		t.Fatalf("expected generic failure, got:\n%s", h.view())
	}
	h.backend.Recover(apitest.RouteList)
	h.backend.Seed("Japan")
	h.press("r")
	if !strings.Contains(h.view(), "Japan") {
		t.Fatalf("expected Japan after retry, got:\n%s", h.view())
	}
}

func TestFavoritesFailedReloadHidesRows(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Seed("Japan")
	h.start(RouteFavorites)

	h.backend.Fail(apitest.RouteList, http.StatusInternalServerError, model.APIError{Error: "boom"})
	h.press("r")
	if strings.Contains(h.view(), "Japan") {
		t.Fatalf("failed reload must not show the old rows:\n%s", h.view())
	}
	if n := len(h.favorites().list.Items()); n != 0 {
		t.Fatalf("expected no rows after a failed load, got %d", n)
	}

	h.press("d", "y", "e")
	if h.favorites().mode != modeBrowse {
		t.Fatalf("hidden row opened mode %d", h.favorites().mode)
	}
	if h.backend.Calls(apitest.RouteDelete) != 0 || len(h.backend.Favorites()) != 1 {
		t.Fatal("a row that is not shown must not be deleted")
	}
}

func TestFavoritesDeletingLastRowOfPageStepsBack(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Seed("Spain", "Japan", "Panama")
	h.start(RouteFavorites)

	h.press("right")
	if h.favorites().pager.Page != 2 {
		t.Fatalf("expected page 2, got %d", h.favorites().pager.Page)
	}
	h.press("d", "y")
	if h.backend.Calls(apitest.RouteDelete) != 1 {
		t.Fatal("expected one delete")
	}
	s := h.favorites()
	if s.query.Page != 1 || s.pager.Page != 1 || s.pager.Empty {
		t.Fatalf("expected to land on page 1 with rows, got query=%d pager=%+v", s.query.Page, s.pager)
	}
	if n := len(s.list.Items()); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if strings.Contains(h.view(), view.MsgEmptyFavorite) {
		t.Fatalf("must not show the empty state:\n%s", h.view())
	}
}

func TestUnauthorizedNavigatesToLogin(t *testing.T) {
	h := newHarness(t, false)
	h.start(RouteFavorites)
	if h.route() != RouteLogin {
		t.Fatalf("expected login after 401, got %s", h.route())
	}
	if h.session.deleted != 1 {
		t.Fatal("stale session must be dropped")
	}
}

func TestLogoutIsBestEffort(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Fail(apitest.RouteLogout, http.StatusInternalServerError, model.APIError{})
	h.start(RouteFavorites)
	h.press("L")
	if h.route() != RouteLogin {
		t.Fatalf("expected login after logout, got %s", h.route())
	}
	if h.client.SessionToken() != "" {
		t.Fatal("local session must be cleared")
	}
}

func answerAll(h *harness) {
	// first option of every question, activities included
	for range model.Questions {
		h.press("space", "down")
	}
}

func TestQuestionnaireSubmitGating(t *testing.T) {
	h := newHarness(t, true)
	h.start(RouteQuestionnaire)
	s := h.app.(App).active.(*questionnaireScreen)

	h.press("enter")
	if h.backend.Calls(apitest.RouteRecommend) != 0 {
		t.Fatal("incomplete questionnaire must not be submitted")
	}
	if !strings.Contains(h.view(), view.MsgIncomplete) {
		t.Fatalf("expected incomplete message, got:\n%s", h.view())
	}

	answerAll(h)
	if !s.canSubmit() {
		t.Fatalf("expected complete answers, got %+v", s.answers)
	}
	// deselecting the only activity disables submit again
	h.press("up", "up", "up", "up", "space")
	if s.canSubmit() {
		t.Fatal("no activity selected must disable submit")
	}
	h.press("space", "enter")

	// one request from the questionnaire, one when results opens
	if got := h.backend.Calls(apitest.RouteRecommend); got != 2 {
		t.Fatalf("expected 2 recommendation requests, got %d", got)
	}
	if h.route() != RouteResults {
		t.Fatalf("expected results, got %s", h.route())
	}
	q, ok, _ := h.handoff.Get()
	if !ok || !q.Complete() || q.Who != "solo" || q.Activities[0] != "hiking" {
		t.Fatalf("unexpected handoff payload %+v", q)
	}
	if len(h.results().cards) != model.DestinationCount {
		t.Fatalf("expected %d cards", model.DestinationCount)
	}
}

func TestQuestionnaireFailureStaysInline(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Fail(apitest.RouteRecommend, http.StatusBadGateway, model.APIError{})
	h.start(RouteQuestionnaire)
	answerAll(h)
	h.press("enter")
	if h.route() != RouteQuestionnaire {
		t.Fatalf("expected to stay, got %s", h.route())
	}
	if _, ok, _ := h.handoff.Get(); ok {
		t.Fatal("payload must only be stored after success")
	}
	if !strings.Contains(h.view(), view.MsgUnavailable) {
		t.Fatalf("expected generic error, got:\n%s", h.view())
	}
}

func TestQuestionnaireFailureIgnoresLoginWording(t *testing.T) {
	cases := []struct {
		status int
		not    string
	}{
		{http.StatusTooManyRequests, view.MsgRateLimited},
		{http.StatusBadRequest, view.MsgCheckInput},
	}
	for _, c := range cases {
		h := newHarness(t, true)
		h.backend.Fail(apitest.RouteRecommend, c.status, model.APIError{Error: "x", Message: "nope"})
		h.start(RouteQuestionnaire)
		answerAll(h)
		h.press("enter")
		out := h.view()
		if !strings.Contains(out, view.MsgUnavailable) || strings.Contains(out, c.not) {
			t.Fatalf("status %d: expected generic error, got:\n%s", c.status, out)
		}
		if h.route() != RouteQuestionnaire {
			t.Fatalf("status %d: expected to stay, got %s", c.status, h.route())
		}
	}
}

func TestResultsWithoutPayloadGoToQuestionnaire(t *testing.T) {
	h := newHarness(t, true)
	h.start(RouteResults)
	if h.route() != RouteQuestionnaire {
		t.Fatalf("expected questionnaire, got %s", h.route())
	}
	if h.backend.Calls(apitest.RouteRecommend) != 0 {
		t.Fatal("no fetch may happen without a payload")
	}
}

func completeAnswers() model.Questionnaire {
	return model.Questionnaire{
		Who: "couple", TravelType: "backpacking", Accommodation: "hostels",
		Activities: []string{"hiking"}, Budget: "medium", Weather: "sunny_dry", Season: "spring",
	}
}

func TestResultsDestinationCount(t *testing.T) {
	for _, n := range []int{4, 5, 6} {
		h := newHarness(t, true)
		h.backend.DestinationCount = n
		_ = h.handoff.Put(completeAnswers())
		h.start(RouteResults)
		s := h.results()
		if n == model.DestinationCount {
			if len(s.cards) != n || s.req.Phase != view.Loaded {
				t.Fatalf("expected %d cards, got %d (%s)", n, len(s.cards), s.req.Phase)
			}
			continue
		}
		if len(s.cards) != 0 || !strings.Contains(h.view(), view.MsgBadResults) {
			t.Fatalf("count %d: expected bad results error, got:\n%s", n, h.view())
		}
	}
}

func TestResultsRetry(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Fail(apitest.RouteRecommend, http.StatusInternalServerError, model.APIError{})
	_ = h.handoff.Put(completeAnswers())
	h.start(RouteResults)
	if !strings.Contains(h.view(), view.MsgUnavailable) {
		t.Fatalf("expected failure, got:\n%s", h.view())
	}
	h.backend.Recover(apitest.RouteRecommend)
	h.press("r")
	if len(h.results().cards) != model.DestinationCount {
		t.Fatal("retry must load the cards")
	}
}

func TestResultsSaveStates(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Seed("Japan")
	_ = h.handoff.Put(completeAnswers())
	h.start(RouteResults)
	s := h.results()

	h.press("s") // Portugal
	if s.saves.State("Portugal") != view.SaveSaved || s.saves.Message("Portugal") != "Saved." {
		t.Fatalf("unexpected Portugal state %v %q", s.saves.State("Portugal"), s.saves.Message("Portugal"))
	}
	h.press("s")
	if h.backend.Calls(apitest.RouteCreate) != 1 {
		t.Fatal("a saved card must not save again")
	}

	h.press("down", "s") // Japan already exists
	if s.saves.State("Japan") != view.SaveSaved || s.saves.Message("Japan") != "Already saved." {
		t.Fatalf("unexpected Japan state %v %q", s.saves.State("Japan"), s.saves.Message("Japan"))
	}
}

func TestResultsSaveLimitReached(t *testing.T) {
	h := newHarness(t, true)
	countries := make([]string, apitest.FavoritesCap)
	for i := range countries {
		countries[i] = "Country " + string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	h.backend.Seed(countries...)
	_ = h.handoff.Put(completeAnswers())
	h.start(RouteResults)
	s := h.results()

	h.press("s")
	if s.saves.State("Portugal") != view.SaveIdle || s.saves.Message("Portugal") != "Favorites limit reached." {
		t.Fatalf("unexpected state %v %q", s.saves.State("Portugal"), s.saves.Message("Portugal"))
	}
	h.press("s")
	if h.backend.Calls(apitest.RouteCreate) != 2 {
		t.Fatal("an idle card may be saved again")
	}
}

func TestResultsSaveInFlightIsGuarded(t *testing.T) {
	h := newHarness(t, true)
	_ = h.handoff.Put(completeAnswers())
	h.start(RouteResults)
	s := h.results()

	first := h.step(keyMsg("s"))
	second := h.step(keyMsg("s"))
	if first == nil || second != nil {
		t.Fatal("a saving card must ignore a second save")
	}
	h.run(first)
	if h.backend.Calls(apitest.RouteCreate) != 1 || s.saves.State("Portugal") != view.SaveSaved {
		t.Fatal("expected exactly one create")
	}
}
