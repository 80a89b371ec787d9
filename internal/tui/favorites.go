package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/model"
	"github.com/Makepad-fr/destinai/internal/view"
)

type favoritesLoadedMsg struct {
	page model.FavoritesPage
	err  error
}

type noteSavedMsg struct {
	id   uuid.UUID
	note string
	err  error
}

type favoriteDeletedMsg struct {
	id  uuid.UUID
	err error
}

var favKeys = struct {
	Edit, Delete, Sort, Search, Prev, Next, Retry, Ask, Logout, Quit key.Binding
}{
	Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit note")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Sort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "country")),
	Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev page")),
	Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next page")),
	Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Ask:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new trip")),
	Logout: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
	Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}

// favoriteItem adapts a favorite to bubbles/list.Item.
type favoriteItem struct {
	fav model.Favorite
}

func (i favoriteItem) Title() string       { return orDash(i.fav.Country) }
func (i favoriteItem) Description() string { return i.fav.Note }
func (i favoriteItem) FilterValue() string { return i.fav.Country }

// rowDelegate renders one favorite on two lines plus its row status.
type rowDelegate struct {
	status map[uuid.UUID]string
	guard  *view.Guard
}

func (d rowDelegate) Height() int                               { return 2 }
func (d rowDelegate) Spacing() int                              { return 1 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(favoriteItem)
	saved := "—"
	if !it.fav.CreatedAt.IsZero() {
		saved = it.fav.CreatedAt.Local().Format("2006-01-02")
	}
	head := fmt.Sprintf("%s  %s", titleStyle.Render(it.Title()), mutedStyle.Render("Saved on "+saved))
	if st := d.status[it.fav.ID]; st != "" {
		style := successStyle
		if d.guard.Busy(it.fav.ID.String()) {
			style = pendingStyle
		} else if strings.HasPrefix(st, "Could not") {
			style = errorStyle
		}
		head += "  " + style.Render(st)
	}
	note := mutedStyle.Render("(no note)")
	if it.fav.Note != "" {
		note = it.fav.Note
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s\n  %s", prefix, head, note)
}

type favMode int

const (
	modeBrowse favMode = iota
	modeEdit
	modeConfirm
	modeSearch
)

type favoritesScreen struct {
	deps  Deps
	query model.FavoritesQuery
	req   view.Request
	pager view.Pager
	total int64

	list      list.Model
	paginator paginator.Model
	guard     *view.Guard
	status    map[uuid.UUID]string

	mode   favMode
	target model.Favorite
	note   textinput.Model
	search textinput.Model
}

func newFavoritesScreen(deps Deps) *favoritesScreen {
	s := &favoritesScreen{
		deps:   deps,
		query:  model.NewFavoritesQuery(deps.PageSize),
		guard:  view.NewGuard(),
		status: map[uuid.UUID]string{},
		note:   newInput("Note > ", "Add a note...", model.MaxNoteLength),
		search: newInput("Country > ", "e.g. Japan", 100),
	}

	l := list.New(nil, rowDelegate{status: s.status, guard: s.guard}, 80, 20)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	s.list = l

	s.paginator = paginator.New()
	s.paginator.Type = paginator.Dots
	s.paginator.ActiveDot = accentStyle.Render("•")
	s.paginator.InactiveDot = mutedStyle.Render("•")
	return s
}

func (s *favoritesScreen) Init() tea.Cmd { return s.load() }

func (s *favoritesScreen) Keys() []key.Binding {
	switch s.mode {
	case modeEdit, modeSearch:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	case modeConfirm:
		return []key.Binding{key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm"))}
	}
	return []key.Binding{
		favKeys.Edit, favKeys.Delete, favKeys.Sort, favKeys.Search,
		favKeys.Prev, favKeys.Next, favKeys.Retry, favKeys.Ask, favKeys.Logout, favKeys.Quit,
	}
}

// load fetches the page described by the current query.
func (s *favoritesScreen) load() tea.Cmd {
	s.req.Begin("Loading favorites...")
	client, q := s.deps.Client, s.query
	return async(func(ctx context.Context) (model.FavoritesPage, error) {
		return client.ListFavorites(ctx, q)
	}, func(p model.FavoritesPage, err error) tea.Msg {
		return favoritesLoadedMsg{page: p, err: err}
	})
}

func (s *favoritesScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.list.SetSize(msg.Width-4, max(msg.Height-12, 6))
		return s, nil
	case favoritesLoadedMsg:
		return s, s.loaded(msg)
	case noteSavedMsg:
		return s, s.noteSaved(msg)
	case favoriteDeletedMsg:
		return s, s.deleted(msg)
	case tea.KeyMsg:
		switch s.mode {
		case modeEdit:
			return s, s.updateEdit(msg)
		case modeSearch:
			return s, s.updateSearch(msg)
		case modeConfirm:
			return s, s.updateConfirm(msg)
		}
		return s.updateBrowse(msg)
	}
	return s, nil
}

func (s *favoritesScreen) updateBrowse(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch {
	case key.Matches(msg, favKeys.Quit):
		return s, tea.Quit
	case key.Matches(msg, favKeys.Ask):
		return s, navigate(RouteQuestionnaire)
	case key.Matches(msg, favKeys.Logout):
		return s, s.logout()
	case key.Matches(msg, favKeys.Retry):
		if s.req.Busy() {
			return s, nil
		}
		return s, s.load()
	case key.Matches(msg, favKeys.Sort):
		if s.req.Busy() {
			return s, nil
		}
		next := model.SortOldest
		if s.query.Sort == model.SortOldest {
			next = model.SortNewest
		}
		s.query = s.query.WithSort(next)
		return s, s.load()
	case key.Matches(msg, favKeys.Search):
		if s.req.Busy() {
			return s, nil
		}
		s.mode = modeSearch
		s.search.SetValue(s.query.Country)
		s.search.CursorEnd()
		s.search.Focus()
		return s, nil
	case key.Matches(msg, favKeys.Prev):
		if s.req.Busy() || !s.pager.CanPrev() {
			return s, nil
		}
		s.query = s.query.Prev()
		return s, s.load()
	case key.Matches(msg, favKeys.Next):
		if s.req.Busy() || !s.pager.CanNext() {
			return s, nil
		}
		s.query = s.query.Next()
		return s, s.load()
	case key.Matches(msg, favKeys.Edit):
		fav, ok := s.selected()
		if !ok || s.guard.Busy(fav.ID.String()) {
			return s, nil
		}
		s.mode = modeEdit
		s.target = fav
		s.note.SetValue(fav.Note)
		s.note.CursorEnd()
		s.note.Focus()
		return s, nil
	case key.Matches(msg, favKeys.Delete):
		fav, ok := s.selected()
		if !ok || s.guard.Busy(fav.ID.String()) {
			return s, nil
		}
		s.mode = modeConfirm
		s.target = fav
		return s, nil
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *favoritesScreen) selected() (model.Favorite, bool) {
	it, ok := s.list.SelectedItem().(favoriteItem)
	if !ok {
		return model.Favorite{}, false
	}
	return it.fav, true
}

func (s *favoritesScreen) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.mode = modeBrowse
		s.note.Blur()
		return s.saveNote(s.target, s.note.Value())
	case "esc":
		s.mode = modeBrowse
		s.note.Blur()
		return nil
	}
	var cmd tea.Cmd
	s.note, cmd = s.note.Update(msg)
	return cmd
}

func (s *favoritesScreen) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.mode = modeBrowse
		s.search.Blur()
		s.query = s.query.WithCountry(s.search.Value())
		return s.load()
	case "esc":
		s.mode = modeBrowse
		s.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	return cmd
}

// updateConfirm handles the "Delete this favorite? (y/N)" prompt. Anything
// but y cancels without a request.
func (s *favoritesScreen) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	s.mode = modeBrowse
	if msg.String() != "y" && msg.String() != "Y" {
		return nil
	}
	return s.deleteFavorite(s.target)
}

// saveNote sends the note unless a request for the row is in flight.
func (s *favoritesScreen) saveNote(fav model.Favorite, note string) tea.Cmd {
	id := fav.ID
	if !s.guard.Enter(id.String()) {
		return nil
	}
	s.status[id] = "Saving..."
	note = strings.TrimSpace(note)
	client := s.deps.Client
	return async(func(ctx context.Context) (model.Favorite, error) {
		return client.UpdateNote(ctx, id, note)
	}, func(_ model.Favorite, err error) tea.Msg {
		return noteSavedMsg{id: id, note: note, err: err}
	})
}

func (s *favoritesScreen) noteSaved(msg noteSavedMsg) tea.Cmd {
	s.guard.Leave(msg.id.String())
	if view.Unauthorized(msg.err) {
		return signedOut(true)
	}
	if msg.err != nil {
		s.deps.Log.Warn("save note failed", zap.Stringer("id", msg.id), zap.Error(msg.err))
		s.status[msg.id] = view.MsgNoteFailed
		return nil
	}
	s.status[msg.id] = "Saved."
	for i, it := range s.list.Items() {
		if fi, ok := it.(favoriteItem); ok && fi.fav.ID == msg.id {
			fi.fav.Note = msg.note
			return s.list.SetItem(i, fi)
		}
	}
	return nil
}

func (s *favoritesScreen) deleteFavorite(fav model.Favorite) tea.Cmd {
	id := fav.ID
	if !s.guard.Enter(id.String()) {
		return nil
	}
	s.status[id] = "Deleting..."
	client := s.deps.Client
	return async(func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.DeleteFavorite(ctx, id)
	}, func(_ struct{}, err error) tea.Msg {
		return favoriteDeletedMsg{id: id, err: err}
	})
}

func (s *favoritesScreen) deleted(msg favoriteDeletedMsg) tea.Cmd {
	s.guard.Leave(msg.id.String())
	if view.Unauthorized(msg.err) {
		return signedOut(true)
	}
	if msg.err != nil {
		s.deps.Log.Warn("delete favorite failed", zap.Stringer("id", msg.id), zap.Error(msg.err))
		s.status[msg.id] = view.MsgDeleteFailed
		return nil
	}
	delete(s.status, msg.id)
	return s.load()
}

func (s *favoritesScreen) loaded(msg favoritesLoadedMsg) tea.Cmd {
	if view.Unauthorized(msg.err) {
		return signedOut(true)
	}
	if msg.err != nil {
		s.deps.Log.Warn("list favorites failed", zap.Error(msg.err))
		s.req.Fail(view.LoadMessage(msg.err))
		s.pager = view.Pager{}
		return s.list.SetItems(nil)
	}
	p := msg.page
	size := p.PageSize
	if size <= 0 {
		size = s.query.PageSize
	}
	// A page past the end (e.g. its last row was deleted) falls back to
	// the last page that still has rows.
	if len(p.Items) == 0 && s.query.Page > 1 {
		if last := view.TotalPages(p.Total, size); last < s.query.Page {
			s.query = s.query.WithPage(last)
			return s.load()
		}
	}
	s.total = p.Total
	s.pager = view.NewPager(p.Page, s.query.Page, p.Total, size, len(p.Items))
	s.paginator.TotalPages = s.pager.TotalPages
	s.paginator.Page = s.pager.Page - 1

	items := make([]list.Item, 0, len(p.Items))
	for _, f := range p.Items {
		items = append(items, favoriteItem{fav: f})
	}
	for id := range s.status {
		if !s.guard.Busy(id.String()) {
			delete(s.status, id)
		}
	}
	s.req.Succeed("")
	s.list.ResetSelected()
	return s.list.SetItems(items)
}

func (s *favoritesScreen) logout() tea.Cmd {
	client, log := s.deps.Client, s.deps.Log
	return func() tea.Msg {
		// best effort: the local session ends either way
		if err := client.Logout(context.Background()); err != nil {
			log.Warn("logout failed", zap.Error(err))
		}
		return signedOutMsg{}
	}
}

func (s *favoritesScreen) View() string {
	var b strings.Builder
	filter := ""
	if s.query.Country != "" {
		filter = "  " + accentStyle.Render("country: "+s.query.Country)
	}
	fmt.Fprintf(&b, "%s  %s%s\n\n",
		titleStyle.Render("Your favorites"),
		mutedStyle.Render(s.query.Sort.Label()),
		filter,
	)

	switch {
	case s.req.Phase == view.Failed:
		b.WriteString(errorStyle.Render(s.req.Status))
		b.WriteString("\n" + mutedStyle.Render("Press r to try again."))
		return b.String()
	case s.req.Phase == view.Loading && len(s.list.Items()) == 0:
		b.WriteString(mutedStyle.Render(s.req.Status))
		return b.String()
	case s.pager.Empty:
		b.WriteString(mutedStyle.Render(view.MsgEmptyFavorite))
	default:
		b.WriteString(s.list.View())
		fmt.Fprintf(&b, "\n\n%s  %s  %s",
			s.pager.Label(),
			s.paginator.View(),
			mutedStyle.Render(fmt.Sprintf("%d/%d saved", s.total, model.MaxFavorites)),
		)
	}
	if s.req.Busy() {
		b.WriteString("\n" + mutedStyle.Render(s.req.Status))
	}

	switch s.mode {
	case modeEdit:
		b.WriteString("\n\n" + accentStyle.Render("Edit note for "+s.target.Country) + "\n" + s.note.View())
	case modeSearch:
		b.WriteString("\n\n" + accentStyle.Render("Filter by country") + "\n" + s.search.View())
	case modeConfirm:
		b.WriteString("\n\n" + pendingStyle.Render(fmt.Sprintf("%s: Delete this favorite? (y/N)", s.target.Country)))
	}
	return b.String()
}
