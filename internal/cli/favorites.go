package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/model"
	"github.com/Makepad-fr/destinai/internal/view"
)

func (e *env) doFavoritesList(args []string) int {
	fs := e.flags("favorites ls")
	page := fs.Int("page", 1, "page number, 1-based")
	sortBy := fs.String("sort", string(model.SortNewest), "created_at_desc or created_at_asc")
	country := fs.String("country", "", "country contains")
	pos, err := parseArgs(fs, args)
	if err != nil || len(pos) != 0 || *page < 1 {
		e.out.Fail("usage: destinai favorites ls [--page N] [--sort created_at_desc|created_at_asc] [--country C]")
		return 2
	}
	s := model.Sort(*sortBy)
	if !s.Valid() {
		e.out.Fail(fmt.Sprintf("invalid sort %q (must be created_at_desc or created_at_asc)", *sortBy))
		return 2
	}

	q := model.NewFavoritesQuery(e.cfg.PageSize).WithSort(s).WithCountry(*country).WithPage(*page)

	e.out.Pending("Loading favorites...")
	res, err := e.client.ListFavorites(e.ctx(), q)
	if err != nil {
		return e.failRequest("list favorites", err, view.LoadMessage(err))
	}

	header := e.out.Title("Favorites") + "  " + e.out.Muted(s.Label())
	if q.Country != "" {
		header += e.out.Muted(fmt.Sprintf("  country contains %q", q.Country))
	}
	e.out.Line(header)

	pager := view.NewPager(res.Page, q.Page, res.Total, q.PageSize, len(res.Items))
	if pager.Empty {
		e.out.Info(view.MsgEmptyFavorite)
		return 0
	}
	for _, f := range res.Items {
		line := fmt.Sprintf("%s  %s  %s",
			e.out.Bullet(e.out.Accent(f.Country)),
			e.out.Muted("Saved on "+f.CreatedAt.Local().Format("2006-01-02")),
			e.out.Muted(f.ID.String()))
		e.out.Line(line)
		if f.Note != "" {
			e.out.Line("    " + f.Note)
		}
	}
	e.out.Line("")
	e.out.Line(pager.Label())
	if q.Country == "" {
		e.out.Line(e.out.Bar(int(res.Total), model.MaxFavorites, 20) + " saved")
	}
	return 0
}

func (e *env) doFavoritesNote(args []string) int {
	if len(args) < 1 {
		e.out.Fail("usage: destinai favorites note <id> <text...>")
		return 2
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		e.out.Fail("invalid favorite id: " + args[0])
		return 2
	}
	note := strings.TrimSpace(strings.Join(args[1:], " "))
	if utf8.RuneCountInString(note) > model.MaxNoteLength {
		e.out.Fail(fmt.Sprintf("note is longer than %d characters", model.MaxNoteLength))
		return 2
	}

	e.out.Pending("Saving...")
	saved, err := e.client.UpdateNote(e.ctx(), id, note)
	if err != nil {
		return e.failRequest("update note", err, view.MsgNoteFailed)
	}
	e.log.Debug("note saved", zap.String("id", id.String()))
	e.out.OK("Saved.")
	if saved.Country != "" {
		e.out.Line(e.out.Bullet(e.out.Accent(saved.Country)) + "  " + firstNonEmpty(saved.Note, e.out.Muted("(no note)")))
	}
	return 0
}

func (e *env) doFavoritesRemove(args []string) int {
	fs := e.flags("favorites rm")
	yes := fs.Bool("yes", false, "skip the confirmation")
	pos, err := parseArgs(fs, args)
	if err != nil || len(pos) != 1 {
		e.out.Fail("usage: destinai favorites rm <id> [--yes]")
		return 2
	}
	id, err := uuid.Parse(pos[0])
	if err != nil {
		e.out.Fail("invalid favorite id: " + pos[0])
		return 2
	}

	if !*yes {
		answer, err := e.readLine("Delete this favorite? (y/N) ")
		if err != nil || !strings.EqualFold(answer, "y") {
			e.out.Info("Not deleted.")
			return 0
		}
	}

	e.out.Pending("Deleting...")
	if err := e.client.DeleteFavorite(e.ctx(), id); err != nil {
		return e.failRequest("delete favorite", err, view.MsgDeleteFailed)
	}
	e.out.OK("Deleted.")
	return 0
}
