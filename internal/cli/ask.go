package cli

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/api"
	"github.com/Makepad-fr/destinai/internal/model"
	"github.com/Makepad-fr/destinai/internal/view"
)

// doAsk answers the questionnaire from flags, stores the answers for
// results and shows them.
func (e *env) doAsk(args []string) int {
	fs := e.flags("ask")
	values := map[string]*string{}
	for _, q := range model.Questions {
		values[q.Key] = fs.String(strings.ReplaceAll(q.Key, "_", "-"), "", q.Title)
	}
	pos, err := parseArgs(fs, args)
	if err != nil || len(pos) != 0 {
		e.out.Fail("usage: destinai ask --who W --travel-type T --accommodation A --activities a,b --budget B --weather W --season S")
		return 2
	}

	var answers model.Questionnaire
	for _, q := range model.Questions {
		raw := strings.TrimSpace(*values[q.Key])
		if raw == "" {
			continue
		}
		picks := []string{raw}
		if q.Multi {
			picks = strings.Split(raw, ",")
		}
		for _, v := range picks {
			v = strings.TrimSpace(v)
			if !hasOption(q, v) {
				e.out.Fail(fmt.Sprintf("invalid --%s %q (one of: %s)", strings.ReplaceAll(q.Key, "_", "-"), v, optionList(q)))
				return 2
			}
			if q.Multi {
				if !answers.HasActivity(v) {
					answers.ToggleActivity(v)
				}
			} else {
				answers.Set(q.Key, v)
			}
		}
	}
	if !answers.Complete() {
		e.out.Fail(view.MsgIncomplete)
		return 2
	}

	e.out.Pending("Generating recommendations...")
	_, err = e.client.Recommend(e.ctx(), answers)
	// A wrong destination count still proceeds; results reports it.
	if errors.Is(err, api.ErrBadResults) {
		err = nil
	}
	if err != nil {
		return e.failRequest("recommendations", err, view.LoadMessage(err))
	}
	if err := e.handoff.Put(answers); err != nil {
		e.log.Warn("store questionnaire", zap.Error(err))
		e.out.Fail(view.MsgUnavailable)
		return 1
	}
	return e.doResults(nil)
}

func hasOption(q model.Question, v string) bool {
	for _, o := range q.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

func optionList(q model.Question) string {
	vals := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		vals = append(vals, o.Value)
	}
	return strings.Join(vals, ", ")
}

// doResults fetches recommendations for the stored answers and optionally
// saves one destination to favorites.
func (e *env) doResults(args []string) int {
	fs := e.flags("results")
	save := fs.String("save", "", "country to save to favorites")
	pos, err := parseArgs(fs, args)
	if err != nil || len(pos) != 0 {
		e.out.Fail("usage: destinai results [--save COUNTRY]")
		return 2
	}

	answers, ok, err := e.handoff.Get()
	if err != nil {
		e.log.Warn("read questionnaire", zap.Error(err))
	}
	if !ok || err != nil {
		e.out.Fail("no questionnaire answers yet. Run: destinai ask ...")
		return 2
	}

	e.out.Pending("Generating recommendations...")
	recs, err := e.client.Recommend(e.ctx(), answers)
	if err != nil {
		return e.failRequest("load results", err, view.LoadMessage(err))
	}

	target := strings.TrimSpace(*save)
	for _, d := range recs.Destinations {
		if target != "" && !strings.EqualFold(d.Country, target) {
			continue
		}
		e.printDestination(d)
	}
	if target == "" {
		return 0
	}

	var country string
	for _, d := range recs.Destinations {
		if strings.EqualFold(d.Country, target) {
			country = d.Country
		}
	}
	if country == "" {
		e.out.Fail(fmt.Sprintf("%q is not among your recommendations", target))
		return 2
	}

	saves := view.NewSaveStates()
	if !saves.Begin(country) {
		return 1
	}
	e.out.Pending(saves.Message(country))
	_, err = e.client.CreateFavorite(e.ctx(), country)
	if view.Unauthorized(err) {
		return e.failRequest("save favorite", err, "")
	}
	if err != nil {
		e.log.Warn("save favorite failed", zap.String("country", country), zap.Error(err))
	}
	saves.Resolve(country, view.ClassifySave(err))
	if saves.State(country) != view.SaveSaved {
		e.out.Fail(saves.Message(country))
		return 1
	}
	e.out.OK(country + ": " + saves.Message(country))
	return 0
}

func (e *env) printDestination(d model.Destination) {
	dash := func(s string) string { return firstNonEmpty(s, "—") }
	lines := []string{
		e.out.Title(dash(d.Country)) + "  " + e.out.Muted(dash(d.Region)),
		e.out.Muted("Estimated daily budget: ") + dash(d.DailyBudgetRange),
		e.out.Muted("Best months: ") + dash(strings.Join(d.BestMonths, ", ")),
		e.out.Muted("Weather: ") + dash(d.WeatherSummary),
		e.out.Muted("Accommodation fit: ") + dash(d.AccommodationFit),
		e.out.Muted("Travel style fit: ") + dash(d.TravelStyleFit),
		e.out.Muted("Why it matches: ") + dash(d.WhyMatch),
	}
	section := func(label string, values []string) {
		lines = append(lines, e.out.Muted(label))
		if len(values) == 0 {
			lines = append(lines, "  "+e.out.Bullet("—"))
			return
		}
		for _, v := range values {
			lines = append(lines, "  "+e.out.Bullet(v))
		}
	}
	section("Top activities", d.TopActivities)
	section("Pros", d.Pros)
	section("Cons", d.Cons)
	e.out.Panel(lines...)
}
