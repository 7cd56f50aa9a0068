package http

import (
	"net/http"
	"strconv"

	"spendwise/internal/log"
	"spendwise/internal/viewmodel"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewmodel.PageDashboard, viewmodel.NewDashboard(s.svc.Snapshot(), s.today()))
}

// handleExpenses renders the filtered table. Filtering works on the snapshot
// and never touches the shared state.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilterQuery(r.URL.Query())
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid expense filter",
			log.FieldQuery, r.URL.RawQuery,
			log.FieldError, err,
			"error_type", log.ErrorTypeValidation)
		BadRequestError("Invalid filter: " + err.Error()).Write(w)
		return
	}

	snap := s.svc.Snapshot()
	today := s.today()
	key := strconv.FormatUint(snap.Version, 10) + "|" + today.String() + "|" + f.Key()
	page := s.expensesCache.GetOrSet(key, func() viewmodel.ExpensesPage {
		return viewmodel.NewExpensesPage(snap, f, today)
	})
	s.render(w, r, viewmodel.PageExpenses, page)
}

func (s *Server) handleUnnecessary(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewmodel.PageUnnecessary, viewmodel.NewUnnecessaryPage(s.svc.Snapshot(), s.today()))
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewmodel.PageAlternatives, viewmodel.NewAlternativesPage(s.svc.Snapshot(), s.today()))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewmodel.PageAnalytics, viewmodel.NewAnalyticsPage(s.svc.Snapshot(), s.today()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewmodel.PageCategories, viewmodel.NewCategoriesPage(s.svc.Snapshot(), s.today()))
}

// handleChart serves a Chart.js series for the current snapshot.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	snap := s.svc.Snapshot()
	key := strconv.FormatUint(snap.Version, 10) + "|" + name

	chart, ok := s.chartCache.Get(key)
	if !ok {
		chart, ok = viewmodel.BuildChart(name, snap.Expenses)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown chart " + strconv.Quote(name)})
			return
		}
		s.chartCache.Set(key, chart)
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "chart": chart})
}
