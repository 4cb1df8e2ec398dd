package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcclellann/ledgerbook/pkg/calc"
	"github.com/mcclellann/ledgerbook/pkg/export"
	"github.com/mcclellann/ledgerbook/pkg/ledger"
	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/mcclellann/ledgerbook/pkg/settings"
	"github.com/mcclellann/ledgerbook/pkg/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Server holds the ledger instance. The caller owns and closes the storage.
type Server struct {
	ledger *ledger.Ledger
	prefs  *settings.Manager
}

func NewServer(s store.Storage, prefs *settings.Manager) *Server {
	return &Server{
		ledger: ledger.NewLedger(s),
		prefs:  prefs,
	}
}

// routes registers every handler. Fixed paths come before {id} patterns.
func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/recalculate", s.recalculateHandler).Methods("POST")
	router.HandleFunc("/loans/export.csv", s.exportLoansHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.updateLoanHandler).Methods("PUT")
	router.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/settle", s.settleLoanHandler).Methods("POST")

	router.HandleFunc("/people", s.listPeopleHandler).Methods("GET")
	router.HandleFunc("/people/{name}", s.getPersonHandler).Methods("GET")
	router.HandleFunc("/people/{name}/report", s.personReportHandler).Methods("GET")

	router.HandleFunc("/land/activities", s.listActivitiesHandler).Methods("GET")
	router.HandleFunc("/land/activities", s.addActivityHandler).Methods("POST")
	router.HandleFunc("/land/activities/{id}", s.editActivityHandler).Methods("PUT")
	router.HandleFunc("/land/activities/{id}", s.deleteActivityHandler).Methods("DELETE")
	router.HandleFunc("/land/groups", s.landOverviewHandler).Methods("GET")
	router.HandleFunc("/land/groups/{name}/settle", s.settleGroupHandler).Methods("POST")

	router.HandleFunc("/search", s.searchHandler).Methods("GET")

	router.HandleFunc("/settings", s.getSettingsHandler).Methods("GET")
	router.HandleFunc("/settings/language", s.setLanguageHandler).Methods("PUT")
	router.HandleFunc("/settings/language/toggle", s.toggleLanguageHandler).Methods("POST")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps ledger errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsClientError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ledger.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case ledger.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("Error handling request: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ledger.ValidationError{Field: field, Message: "must be a date like 2006-01-02"}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, &ledger.ValidationError{Field: "id", Message: "is not a valid ID"}
	}
	return id, nil
}

func listOptions(r *http.Request) store.ListOptions {
	return store.ListOptions{
		Name:               r.URL.Query().Get("name"),
		Search:             r.URL.Query().Get("q"),
		OrderByCreatedDesc: true,
	}
}

// loanView is a loan as served, with its elapsed time broken down.
type loanView struct {
	*models.LoanTransaction
	Elapsed calc.Elapsed `json:"elapsed"`
}

func viewOf(loan *models.LoanTransaction) loanView {
	return loanView{
		LoanTransaction: loan,
		Elapsed:         calc.ElapsedSince(loan.OriginDate, loan.ElapsedDays),
	}
}

type loanRequest struct {
	Kind             models.LoanKind `json:"kind"`
	CounterpartyName string          `json:"counterparty_name"`
	Principal        decimal.Decimal `json:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	OriginDate       string          `json:"origin_date"`
	Remarks          string          `json:"remarks"`
}

func (req loanRequest) input() (ledger.LoanInput, error) {
	origin, err := parseDate("origin_date", req.OriginDate)
	if err != nil {
		return ledger.LoanInput{}, err
	}
	return ledger.LoanInput{
		Kind:             req.Kind,
		CounterpartyName: req.CounterpartyName,
		Principal:        req.Principal,
		InterestRate:     req.InterestRate,
		OriginDate:       origin,
		Remarks:          req.Remarks,
	}, nil
}

type settleRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Date    string          `json:"date"`
	Remarks string          `json:"remarks"`
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := s.ledger.CreateLoan(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(loan))
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := s.ledger.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(loan))
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.ListLoans(r.Context(), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]loanView, len(loans))
	for i, loan := range loans {
		views[i] = viewOf(loan)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) updateLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req loanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := s.ledger.UpdateLoan(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(loan))
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.ledger.DeleteLoan(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) settleLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := s.ledger.SettleLoan(r.Context(), id, req.Amount, date, req.Remarks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(loan))
}

func (s *Server) recalculateHandler(w http.ResponseWriter, r *http.Request) {
	report, err := s.ledger.RecalculateLoans(r.Context(), s.ledger.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) exportLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.ListLoans(r.Context(), store.ListOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]models.LoanTransaction, len(loans))
	for i, loan := range loans {
		rows[i] = *loan
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="loans.csv"`)
	if err := export.WriteLoansCSV(w, rows); err != nil {
		log.Printf("Error writing loan export: %v", err)
	}
}

func (s *Server) listPeopleHandler(w http.ResponseWriter, r *http.Request) {
	people, err := s.ledger.People(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (s *Server) getPersonHandler(w http.ResponseWriter, r *http.Request) {
	person, err := s.ledger.Person(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (s *Server) personReportHandler(w http.ResponseWriter, r *http.Request) {
	person, err := s.ledger.Person(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := export.WritePersonReport(w, person, s.prefs.Translator()); err != nil {
		log.Printf("Error writing report for %q: %v", person.Name, err)
	}
}

type activityRequest struct {
	OwnerName    string          `json:"owner_name"`
	LandName     string          `json:"land_name"`
	Description  string          `json:"activity_description"`
	ActivityDate string          `json:"activity_date"`
	AreaInAcres  decimal.Decimal `json:"area_in_acres"`
	RatePerAcre  decimal.Decimal `json:"rate_per_acre"`
}

func decodeActivity(r *http.Request) (ledger.ActivityInput, error) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ledger.ActivityInput{}, &ledger.ValidationError{Field: "body", Message: err.Error()}
	}
	date, err := parseDate("activity_date", req.ActivityDate)
	if err != nil {
		return ledger.ActivityInput{}, err
	}
	return ledger.ActivityInput{
		OwnerName:    req.OwnerName,
		LandName:     req.LandName,
		Description:  req.Description,
		ActivityDate: date,
		AreaInAcres:  req.AreaInAcres,
		RatePerAcre:  req.RatePerAcre,
	}, nil
}

func (s *Server) listActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	acts, err := s.ledger.ListActivities(r.Context(), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if acts == nil {
		acts = []*models.LandActivity{}
	}
	writeJSON(w, http.StatusOK, acts)
}

func (s *Server) addActivityHandler(w http.ResponseWriter, r *http.Request) {
	in, err := decodeActivity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := s.ledger.AddActivity(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) editActivityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := decodeActivity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := s.ledger.EditActivity(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteActivityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.ledger.DeleteActivity(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) landOverviewHandler(w http.ResponseWriter, r *http.Request) {
	views, err := s.ledger.LandOverview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if views == nil {
		views = []ledger.LandGroupView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) settleGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	g, err := s.ledger.SettleGroup(r.Context(), mux.Vars(r)["name"], req.Amount, date, req.Remarks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	results, err := s.ledger.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prefs.Current())
}

func (s *Server) setLanguageHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lang, err := settings.ParseLanguage(req.Language)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := s.prefs.SetLanguage(r.Context(), lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) toggleLanguageHandler(w http.ResponseWriter, r *http.Request) {
	current, err := s.prefs.Toggle(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}
