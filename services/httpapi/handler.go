package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"dividend-backend/lib/scraper"
	"dividend-backend/lib/serviceutil"
	"dividend-backend/services/company"
)

const suggestionLimit = 3

type DividendService interface {
	GetDividendHistory(ctx context.Context, companyName string) (scraper.ScrapeResult, error)
}

type CompanyService interface {
	AddCompany(ctx context.Context, ticker string) (scraper.Company, error)
	DeleteCompany(ctx context.Context, ticker string) (string, error)
	ListCompanies(ctx context.Context, limit, offset int) (company.Page, error)
	Autocomplete(ctx context.Context, keyword string, limit int) ([]string, error)
	Suggest(ctx context.Context, name string, limit int) ([]string, error)
}

type Options struct {
	// bearer token required by the routes that modify companies, empty
	// disables the check
	AdminToken string
}

type handler struct {
	dividends DividendService
	companies CompanyService
}

func NewHandler(dividends DividendService, companies CompanyService, opts Options) http.Handler {
	h := handler{
		dividends: dividends,
		companies: companies,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /finance/dividend/{companyName}", h.getDividends)
	mux.HandleFunc("GET /company/autocomplete", h.autocomplete)
	mux.HandleFunc("GET /company", h.listCompanies)
	mux.Handle("POST /company", serviceutil.VerifyAccessToken(
		opts.AdminToken,
		http.HandlerFunc(h.addCompany),
	))
	mux.Handle("DELETE /company/{ticker}", serviceutil.VerifyAccessToken(
		opts.AdminToken,
		http.HandlerFunc(h.deleteCompany),
	))
	return mux
}

type errorBody struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func writeJson(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, scraper.ErrInvalidTicker):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, company.ErrCompanyExists):
		return http.StatusConflict
	case errors.Is(err, scraper.ErrFormat), errors.Is(err, scraper.ErrStructure):
		return http.StatusBadGateway
	case errors.Is(err, scraper.ErrTransport):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error, suggestions []string) {
	status := statusOf(err)
	if status >= 500 {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		slog.DebugContext(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJson(w, status, errorBody{Error: message, Suggestions: suggestions})
}

func intQuery(r *http.Request, key string) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJson(w, http.StatusBadRequest, errorBody{Error: message})
}

func (h handler) getDividends(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("companyName")
	result, err := h.dividends.GetDividendHistory(r.Context(), name)
	if errors.Is(err, scraper.ErrNotFound) {
		suggestions, suggestErr := h.companies.Suggest(r.Context(), name, suggestionLimit)
		if suggestErr != nil {
			slog.WarnContext(r.Context(), "failed to suggest company names", "name", name, "err", suggestErr)
		}
		writeError(w, r, err, suggestions)
		return
	}
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJson(w, http.StatusOK, result)
}

func (h handler) autocomplete(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	names, err := h.companies.Autocomplete(r.Context(), r.URL.Query().Get("keyword"), limit)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJson(w, http.StatusOK, names)
}

func (h handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		badRequest(w, "offset must be an integer")
		return
	}
	page, err := h.companies.ListCompanies(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJson(w, http.StatusOK, page)
}

type addCompanyRequest struct {
	Ticker string `json:"ticker"`
}

func (h handler) addCompany(w http.ResponseWriter, r *http.Request) {
	var req addCompanyRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req)
	if err != nil {
		badRequest(w, "body must be a json object with a ticker")
		return
	}
	added, err := h.companies.AddCompany(r.Context(), req.Ticker)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJson(w, http.StatusOK, added)
}

type deleteCompanyResponse struct {
	Name string `json:"name"`
}

func (h handler) deleteCompany(w http.ResponseWriter, r *http.Request) {
	name, err := h.companies.DeleteCompany(r.Context(), r.PathValue("ticker"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJson(w, http.StatusOK, deleteCompanyResponse{Name: name})
}
