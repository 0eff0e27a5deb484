package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"apppulse/models"
	"apppulse/services"
	"apppulse/storage"
)

const (
	exportBaseName = "apppulse_filtered_data"
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	unavailableMsg = "Dataset not found. Please make sure apps_with_features.csv is available."
)

// ParseCriteria reads category, type, min_rating and min_reviews from q.
// Missing parameters keep their defaults.
func ParseCriteria(q url.Values) (models.FilterCriteria, error) {
	c := models.DefaultCriteria()
	c.Category = q.Get("category")
	c.Type = q.Get("type")

	if v := strings.TrimSpace(q.Get("min_rating")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, fmt.Errorf("%w: min_rating %q is not a number", models.ErrInvalidCriteria, v)
		}
		c.MinRating = f
	}
	if v := strings.TrimSpace(q.Get("min_reviews")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("%w: min_reviews %q is not an integer", models.ErrInvalidCriteria, v)
		}
		c.MinReviews = n
	}

	c = c.Normalize()
	return c, c.Validate()
}

// Dashboard renders the HTML page.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Load(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	report, err := s.insights.Generate(ds, criteria, query)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, newPageData(report, query)); err != nil {
		s.logger.Error("template error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// DashboardJSON returns the same report as the page, as JSON.
func (s *Server) DashboardJSON(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeJSONError(w, err)
		return
	}

	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		s.writeJSONError(w, err)
		return
	}

	report, err := s.insights.Generate(ds, criteria, r.URL.Query().Get("q"))
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": ds.Categories()})
}

// ExportCSV downloads the filtered view with the loaded table's columns.
func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.filteredRaw(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := storage.WriteCSV(&buf, raw); err != nil {
		s.logger.Error("csv export: %v", err)
		http.Error(w, "Failed to build CSV: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendFile(w, "text/csv; charset=utf-8", exportBaseName+".csv", buf.Bytes())
}

// ExportXLSX downloads the filtered view as a workbook.
func (s *Server) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.filteredRaw(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := storage.WriteXLSX(&buf, raw); err != nil {
		s.logger.Error("xlsx export: %v", err)
		http.Error(w, "Failed to build workbook: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendFile(w, xlsxMIME, exportBaseName+".xlsx", buf.Bytes())
}

func (s *Server) filteredRaw(w http.ResponseWriter, r *http.Request) (models.RawTable, bool) {
	ds, err := s.loader.Load(r.Context())
	if err == nil {
		var criteria models.FilterCriteria
		if criteria, err = ParseCriteria(r.URL.Query()); err == nil {
			return models.RawOf(services.Filter(ds.Table, criteria)), true
		}
	}

	s.logFailure(err)
	http.Error(w, errorMessage(err), statusFor(err))
	return models.RawTable{}, false
}

func (s *Server) sendFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to send %s: %v", filename, err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrInvalidCriteria):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the user-facing text for err. Load failures hide the
// per-candidate details, which are logged instead.
func errorMessage(err error) string {
	switch statusFor(err) {
	case http.StatusServiceUnavailable:
		return unavailableMsg
	case http.StatusBadRequest:
		return err.Error()
	default:
		return "internal error"
	}
}

func (s *Server) logFailure(err error) {
	if statusFor(err) != http.StatusBadRequest {
		s.logger.Error("%v", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(err)
	status := statusFor(err)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorTemplate.Execute(w, map[string]any{
		"title":   http.StatusText(status),
		"status":  status,
		"message": errorMessage(err),
		"home":    r.URL.Path,
	}); err != nil {
		s.logger.Error("template error: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, err error) {
	s.logFailure(err)
	s.writeJSON(w, statusFor(err), map[string]string{"error": errorMessage(err)})
}
