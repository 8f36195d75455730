package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/dispatch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
	"github.com/FocuswithJustin/tcvalidate/internal/server"
	"github.com/FocuswithJustin/tcvalidate/internal/validation"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Jobs    int    `json:"jobs"`
	Clients int    `json:"clients"`
}

// Processing modes accepted in the "process" request field.
const (
	ProcessErrorsWarnings  = "errors-warnings"
	ProcessSevereMediumLow = "severe-medium-low"
	ProcessSingleList      = "single"
)

// CheckOptions overrides the configured checking options for one request.
// Unset fields keep the server's configuration.
type CheckOptions struct {
	ExcerptLength                    *int   `json:"excerptLength,omitempty"`
	CutoffPriorityLevel              *int   `json:"cutoffPriorityLevel,omitempty"`
	DisableAllLinkFetching           *bool  `json:"disableAllLinkFetchingFlag,omitempty"`
	DisableLinkedTAArticlesCheck     *bool  `json:"disableLinkedTAArticlesCheckFlag,omitempty"`
	DisableLinkedTWArticlesCheck     *bool  `json:"disableLinkedTWArticlesCheckFlag,omitempty"`
	DisableLexiconLinkFetching       *bool  `json:"disableLexiconLinkFetchingFlag,omitempty"`
	DisableLinkedLexiconEntriesCheck *bool  `json:"disableLinkedLexiconEntriesCheckFlag,omitempty"`
	SuppressNoticeDisabling          *bool  `json:"suppressNoticeDisablingFlag,omitempty"`
	OriginalLanguageRepoUsername     string `json:"originalLanguageRepoUsername,omitempty"`
	OriginalLanguageRepoBranch       string `json:"originalLanguageRepoBranch,omitempty"`
	TARepoUsername                   string `json:"taRepoUsername,omitempty"`
	TARepoBranch                     string `json:"taRepoBranch,omitempty"`
	TWRepoUsername                   string `json:"twRepoUsername,omitempty"`
	TWRepoBranch                     string `json:"twRepoBranch,omitempty"`
}

func (o *CheckOptions) apply(opts check.Options) check.Options {
	if o == nil {
		return opts
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt(&opts.ExcerptLength, o.ExcerptLength)
	setInt(&opts.CutoffPriorityLevel, o.CutoffPriorityLevel)
	setBool(&opts.DisableAllLinkFetching, o.DisableAllLinkFetching)
	setBool(&opts.DisableLinkedTAArticlesCheck, o.DisableLinkedTAArticlesCheck)
	setBool(&opts.DisableLinkedTWArticlesCheck, o.DisableLinkedTWArticlesCheck)
	setBool(&opts.DisableLexiconLinkFetching, o.DisableLexiconLinkFetching)
	setBool(&opts.DisableLinkedLexiconEntriesCheck, o.DisableLinkedLexiconEntriesCheck)
	setBool(&opts.SuppressNoticeDisabling, o.SuppressNoticeDisabling)
	setString(&opts.OriginalLanguageRepoUsername, o.OriginalLanguageRepoUsername)
	setString(&opts.OriginalLanguageRepoBranch, o.OriginalLanguageRepoBranch)
	setString(&opts.TARepoUsername, o.TARepoUsername)
	setString(&opts.TARepoBranch, o.TARepoBranch)
	setString(&opts.TWRepoUsername, o.TWRepoUsername)
	setString(&opts.TWRepoBranch, o.TWRepoBranch)
	return opts
}

// FileRequest asks for one file's contents to be checked.
type FileRequest struct {
	Username     string        `json:"username"`
	LanguageCode string        `json:"languageCode"`
	RepoCode     string        `json:"repoCode"`
	RepoName     string        `json:"repoName"`
	Branch       string        `json:"branch"`
	Filename     string        `json:"filename"`
	Content      string        `json:"content"`
	Location     string        `json:"location"`
	Process      string        `json:"process,omitempty"`
	Options      *CheckOptions `json:"options,omitempty"`
}

// RowRequest asks for one TSV row to be checked.
type RowRequest struct {
	Format       string        `json:"format"` // TN7, TN9, TQ7 or TWL6
	LanguageCode string        `json:"languageCode"`
	RepoCode     string        `json:"repoCode"`
	Line         string        `json:"line"`
	BookID       string        `json:"bookID"`
	C            string        `json:"C"`
	V            string        `json:"V"`
	Location     string        `json:"location"`
	Process      string        `json:"process,omitempty"`
	Options      *CheckOptions `json:"options,omitempty"`
}

// RepoRequest starts a whole-repository check.
type RepoRequest struct {
	Username string        `json:"username"`
	RepoName string        `json:"repoName"`
	Branch   string        `json:"branch"`
	Location string        `json:"location"`
	Options  *CheckOptions `json:"options,omitempty"`
}

// BookPackageRequest starts a book package check.
type BookPackageRequest struct {
	Username      string        `json:"username"`
	LanguageCode  string        `json:"languageCode"`
	BookID        string        `json:"bookID"`
	DataSet       string        `json:"dataSet"`
	CheckManifest bool          `json:"checkManifestFlag"`
	CheckReadme   bool          `json:"checkReadmeFlag"`
	CheckLicense  bool          `json:"checkLicenseFlag"`
	Options       *CheckOptions `json:"options,omitempty"`
}

type rowChecker func(ctx context.Context, lang, repo, line, bookID, C, V, location string, opts check.Options) *notice.Result

var rowCheckers = map[string]rowChecker{
	"TN7":  check.NotesTSV7Row,
	"TN9":  check.NotesTSV9Row,
	"TQ7":  check.QuestionsTSV7Row,
	"TWL6": check.TWLTSV6Row,
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"name":    "tcvalidate",
		"version": s.cfg.Version,
		"endpoints": []string{
			"GET /api/health",
			"POST /api/check/file",
			"POST /api/check/table-row",
			"POST /api/check/repo",
			"POST /api/check/book-package",
			"GET /api/jobs",
			"GET /api/jobs/{id}",
			"DELETE /api/jobs/{id}",
			"POST /api/cache/clear",
			"GET /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: s.cfg.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Jobs:    len(s.jobs.List()),
		Clients: s.hub.ClientCount(),
	})
}

func (s *Server) handleCheckFile(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := validation.RepoPath("filename", req.Filename); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !validProcess(req.Process) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown process mode: "+req.Process)
		return
	}
	opts := req.Options.apply(s.checker.Options())

	ctx := r.Context()
	start := time.Now()
	logging.CheckStarted(ctx, "file", req.Filename)
	res := dispatch.FileContents(ctx, req.Username, req.LanguageCode, req.RepoCode, req.RepoName, req.Branch,
		req.Filename, req.Content, req.Location, opts)
	logging.CheckFinished(ctx, "file", req.Filename, len(res.NoticeList), res.CheckedFileCount, time.Since(start))

	respond(w, http.StatusOK, processed(res, req.Process, opts))
}

func (s *Server) handleCheckRow(w http.ResponseWriter, r *http.Request) {
	var req RowRequest
	if !s.decode(w, r, &req) {
		return
	}
	checker, ok := rowCheckers[strings.ToUpper(req.Format)]
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "format must be one of TN7, TN9, TQ7, TWL6")
		return
	}
	if !validProcess(req.Process) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown process mode: "+req.Process)
		return
	}
	opts := req.Options.apply(s.checker.Options())
	res := checker(r.Context(), req.LanguageCode, req.RepoCode, req.Line, strings.ToUpper(req.BookID), req.C, req.V, req.Location, opts)
	respond(w, http.StatusOK, processed(res, req.Process, opts))
}

func (s *Server) handleCheckRepo(w http.ResponseWriter, r *http.Request) {
	var req RepoRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.RepoName == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username and repoName are required")
		return
	}
	if err := validRepo(req.Username, req.RepoName, req.Branch); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	opts := req.Options.apply(s.checker.Options())

	target := req.Username + "/" + req.RepoName
	job := s.startJob("repo", target, func(ctx context.Context, progress dispatch.Progress) *notice.Result {
		return dispatch.Repo(ctx, req.Username, req.RepoName, req.Branch, req.Location, opts, progress)
	})
	respond(w, http.StatusAccepted, job)
}

// validRepo rejects names that could step outside a source root.
func validRepo(username, repoName, branch string) error {
	if err := validation.Name("username", username); err != nil {
		return err
	}
	if err := validation.Name("repoName", repoName); err != nil {
		return err
	}
	if branch == "" {
		return nil
	}
	return validation.Name("branch", branch)
}

func (s *Server) handleCheckBookPackage(w http.ResponseWriter, r *http.Request) {
	var req BookPackageRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.LanguageCode == "" || req.BookID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username, languageCode and bookID are required")
		return
	}
	for _, f := range []struct{ field, value string }{
		{"username", req.Username},
		{"languageCode", req.LanguageCode},
	} {
		if err := validation.Name(f.field, f.value); err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}
	ds, err := dispatch.ParseDataSet(req.DataSet)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	bookID := strings.ToUpper(req.BookID)
	if bookID != "OBS" && !books.IsValid(bookID) {
		// The orchestrator reports this as a notice too, but a job for a
		// book that cannot exist is a client error.
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("unknown book %q", req.BookID))
		return
	}
	opts := dispatch.PackageOptions{
		Options:       req.Options.apply(s.checker.Options()),
		DataSet:       ds,
		CheckManifest: req.CheckManifest,
		CheckReadme:   req.CheckReadme,
		CheckLicense:  req.CheckLicense,
	}

	target := req.Username + "/" + req.LanguageCode + "/" + bookID
	job := s.startJob("book-package", target, func(ctx context.Context, progress dispatch.Progress) *notice.Result {
		return dispatch.BookPackage(ctx, req.Username, req.LanguageCode, bookID, opts, progress)
	})
	respond(w, http.StatusAccepted, job)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	n, err := s.checker.ClearCaches(r.Context())
	if err != nil {
		logging.ErrorContext(r.Context(), "cache clear failed", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear caches")
		return
	}
	respond(w, http.StatusOK, map[string]int{"removed": n})
}

// decode reads a JSON POST body into dst, writing the error response
// itself when it returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return false
	}
	if !server.ValidContentType(r.Header.Get("Content-Type"), "application/json") {
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "Request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func validProcess(mode string) bool {
	switch mode {
	case "", ProcessErrorsWarnings, ProcessSevereMediumLow, ProcessSingleList:
		return true
	}
	return false
}

// processed returns res unchanged, or its display form when a processing
// mode was requested.
func processed(res *notice.Result, mode string, opts check.Options) any {
	popts := notice.DefaultProcessOptions()
	popts.CutoffPriorityLevel = opts.CutoffPriorityLevel
	switch mode {
	case ProcessErrorsWarnings:
		return notice.ToErrorsWarnings(res, popts)
	case ProcessSevereMediumLow:
		return notice.ToSevereMediumLow(res, popts)
	case ProcessSingleList:
		return notice.ToSingleList(res, popts)
	}
	return res
}

func respond(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondList(w http.ResponseWriter, data any, total int) {
	writeResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func writeResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Warn("failed to write response", "error", err)
	}
}
