package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/brfinance/extrato/internal/domain"
	"github.com/brfinance/extrato/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxUploadBytes caps statement uploads at 20 MiB.
const maxUploadBytes = 20 << 20

type StatementService interface {
	ProcessFile(ctx context.Context, bank, filename string, content []byte) (*domain.ProcessingResult, error)
	Banks() []string
	Transactions(ctx context.Context, bank string, from, to *time.Time, limit, offset uint64) ([]*domain.Transaction, int, error)
}

type JobProducer interface {
	Submit(ctx context.Context, bank, filename string, content []byte, priority int) (*domain.ProcessingStatus, error)
	Cancel(jobID string) error
	Status(jobID string) (*domain.ProcessingStatus, error)
	Statuses() []*domain.ProcessingStatus
}

type MetricsSource interface {
	Snapshot() service.MetricsSnapshot
}

type StatementsHandler struct {
	statements StatementService
	jobs       JobProducer
	metrics    MetricsSource
}

func NewStatementsHandler(statements StatementService, jobs JobProducer, metrics MetricsSource) *StatementsHandler {
	return &StatementsHandler{
		statements: statements,
		jobs:       jobs,
		metrics:    metrics,
	}
}

func (h *StatementsHandler) ProcessStatement(w http.ResponseWriter, r *http.Request) {
	bank := chi.URLParam(r, "bank")

	filename, content, err := h.readUpload(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.statements.ProcessFile(r.Context(), bank, filename, content)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *StatementsHandler) SubmitStatement(w http.ResponseWriter, r *http.Request) {
	bank := chi.URLParam(r, "bank")

	filename, content, err := h.readUpload(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	priority := 0
	if p := r.FormValue("priority"); p != "" {
		priority, err = strconv.Atoi(p)
		if err != nil {
			http.Error(w, "invalid priority", http.StatusBadRequest)
			return
		}
	}

	status, err := h.jobs.Submit(r.Context(), bank, filename, content, priority)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, status)
}

func (h *StatementsHandler) ListProcessing(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.jobs.Statuses())
}

func (h *StatementsHandler) GetProcessing(w http.ResponseWriter, r *http.Request) {
	status, err := h.jobs.Status(chi.URLParam(r, "job_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}

func (h *StatementsHandler) CancelProcessing(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	if err := h.jobs.Cancel(jobID); err != nil {
		h.writeError(w, err)
		return
	}

	status, err := h.jobs.Status(jobID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}

func (h *StatementsHandler) ListBanks(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{"banks": h.statements.Banks()})
}

type ListTransactionsResponse struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Pagination   Pagination            `json:"pagination"`
}

func (h *StatementsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	from, err := h.parseDate(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	to, err := h.parseDate(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset := (page - 1) * limit

	transactions, total, err := h.statements.Transactions(r.Context(), r.URL.Query().Get("bank"), from, to, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ListTransactionsResponse{
		Transactions: transactions,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int(limit) - 1) / int(limit),
		},
	})
}

func (h *StatementsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

// readUpload pulls the statement file out of the multipart form.
func (h *StatementsHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New("missing form file \"file\"")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, errors.New("failed to read uploaded file")
	}

	return header.Filename, content, nil
}

func (h *StatementsHandler) parsePagination(r *http.Request) (page uint64, limit uint64, err error) {
	page, limit = defaultPage, defaultLimit

	if p := r.URL.Query().Get("page"); p != "" {
		page, err = strconv.ParseUint(p, 10, 64)
		if err != nil || page == 0 {
			return 0, 0, errors.New("invalid page")
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.ParseUint(l, 10, 64)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, errors.New("invalid limit, must be in [1;100]")
		}
	}

	return page, limit, nil
}

func (h *StatementsHandler) parseDate(r *http.Request, param string) (*time.Time, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil, nil
	}

	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errors.New("invalid " + param + ", expected YYYY-MM-DD")
	}

	return &date, nil
}

func (h *StatementsHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (h *StatementsHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedBank),
		errors.Is(err, domain.ErrEmptyFile),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidSubmission):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrJobNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrJobNotCancelable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
