package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/jobs"
	"github.com/frahmantamala/recurrent-payments/internal/transport"
)

type JobRunner interface {
	Run(ctx context.Context, name string, asOf time.Time) (*jobs.Report, error)
}

type JobHandler struct {
	*transport.BaseHandler
	runner JobRunner
	now    func() time.Time
}

func NewJobHandler(base *transport.BaseHandler, runner JobRunner) *JobHandler {
	return &JobHandler{
		BaseHandler: base,
		runner:      runner,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RunJob handles POST /jobs/{name}?as_of=YYYY-MM-DD. as_of defaults to now.
func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	asOf := h.now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		day, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			h.WriteError(w, r, internal.NewValidationFieldError("as_of", "as_of must be a YYYY-MM-DD date", internal.ErrCodeInvalidDate))
			return
		}
		asOf = day
	}

	report, err := h.runner.Run(r.Context(), name, asOf)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}
