package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
)

// JobRunner is the part of the scheduler exposed over HTTP.
type JobRunner interface {
	Status() []cron.JobStatus
	Trigger(name string) error
}

type JobHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Trigger(w http.ResponseWriter, r *http.Request)
}

type jobHandlerImpl struct {
	runner JobRunner
}

func NewJobHandler(runner JobRunner) JobHandler {
	return &jobHandlerImpl{runner: runner}
}

// List implements JobHandler.
func (h *jobHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.runner.Status())
}

// Trigger implements JobHandler.
func (h *jobHandlerImpl) Trigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.runner.Trigger(name); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Job triggered", map[string]string{"name": name})
}
