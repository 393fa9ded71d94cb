package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/outing/internal/interfaces"
)

// MaintenanceHandler exposes the housekeeping scheduler
type MaintenanceHandler struct {
	scheduler interfaces.SchedulerService
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(scheduler interfaces.SchedulerService) *MaintenanceHandler {
	return &MaintenanceHandler{scheduler: scheduler}
}

// ListJobsHandler handles GET /api/maintenance/jobs
func (h *MaintenanceHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.scheduler.IsRunning(),
		"jobs":    h.scheduler.GetAllJobStatuses(),
	})
}

// RunJobHandler handles POST /api/maintenance/jobs/{name}/run
func (h *MaintenanceHandler) RunJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/maintenance/jobs/"), "/run")
	if name == "" || strings.Contains(name, "/") {
		WriteError(w, http.StatusBadRequest, "Job name is required")
		return
	}

	if _, err := h.scheduler.GetJobStatus(name); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	result, err := h.scheduler.TriggerJob(r.Context(), name)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"job":    name,
		"result": result,
	})
}
