package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jkshenton/jasp/pkg/lifecycle"
	"github.com/jkshenton/jasp/pkg/queue"
	"github.com/jkshenton/jasp/pkg/walk"
)

// JobsHandler serves read-only job directory classifications.
type JobsHandler struct {
	queue queue.Queue
	log   *zap.Logger
}

// NewJobsHandler builds the handler.
func NewJobsHandler(q queue.Queue, log *zap.Logger) *JobsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &JobsHandler{queue: q, log: log}
}

// JobStatus is one classified directory in a ListResponse.
type JobStatus struct {
	Dir     string `json:"dir"`
	State   string `json:"state"`
	JobID   string `json:"job_id,omitempty"`
	Queued  bool   `json:"queued,omitempty"`
	Running bool   `json:"running,omitempty"`
}

// ListResponse is the body of GET /api/v1/jobs.
type ListResponse struct {
	Jobs []JobStatus `json:"jobs"`
}

// List classifies job directories under ?root= (default "."), walking
// recursively when ?recursive=1. Classification only: this endpoint
// never deletes, creates or submits anything.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	root := r.URL.Query().Get("root")
	if root == "" {
		root = "."
	}
	recursive := r.URL.Query().Get("recursive") == "1"

	finder := &walk.Finder{Recursive: recursive}
	dirs, err := finder.Find([]string{root})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	resp := ListResponse{Jobs: []JobStatus{}}
	for _, dir := range dirs {
		facts, err := lifecycle.Gather(r.Context(), dir, h.queue)
		if err != nil {
			h.log.Warn("gather failed", zap.String("dir", dir), zap.Error(err))
			resp.Jobs = append(resp.Jobs, JobStatus{Dir: dir, State: "error"})
			continue
		}
		state := lifecycle.Classify(facts)
		resp.Jobs = append(resp.Jobs, JobStatus{
			Dir:     dir,
			State:   state.String(),
			JobID:   facts.JobID,
			Queued:  state == lifecycle.StateQueuedWaiting,
			Running: state == lifecycle.StateQueuedRunning,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
