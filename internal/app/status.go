package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// jobStatus is the wire form of one job on the status endpoint.
type jobStatus struct {
	ID          string `json:"id"`
	Pipeline    string `json:"pipeline"`
	OS          string `json:"os"`
	Interpreter string `json:"interpreter"`
	Arch        string `json:"arch"`
	State       string `json:"state"`
	Error       string `json:"error,omitempty"`
}

// healthHandler reports liveness for the hosting environment.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// jobsHandler serializes the current plan and per-job states.
func (a *App) jobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs := a.snapshotJobs()
	out := make([]jobStatus, 0, len(jobs))
	for _, j := range jobs {
		s := jobStatus{
			ID:          j.Desc.ID,
			Pipeline:    j.Desc.Pipeline,
			OS:          j.Desc.OS,
			Interpreter: j.Desc.Interpreter,
			Arch:        j.Desc.Arch,
			State:       j.State().String(),
		}
		if err := j.Err(); err != nil {
			s.Error = err.Error()
		}
		out = append(out, s)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		a.logger.Error("Failed to encode job status.", "error", err)
	}
}

// startStatusServer binds the status HTTP server and serves it in the
// background. The server instance is kept on the App so closeStatusServer
// can shut it down when the run finishes.
func (a *App) startStatusServer(port int) error {
	a.logger.Debug("Configuring status server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/jobs", a.jobsHandler)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("status server failed to bind port %d: %w", port, err)
	}
	a.statusAddr = ln.Addr().String()
	a.httpServer = &http.Server{Handler: mux}

	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost:%d/jobs", ln.Addr().(*net.TCPAddr).Port))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Status server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeStatusServer() {
	if a.httpServer == nil {
		a.logger.Debug("Status server was not running.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down status server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Status server shutdown failed", "error", err)
		return
	}
	a.logger.Debug("Status server shut down gracefully.")
}
