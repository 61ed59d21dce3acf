package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/application/command"
	"github.com/loser-hub/loser-challenge-hub/internal/application/query"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler"
	"github.com/loser-hub/loser-challenge-hub/pkg/logger"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// componentStatus is one backing service's health in the health report.
type componentStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// healthReport is the full health check response.
type healthReport struct {
	Status     string                     `json:"status"`
	Uptime     string                     `json:"uptime"`
	Components map[string]componentStatus `json:"components"`
}

// handleHealth reports the health of the service and its dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	report := healthReport{
		Status:     "healthy",
		Uptime:     s.Uptime().Round(time.Second).String(),
		Components: make(map[string]componentStatus),
	}

	checks := map[string]ComponentChecker{
		"postgres": s.deps.Postgres,
		"redis":    s.deps.Redis,
	}

	for name, checker := range checks {
		if checker == nil {
			continue
		}

		start := time.Now()
		err := checker.Ping(ctx)
		latency := time.Since(start)

		status := componentStatus{
			Status:  "up",
			Latency: latency.Round(time.Millisecond).String(),
		}
		if err != nil {
			status.Status = "down"
			status.Error = err.Error()
			report.Status = "degraded"
		}

		report.Components[name] = status
	}

	code := http.StatusOK
	if report.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, report)
}

// handleReady reports readiness: the service can serve only when the
// database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.deps.Postgres != nil {
		if err := s.deps.Postgres.Ping(ctx); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "database is not reachable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive reports liveness.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleRoot returns basic service info.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "loser-challenge-hub",
		"uptime":  s.Uptime().Round(time.Second).String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ-ONLY VIEW HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleTeamSummary returns the team standing for a cycle.
// GET /api/v1/team/summary?week=2026-08-31
func (s *Server) handleTeamSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.TeamSummaryHandler.Handle(r.Context(), query.GetTeamSummaryQuery{
		WeekKey: r.URL.Query().Get("week"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleMemberSummary returns one member's standing.
// GET /api/v1/members/{id}/summary?week=2026-08-31
func (s *Server) handleMemberSummary(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseMemberID(w, r)
	if !ok {
		return
	}

	summary, err := s.deps.MemberSummaryHandler.Handle(r.Context(), query.GetMemberSummaryQuery{
		MemberID: memberID,
		WeekKey:  r.URL.Query().Get("week"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleActivityLog returns a member's progress ledger for a cycle.
// GET /api/v1/members/{id}/log?week=2026-08-31
func (s *Server) handleActivityLog(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseMemberID(w, r)
	if !ok {
		return
	}

	log, err := s.deps.ActivityLogHandler.Handle(r.Context(), query.GetActivityLogQuery{
		MemberID: memberID,
		WeekKey:  r.URL.Query().Get("week"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, log)
}

// handlePuzzleStandings returns the daily puzzle leaderboard.
// GET /api/v1/puzzles/standings?podium=true
func (s *Server) handlePuzzleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := s.deps.PuzzleStandingsHandler.Handle(r.Context(), query.GetPuzzleStandingsQuery{
		IncludePodium: getQueryParamBool(r, "podium"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, standings)
}

// handleVerdictHistory returns recent cycle verdicts.
// GET /api/v1/history?limit=10
func (s *Server) handleVerdictHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.deps.VerdictHistoryHandler.Handle(r.Context(), query.GetVerdictHistoryQuery{
		Limit: getQueryParamInt(r, "limit", 10),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListJobs returns all scheduled jobs and their last results.
// GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "scheduler_unavailable", "Scheduler is not running in this process")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": s.deps.Scheduler.ListJobs(),
	})
}

// handleRunJob triggers a scheduled job immediately.
// POST /api/v1/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "scheduler_unavailable", "Scheduler is not running in this process")
		return
	}

	name := r.PathValue("name")

	result, err := s.deps.Scheduler.RunNow(r.Context(), name)
	if err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			writeJSONError(w, http.StatusNotFound, "job_not_found", err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "job_failed", err.Error())
		return
	}

	s.logger.Info("job triggered via admin API",
		logger.String("job", name),
		logger.String("request_id", getRequestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, result)
}

// handleAddSkipDay marks a date as exempt from the nightly puzzle
// penalty, e.g. a holiday or an outage of the puzzle site.
// POST /api/v1/puzzles/skip-days {"date": "2026-08-31"}
func (s *Server) handleAddSkipDay(w http.ResponseWriter, r *http.Request) {
	if s.deps.SkipStore == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "skip_store_unavailable", "Skip day store is not configured")
		return
	}

	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON with a date field")
		return
	}

	date, err := timeutil.ParseDate(body.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_date", "Date must be formatted YYYY-MM-DD")
		return
	}

	if err := s.deps.SkipStore.Add(r.Context(), date); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("skip day added via admin API",
		logger.String("date", body.Date),
		logger.String("request_id", getRequestID(r.Context())),
	)

	writeJSON(w, http.StatusCreated, map[string]string{"date": timeutil.FormatDateStr(date)})
}

// ══════════════════════════════════════════════════════════════════════════════
// BACKUP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListBackups returns the stored snapshot IDs.
// GET /api/v1/backups
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if s.deps.SnapshotStore == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "backups_unavailable", "Backup store is not configured")
		return
	}

	ids, err := s.deps.SnapshotStore.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": ids,
		"count":     len(ids),
	})
}

// handleCreateBackup captures a snapshot of cycle state.
// POST /api/v1/backups?week=2026-08-31
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateBackupHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "backups_unavailable", "Backup store is not configured")
		return
	}

	result, err := s.deps.CreateBackupHandler.Handle(r.Context(), command.CreateBackupCommand{
		WeekKey: r.URL.Query().Get("week"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleRestoreBackup restores cycle state from a stored snapshot.
// POST /api/v1/backups/{id}/restore
func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	if s.deps.RestoreBackupHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "backups_unavailable", "Backup store is not configured")
		return
	}

	snapshotID := r.PathValue("id")

	result, err := s.deps.RestoreBackupHandler.Handle(r.Context(), command.RestoreBackupCommand{
		SnapshotID: snapshotID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("snapshot restored via admin API",
		logger.String("snapshot_id", snapshotID),
		logger.String("request_id", getRequestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		s.logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Any("error", err.Error()),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// parseMemberID extracts the {id} path parameter, writing a 400 on failure.
func parseMemberID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_member_id", "Member ID must be a positive integer")
		return 0, false
	}
	return id, true
}
