package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/progress"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
)

// BoardResponse is the GET /api/v1/tasks/today body. StreakTask is open on
// every day, whatever its catalog day.
type BoardResponse struct {
	Date            string             `json:"date"`
	Day             int                `json:"day"`
	Today           []domain.Task      `json:"today"`
	Unlocked        []domain.Task      `json:"unlocked"`
	Locked          []domain.Task      `json:"locked"`
	CompletionRatio float64            `json:"completionRatio"`
	XP              int                `json:"xp"`
	Streak          domain.StreakState `json:"streak"`
	StreakTask      domain.Task        `json:"streakTask"`
}

// CompleteTaskResponse is the POST /api/v1/tasks/{id}/complete body.
type CompleteTaskResponse struct {
	Task            domain.Task        `json:"task"`
	XP              int                `json:"xp"`
	Points          int                `json:"points"`
	CompletionRatio float64            `json:"completionRatio"`
	Streak          domain.StreakState `json:"streak"`
}

// ListTasks handles GET /api/v1/tasks.
func (h *REST) ListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Tasks())
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *REST) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "task ID must be an integer")
		return
	}
	t, err := h.Catalog.Task(id)
	if err != nil {
		h.fail(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// loadTracker builds the caller's tracker over the catalog with every task
// completed inside the current reset window marked done.
func (h *REST) loadTracker(r *http.Request, uid, today string) (*progress.Tracker, error) {
	done, err := h.Completions.CompletedBetween(r.Context(), uid, progress.WindowStart(h.ResetPolicy, today), today)
	if err != nil {
		return nil, err
	}
	tasks := progress.MarkCompleted(h.Catalog.Tasks(), done)
	return progress.NewTracker(r.Context(), uid, tasks, h.Streaks,
		progress.WithStreakTask(h.StreakTaskID),
		progress.WithTrackerLogger(h.Logger),
	), nil
}

// TodayBoard handles GET /api/v1/tasks/today.
func (h *REST) TodayBoard(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	tr, err := h.loadTracker(r, userID(r), today)
	if err != nil {
		h.fail(w, "load task board", err)
		return
	}
	day := progress.Weekday(today)
	b := progress.Partition(tr.Tasks(), day)
	streakTask, _ := progress.FindTask(tr.Tasks(), h.StreakTaskID)
	writeJSON(w, http.StatusOK, BoardResponse{
		Date:            today,
		Day:             day,
		Today:           b.Today,
		Unlocked:        b.Unlocked,
		Locked:          b.Locked,
		CompletionRatio: tr.Ratio(),
		XP:              tr.XP(),
		Streak:          tr.Streak(),
		StreakTask:      streakTask,
	})
}

// CompleteTask handles POST /api/v1/tasks/{id}/complete. A task unlocks on
// its catalog day and stays open until completed inside the reset window.
// The streak task is open every day, once per day.
func (h *REST) CompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.complete_task")
	defer span.End()
	r = r.WithContext(ctx)

	id, ok := intParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "task ID must be an integer")
		return
	}
	uid := userID(r)
	span.SetAttributes(attribute.Int("task.id", id), attribute.String("user.id", uid))

	task, err := h.Catalog.Task(id)
	if err != nil {
		telemetry.APITasksCompleted.WithLabelValues("not_found").Inc()
		h.fail(w, "complete task", err)
		return
	}
	today := h.today()
	streakTask := id == h.StreakTaskID
	if day := progress.Weekday(today); task.Day > day && !streakTask {
		telemetry.APITasksCompleted.WithLabelValues("not_available").Inc()
		h.fail(w, "complete task", &domain.TaskNotAvailableError{TaskID: id, Day: task.Day, Today: day})
		return
	}

	tr, err := h.loadTracker(r, uid, today)
	if err != nil {
		h.fail(w, "complete task", err)
		return
	}
	if done, _ := progress.FindTask(tr.Tasks(), id); done.Completed && !streakTask {
		telemetry.APITasksCompleted.WithLabelValues("duplicate").Inc()
		h.fail(w, "complete task", &domain.AlreadyCompletedError{What: "task", ID: strconv.Itoa(id)})
		return
	}

	inserted, total, err := h.Completions.Record(ctx, &domain.TaskCompletion{
		UserID: uid,
		TaskID: id,
		Day:    today,
		Points: task.Points,
		At:     h.Now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record completion failed")
		h.fail(w, "complete task", err)
		return
	}
	if !inserted {
		telemetry.APITasksCompleted.WithLabelValues("duplicate").Inc()
		h.fail(w, "complete task", &domain.AlreadyCompletedError{What: "task", ID: strconv.Itoa(id)})
		return
	}

	res := tr.Complete(ctx, id, today)
	telemetry.APITasksCompleted.WithLabelValues("completed").Inc()

	h.Events.Emit(ctx, domain.EventTaskCompleted, uid, domain.PointsPayload{
		Points:      task.Points,
		TotalPoints: total,
		Ref:         "task:" + strconv.Itoa(id),
	})
	if res.StreakChanged {
		h.Events.Emit(ctx, domain.EventStreakUpdated, uid, domain.StreakPayload{
			CurrentStreak: res.Streak.CurrentStreak,
			Day:           today,
			TotalPoints:   total,
		})
	}
	h.Logger.Info("task completed",
		slog.String("user_id", uid),
		slog.Int("task_id", id),
		slog.Int("points", total),
	)

	writeJSON(w, http.StatusCreated, CompleteTaskResponse{
		Task:            res.Task,
		XP:              res.XP,
		Points:          total,
		CompletionRatio: tr.Ratio(),
		Streak:          res.Streak,
	})
}
