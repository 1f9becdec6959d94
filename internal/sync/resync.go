package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/douglascorrea/todo-api/internal/metrics"
)

// taskUpsertConcurrency bounds the per-list task fan-out.
const taskUpsertConcurrency = 8

// Resync pulls every remote list and task for the user's linked account and
// upserts them locally, keyed by (userID, remote id). Re-running it against
// an unchanged account is a no-op: the natural key never mints duplicate
// local rows.
//
// The pass is best-effort: individual upsert failures are logged and skipped,
// never rolled back, and never fail the pass. Only a failure to fetch the
// remote state at all is returned.
func (e *Engine) Resync(ctx context.Context, userID uuid.UUID) error {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MicrosoftUserID == nil {
		return fmt.Errorf("user %s has no linked microsoft account", userID)
	}

	all, err := e.provider(ctx, *user.MicrosoftUserID).ListAllListsAndTasks(ctx)
	if err != nil {
		return fmt.Errorf("fetching remote lists and tasks: %w", err)
	}

	var g errgroup.Group
	for _, lw := range all {
		lw := lw
		g.Go(func() error {
			list, err := e.lists.UpsertByMicrosoftListID(ctx, userID, lw.ID, lw.DisplayName)
			if err != nil {
				metrics.CountResyncItem("list", "error")
				e.log.Error().Err(err).
					Str("user_id", userID.String()).
					Str("ms_list_id", lw.ID).
					Msg("resync: list upsert failed")
				return nil
			}
			metrics.CountResyncItem("list", "ok")

			var tasks errgroup.Group
			tasks.SetLimit(taskUpsertConcurrency)
			for _, task := range lw.Tasks {
				task := task
				tasks.Go(func() error {
					listID := list.ID
					_, err := e.todos.UpsertByMicrosoftTaskID(ctx, userID, task.ID,
						&listID, task.Title, task.Body.Content, task.Completed())
					if err != nil {
						metrics.CountResyncItem("task", "error")
						e.log.Error().Err(err).
							Str("user_id", userID.String()).
							Str("ms_task_id", task.ID).
							Msg("resync: task upsert failed")
						return nil
					}
					metrics.CountResyncItem("task", "ok")
					return nil
				})
			}
			return tasks.Wait()
		})
	}
	return g.Wait()
}
