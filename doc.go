// Package tillage is the composition root of a small self-hosted workspace: a
// kanban task board, a notes collection and a Markdown page.
//
// Each collection lives in a single JSON (or YAML) document on disk, or in an
// embedded SQLite database. Writes are serialised within the process and
// across processes, so concurrent writers never lose each other's updates.
//
// Usage:
//
//	app, err := tillage.Open(ctx, "./data", tillage.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	task, err := app.Tasks.Create(ctx, core.TaskInput{Title: "Write spec"})
//
// The cmd/tillage binary serves the same workspace over HTTP.
package tillage
