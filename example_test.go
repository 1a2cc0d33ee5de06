package tillage_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/tillage"
	"github.com/aretw0/tillage/pkg/core"
)

// Example_board creates a task, moves it to done and prints the board.
func Example_board() {
	tmpDir, err := os.MkdirTemp("", "tillage-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	app, err := tillage.Open(ctx, tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	task, err := app.Tasks.Create(ctx, core.TaskInput{Title: "Write spec"})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := app.Tasks.UpdateStatus(ctx, task.ID, core.StatusDone); err != nil {
		log.Fatal(err)
	}

	board, err := app.Tasks.Board(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("todo=%d in_progress=%d done=%d\n", len(board.Todo), len(board.InProgress), len(board.Done))
	fmt.Println(board.Done[0].Title)
	// Output:
	// todo=0 in_progress=0 done=1
	// Write spec
}

// Example_tags shows the distinct tags of a notes collection.
func Example_tags() {
	tmpDir, err := os.MkdirTemp("", "tillage-tags-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	app, err := tillage.Open(ctx, tmpDir, tillage.WithFormat("yaml"))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	for _, in := range []core.NoteInput{
		{Title: "one", Tags: []string{"a", "b"}},
		{Title: "two", Tags: []string{"b", "c"}},
	} {
		if _, err := app.Notes.Create(ctx, in); err != nil {
			log.Fatal(err)
		}
	}

	tags, err := app.Notes.Tags(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tags)
	// Output:
	// [a b c]
}
