package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/tillage/pkg/core"
)

var (
	tasksJSON       bool
	taskDescription string
	taskTitle       string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the task board",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in stored order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		tasks, err := app.Tasks.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		if tasksJSON {
			return printJSON(cmd.OutOrStdout(), tasks)
		}
		for _, t := range tasks {
			printTask(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task to the todo column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		in := core.TaskInput{Title: args[0]}
		if cmd.Flags().Changed("description") {
			in.Description = &taskDescription
		}
		task, err := app.Tasks.Create(changeContext(cmd), in)
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task added: %s\n", task.ID)
		return nil
	},
}

var tasksEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the title or description of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var patch core.TaskPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &taskTitle
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &taskDescription
		}
		task, err := app.Tasks.Update(changeContext(cmd), args[0], patch)
		if err != nil {
			return fmt.Errorf("failed to edit task: %w", err)
		}
		printTask(cmd.OutOrStdout(), task)
		return nil
	},
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move [id] [status]",
	Short: "Move a task to another column (todo, in_progress, done)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		task, err := app.Tasks.UpdateStatus(changeContext(cmd), args[0], core.TaskStatus(args[1]))
		if err != nil {
			return fmt.Errorf("failed to move task: %w", err)
		}
		printTask(cmd.OutOrStdout(), task)
		return nil
	},
}

var tasksRmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Tasks.Delete(changeContext(cmd), args[0]); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %s\n", args[0])
		return nil
	},
}

var tasksBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show tasks grouped by column",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		board, err := app.Tasks.Board(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to build board: %w", err)
		}
		if tasksJSON {
			return printJSON(cmd.OutOrStdout(), board)
		}

		out := cmd.OutOrStdout()
		columns := []struct {
			name  core.TaskStatus
			tasks []core.Task
		}{
			{core.StatusTodo, board.Todo},
			{core.StatusInProgress, board.InProgress},
			{core.StatusDone, board.Done},
		}
		for _, col := range columns {
			fmt.Fprintf(out, "%s (%d)\n", col.name, len(col.tasks))
			for _, t := range col.tasks {
				fmt.Fprintf(out, "  %s %s\n", t.ID, t.Title)
			}
		}
		return nil
	},
}

func printTask(w io.Writer, t core.Task) {
	fmt.Fprintf(w, "%s [%s] %s\n", t.ID, t.Status, t.Title)
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksEditCmd, tasksMoveCmd, tasksRmCmd, tasksBoardCmd)

	tasksCmd.PersistentFlags().StringVarP(&message, "message", "m", "", "Change reason recorded by versioning")
	tasksListCmd.Flags().BoolVar(&tasksJSON, "json", false, "Output in JSON format")
	tasksBoardCmd.Flags().BoolVar(&tasksJSON, "json", false, "Output in JSON format")
	tasksAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Task description")
	tasksEditCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	tasksEditCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "New description")
}
