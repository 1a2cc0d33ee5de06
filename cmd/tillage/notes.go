package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tillage/pkg/core"
)

var (
	notesJSON   bool
	noteTag     string
	noteTitle   string
	noteContent string
	noteTags    []string
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var notes []core.Note
		if noteTag != "" {
			notes, err = app.Notes.ListByTag(cmd.Context(), noteTag)
		} else {
			notes, err = app.Notes.List(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("failed to list notes: %w", err)
		}
		return printNotes(cmd.OutOrStdout(), notes)
	},
}

var notesAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		in := core.NoteInput{Title: args[0], Tags: noteTags}
		if cmd.Flags().Changed("content") {
			in.Content = &noteContent
		}
		note, err := app.Notes.Create(changeContext(cmd), in)
		if err != nil {
			return fmt.Errorf("failed to add note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note added: %s\n", note.ID)
		return nil
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		note, err := app.Notes.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to read note: %w", err)
		}
		if notesJSON {
			return printJSON(cmd.OutOrStdout(), note)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", note.Title)
		if len(note.Tags) > 0 {
			fmt.Fprintf(out, "tags: %s\n", strings.Join(note.Tags, ", "))
		}
		fmt.Fprintf(out, "updated: %s\n\n%s\n", note.UpdatedAt, note.Content)
		return nil
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the title, content or tags of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var patch core.NotePatch
		if cmd.Flags().Changed("title") {
			patch.Title = &noteTitle
		}
		if cmd.Flags().Changed("content") {
			patch.Content = &noteContent
		}
		if cmd.Flags().Changed("tags") {
			patch.Tags = &noteTags
		}
		note, err := app.Notes.Update(changeContext(cmd), args[0], patch)
		if err != nil {
			return fmt.Errorf("failed to edit note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note updated: %s\n", note.ID)
		return nil
	},
}

var notesRmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Notes.Delete(changeContext(cmd), args[0]); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note deleted: %s\n", args[0])
		return nil
	},
}

var notesTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the distinct tags of all notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		tags, err := app.Notes.Tags(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}
		if notesJSON {
			return printJSON(cmd.OutOrStdout(), tags)
		}
		for _, tag := range tags {
			fmt.Fprintln(cmd.OutOrStdout(), tag)
		}
		return nil
	},
}

var notesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy search notes by title, tags and content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		notes, err := app.Notes.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("failed to search notes: %w", err)
		}
		return printNotes(cmd.OutOrStdout(), notes)
	},
}

func printNotes(w io.Writer, notes []core.Note) error {
	if notesJSON {
		return printJSON(w, notes)
	}
	for _, n := range notes {
		tags := ""
		if len(n.Tags) > 0 {
			tags = " #" + strings.Join(n.Tags, " #")
		}
		fmt.Fprintf(w, "%s %s%s\n", n.ID, n.Title, tags)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd, notesAddCmd, notesShowCmd, notesEditCmd, notesRmCmd, notesTagsCmd, notesSearchCmd)

	notesCmd.PersistentFlags().StringVarP(&message, "message", "m", "", "Change reason recorded by versioning")
	notesCmd.PersistentFlags().BoolVar(&notesJSON, "json", false, "Output in JSON format")
	notesListCmd.Flags().StringVar(&noteTag, "tag", "", "Only notes carrying this tag")

	for _, c := range []*cobra.Command{notesAddCmd, notesEditCmd} {
		c.Flags().StringVarP(&noteContent, "content", "c", "", "Note content")
		c.Flags().StringSliceVarP(&noteTags, "tags", "t", nil, "Comma-separated tags")
	}
	notesEditCmd.Flags().StringVar(&noteTitle, "title", "", "New title")
}
