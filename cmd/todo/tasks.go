package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"todolist/internal/controller"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the tasks of one list",
		Long: `Manage the tasks of the list numbered <list> by "todo list ls".

Tasks are numbered with current tasks first, then completed ones.`,
	}

	// tasksOf opens the task controller for the list at the 1-based row arg.
	tasksOf := func(ctx context.Context, arg string) (*controller.TaskController, error) {
		mode, err := a.sortMode("")
		if err != nil {
			return nil, err
		}
		lists := controller.NewTaskListController(a.svc, mode)
		if err := lists.Reload(ctx); err != nil {
			return nil, err
		}
		row, err := parseRow(arg, lists.NumberOfRows())
		if err != nil {
			return nil, err
		}
		l, _ := lists.TaskList(row)
		c := controller.NewTaskController(a.svc, l)
		if err := c.Reload(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}

	// withTask resolves <list> <n> and dispatches the command built for it.
	withTask := func(cmd *cobra.Command, args []string, build func(c *controller.TaskController, at controller.IndexPath) controller.Command) error {
		c, err := tasksOf(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		paths := taskPaths(c)
		idx, err := parseRow(args[1], len(paths))
		if err != nil {
			return err
		}
		change, err := c.Dispatch(cmd.Context(), build(c, paths[idx]))
		if err != nil {
			return err
		}
		printChange(cmd.OutOrStdout(), change)
		return nil
	}

	var addNote string
	add := &cobra.Command{
		Use:   "add <list> <title>",
		Short: "Add a task to a list",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := tasksOf(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			change, err := c.Dispatch(cmd.Context(), controller.CreateTask{Title: argOr(args, 1), Note: addNote})
			if err != nil {
				return err
			}
			printChange(cmd.OutOrStdout(), change)
			return nil
		},
	}
	add.Flags().StringVarP(&addNote, "note", "n", "", "task note")

	var editNote string
	edit := &cobra.Command{
		Use:   "edit <list> <n> <title>",
		Short: "Retitle a task; --note replaces its note",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTask(cmd, args, func(c *controller.TaskController, at controller.IndexPath) controller.Command {
				t, _ := c.Task(at)
				note := t.Note
				if cmd.Flags().Changed("note") {
					note = editNote
				}
				return controller.EditTask{At: at, Title: args[2], Note: note}
			})
		},
	}
	edit.Flags().StringVarP(&editNote, "note", "n", "", "task note")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "ls <list>",
			Aliases: []string{"show"},
			Short:   "Show the current and completed tasks of a list",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := tasksOf(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), c)
				return nil
			},
		},
		add,
		edit,
		&cobra.Command{
			Use:     "rm <list> <n>",
			Aliases: []string{"delete"},
			Short:   "Delete a task",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withTask(cmd, args, func(_ *controller.TaskController, at controller.IndexPath) controller.Command {
					return controller.DeleteTask{At: at}
				})
			},
		},
		&cobra.Command{
			Use:     "toggle <list> <n>",
			Aliases: []string{"done"},
			Short:   "Flip a task between current and completed",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withTask(cmd, args, func(_ *controller.TaskController, at controller.IndexPath) controller.Command {
					return controller.ToggleTask{At: at}
				})
			},
		},
	)
	return cmd
}

func taskPaths(c *controller.TaskController) []controller.IndexPath {
	var out []controller.IndexPath
	for s := 0; s < c.NumberOfSections(); s++ {
		for r := 0; r < c.NumberOfRows(s); r++ {
			out = append(out, controller.IndexPath{Section: s, Row: r})
		}
	}
	return out
}

func printTasks(w io.Writer, c *controller.TaskController) {
	fmt.Fprintln(w, c.Title())
	n := 1
	for s := 0; s < c.NumberOfSections(); s++ {
		fmt.Fprintln(w, c.SectionTitle(s))
		for r := 0; r < c.NumberOfRows(s); r++ {
			row, _ := c.Row(controller.IndexPath{Section: s, Row: r})
			line := fmt.Sprintf("%4d  %s", n, row.Text)
			if row.Secondary != "" {
				line += "  - " + row.Secondary
			}
			fmt.Fprintln(w, line)
			n++
		}
	}
}
