package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todolist/internal/controller"
)

func newListCmd(a *app) *cobra.Command {
	var sortFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage task lists",
	}
	cmd.PersistentFlags().StringVar(&sortFlag, "sort", "", "row order: date or alpha (default from config)")

	lists := func(ctx context.Context) (*controller.TaskListController, error) {
		mode, err := a.sortMode(sortFlag)
		if err != nil {
			return nil, err
		}
		c := controller.NewTaskListController(a.svc, mode)
		if err := c.Reload(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"show"},
			Short:   "Show task lists with their task counts",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := lists(cmd.Context())
				if err != nil {
					return err
				}
				printLists(cmd.OutOrStdout(), c)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <title>",
			Short: "Create a task list",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := lists(cmd.Context())
				if err != nil {
					return err
				}
				return dispatchList(cmd, c, controller.CreateTaskList{Title: argOr(args, 0)})
			},
		},
		&cobra.Command{
			Use:   "edit <n> <title>",
			Short: "Rename task list n",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := lists(cmd.Context())
				if err != nil {
					return err
				}
				row, err := parseRow(args[0], c.NumberOfRows())
				if err != nil {
					return err
				}
				return dispatchList(cmd, c, controller.EditTaskList{Row: row, Title: args[1]})
			},
		},
		&cobra.Command{
			Use:     "rm <n>",
			Aliases: []string{"delete"},
			Short:   "Delete task list n and all of its tasks",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := lists(cmd.Context())
				if err != nil {
					return err
				}
				row, err := parseRow(args[0], c.NumberOfRows())
				if err != nil {
					return err
				}
				return dispatchList(cmd, c, controller.DeleteTaskList{Row: row})
			},
		},
		&cobra.Command{
			Use:   "done <n>",
			Short: "Mark every task of list n done",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := lists(cmd.Context())
				if err != nil {
					return err
				}
				row, err := parseRow(args[0], c.NumberOfRows())
				if err != nil {
					return err
				}
				return dispatchList(cmd, c, controller.CompleteTaskList{Row: row})
			},
		},
	)
	return cmd
}

func dispatchList(cmd *cobra.Command, c *controller.TaskListController, command controller.Command) error {
	change, err := c.Dispatch(cmd.Context(), command)
	if err != nil {
		return err
	}
	printChange(cmd.OutOrStdout(), change)
	return nil
}

func printLists(w io.Writer, c *controller.TaskListController) {
	if c.NumberOfRows() == 0 {
		fmt.Fprintln(w, "no task lists")
		return
	}
	for i := 0; i < c.NumberOfRows(); i++ {
		row, _ := c.Row(i)
		fmt.Fprintf(w, "%4d  %s  (%s)\n", i+1, row.Text, row.Secondary)
	}
}

// printChange reports what happened in the same row numbers ls prints.
func printChange(w io.Writer, change controller.RowChange) {
	switch change.Kind {
	case controller.ChangeNone:
		fmt.Fprintln(w, "nothing changed")
	case controller.ChangeInsert:
		fmt.Fprintf(w, "added %d\n", change.At.Row+1)
	default:
		fmt.Fprintln(w, "ok")
	}
}

// parseRow converts a 1-based row argument to an index below n.
func parseRow(arg string, n int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, userErrorf("invalid row number: %q", arg)
	}
	if v < 1 || v > n {
		return 0, userErrorf("row number out of range: %d", v)
	}
	return v - 1, nil
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
