// Package controller holds the presentation state behind the task-list and task
// screens. Each user gesture is a Command; dispatching one writes through the
// storage service and returns the RowChange a view needs to apply.
package controller

import (
	"fmt"
	"strings"
)

type IndexPath struct {
	Section int
	Row     int
}

func (p IndexPath) String() string {
	return fmt.Sprintf("%d:%d", p.Section, p.Row)
}

type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeInsert
	ChangeDelete
	ChangeReloadRow
	ChangeMove
	ChangeReloadAll
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeReloadRow:
		return "reload-row"
	case ChangeMove:
		return "move"
	case ChangeReloadAll:
		return "reload-all"
	default:
		return "none"
	}
}

// RowChange describes how a view should update after a command. To is only
// set for moves.
type RowChange struct {
	Kind ChangeKind
	At   IndexPath
	To   IndexPath
}

// Row is what a list cell shows.
type Row struct {
	Text      string
	Secondary string
}

// Action is a per-row action label, listed in display order by Actions.
type Action string

const (
	ActionDelete Action = "Delete"
	ActionEdit   Action = "Edit"
	ActionDone   Action = "Done"
	ActionUndone Action = "Undone"
)

// Prompt describes an input collector dialog. Fields carry their pre-filled
// values; a cancelled prompt dispatches nothing.
type Prompt struct {
	Title   string
	Message string
	Confirm string
	Cancel  string
	Fields  []Field
}

type Field struct {
	Placeholder string
	Value       string
}

// Values returns the field values in order.
func (p Prompt) Values() []string {
	out := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		out[i] = f.Value
	}
	return out
}

type Command interface {
	command()
}

type (
	CreateTaskList struct {
		Title string
	}
	EditTaskList struct {
		Row   int
		Title string
	}
	DeleteTaskList struct {
		Row int
	}
	CompleteTaskList struct {
		Row int
	}
	SetSort struct {
		Mode SortMode
	}

	CreateTask struct {
		Title string
		Note  string
	}
	EditTask struct {
		At    IndexPath
		Title string
		Note  string
	}
	DeleteTask struct {
		At IndexPath
	}
	ToggleTask struct {
		At IndexPath
	}
)

func (CreateTaskList) command()   {}
func (EditTaskList) command()     {}
func (DeleteTaskList) command()   {}
func (CompleteTaskList) command() {}
func (SetSort) command()          {}
func (CreateTask) command()       {}
func (EditTask) command()         {}
func (DeleteTask) command()       {}
func (ToggleTask) command()       {}

// DisplayTitle is the text shown for a title; blank titles are rendered as a
// placeholder.
func DisplayTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
