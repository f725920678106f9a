package tui

import (
	"strconv"
	"strings"

	"github.com/stefanpenner/pomo/pkg/store"
)

// ListItem is one row of the task panel: a task or a status section header.
type ListItem struct {
	ID              string // "task-<id>" or "__header_<status>"
	Name            string
	Task            *store.Task
	IsSectionHeader bool
	Status          store.Status
}

// Section order: what is being worked on first, finished work last.
var sectionOrder = []store.Status{store.StatusInProgress, store.StatusTodo, store.StatusCompleted}

func sectionName(s store.Status) string {
	switch s {
	case store.StatusInProgress:
		return "IN PROGRESS"
	case store.StatusCompleted:
		return "COMPLETED"
	default:
		return "TODO"
	}
}

func itemID(id int) string {
	return "task-" + strconv.Itoa(id)
}

// FlattenWithStatusGroups groups tasks by status under section headers,
// keeping the store's order within each group. Empty groups are omitted.
func FlattenWithStatusGroups(tasks []store.Task) []ListItem {
	groups := make(map[store.Status][]*store.Task, len(sectionOrder))
	for i := range tasks {
		t := &tasks[i]
		status := t.Status
		if !status.Valid() {
			status = store.StatusTodo
		}
		groups[status] = append(groups[status], t)
	}

	var result []ListItem
	for _, status := range sectionOrder {
		group := groups[status]
		if len(group) == 0 {
			continue
		}
		result = append(result, ListItem{
			ID:              "__header_" + string(status),
			Name:            sectionName(status),
			IsSectionHeader: true,
			Status:          status,
		})
		for _, t := range group {
			result = append(result, ListItem{
				ID:     itemID(t.ID),
				Name:   displayName(t),
				Task:   t,
				Status: status,
			})
		}
	}
	return result
}

func displayName(t *store.Task) string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return "#" + strconv.Itoa(t.ID)
}

// nextSelectable moves from cursor by delta (±1), skipping section headers.
// The cursor stays put when there is nothing selectable in that direction.
func nextSelectable(items []ListItem, cursor, delta int) int {
	for i := cursor + delta; i >= 0 && i < len(items); i += delta {
		if !items[i].IsSectionHeader {
			return i
		}
	}
	return cursor
}

// firstSelectable returns the index of the first task row, or 0.
func firstSelectable(items []ListItem) int {
	for i, item := range items {
		if !item.IsSectionHeader {
			return i
		}
	}
	return 0
}

// indexOf returns the row for id, or -1.
func indexOf(items []ListItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
