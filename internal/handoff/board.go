// Package handoff keeps the pending items an operator flags for the next
// shift. Items live in memory for the duration of a shift session only and
// are captured through the report before the session ends.
package handoff

import (
	"fmt"
	"strings"
	"sync"

	"example.com/shiftlog/internal/domain"
)

// Item is one flagged activity: the title it refers to plus the mandatory
// note for the next shift's operator.
type Item struct {
	Title string `json:"title"`
	Note  string `json:"note"`
}

// List is an insertion-ordered set of pending items with unique titles.
// Re-adding an existing title updates its note in place, never appends.
type List struct {
	items []Item
}

// Add appends or updates an item. The note is required.
func (l *List) Add(title, note string) error {
	title = strings.TrimSpace(title)
	note = strings.TrimSpace(note)
	if title == "" {
		return fmt.Errorf("%w: pending title is required", domain.ErrValidation)
	}
	if note == "" {
		return fmt.Errorf("%w: pending note is required", domain.ErrValidation)
	}

	for i, item := range l.items {
		if item.Title == title {
			l.items[i].Note = note
			return nil
		}
	}
	l.items = append(l.items, Item{Title: title, Note: note})
	return nil
}

// Remove un-flags an item by title, reporting whether it existed.
func (l *List) Remove(title string) bool {
	for i, item := range l.items {
		if item.Title == title {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the pending items in insertion order.
func (l *List) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Len reports the number of pending items.
func (l *List) Len() int {
	return len(l.items)
}

// Board tracks one pending list per operator session.
type Board struct {
	mu    sync.Mutex
	lists map[string]*List
}

// NewBoard constructs an empty Board.
func NewBoard() *Board {
	return &Board{lists: make(map[string]*List)}
}

// Add flags an item on the operator's list.
func (b *Board) Add(operatorID, title, note string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, ok := b.lists[operatorID]
	if !ok {
		list = &List{}
		b.lists[operatorID] = list
	}
	return list.Add(title, note)
}

// Remove un-flags an item on the operator's list.
func (b *Board) Remove(operatorID, title string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, ok := b.lists[operatorID]
	if !ok {
		return false
	}
	return list.Remove(title)
}

// Items snapshots the operator's pending list in insertion order.
func (b *Board) Items(operatorID string) []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, ok := b.lists[operatorID]
	if !ok {
		return nil
	}
	return list.Items()
}

// Clear drops the operator's list when the session ends.
func (b *Board) Clear(operatorID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lists, operatorID)
}
