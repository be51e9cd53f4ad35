package model

import "strings"

// EventKind is the type of an accessibility event.
type EventKind string

const (
	EventWindowStateChanged EventKind = "window_state_changed"
	EventViewClicked        EventKind = "view_clicked"
)

// UIEvent is a foreground UI event reported by the platform.
type UIEvent struct {
	Kind    EventKind
	Package string
	Text    []string
	Root    *Node
}

// Node is a read-only view of an accessibility node.
type Node struct {
	Text               string
	ContentDescription string
	Children           []*Node
}

// FindByText returns every node in the tree whose text or content
// description contains label, ignoring case.
func (n *Node) FindByText(label string) []*Node {
	if n == nil || label == "" {
		return nil
	}

	needle := strings.ToLower(label)
	var found []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur == nil {
			return
		}
		if strings.Contains(strings.ToLower(cur.Text), needle) ||
			strings.Contains(strings.ToLower(cur.ContentDescription), needle) {
			found = append(found, cur)
		}
		for _, child := range cur.Children {
			walk(child)
		}
	}
	walk(n)

	return found
}
