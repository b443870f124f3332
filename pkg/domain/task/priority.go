package task

import "fmt"

// Priority is the urgency assigned to a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// priorityOrder defines the ordering of priorities (higher order = higher priority)
var priorityOrder = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

// AllPriorities returns all valid task priorities.
func AllPriorities() []Priority {
	return []Priority{
		PriorityLow,
		PriorityMedium,
		PriorityHigh,
		PriorityUrgent,
	}
}

// IsValid returns true if the priority is a valid task priority.
func (p Priority) IsValid() bool {
	_, ok := priorityOrder[p]
	return ok
}

func (p Priority) String() string {
	return string(p)
}

// Order returns the numeric order of the priority (higher = more important).
func (p Priority) Order() int {
	return priorityOrder[p]
}

// DisplayName returns a human-readable display name for the priority.
func (p Priority) DisplayName() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return string(p)
	}
}

// ParsePriority parses user input into a Priority.
func ParsePriority(s string) (Priority, error) {
	priority := Priority(normalize(s))
	if !priority.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidPriority, s)
	}
	return priority, nil
}
