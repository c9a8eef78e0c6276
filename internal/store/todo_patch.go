package store

import (
	"fmt"
	"time"
)

// TodoField names an optional todo attribute that a patch may clear. Names
// match the JSON field names of Todo.
type TodoField string

const (
	TodoDescription     TodoField = "description"
	TodoBasePriority    TodoField = "basePriority"
	TodoUrgency         TodoField = "urgency"
	TodoRequestDate     TodoField = "requestDate"
	TodoDueDate         TodoField = "dueDate"
	TodoDeadline        TodoField = "deadline"
	TodoSourceField     TodoField = "source"
	TodoSourceID        TodoField = "sourceId"
	TodoSourceURL       TodoField = "sourceUrl"
	TodoSourceURLs      TodoField = "sourceUrls"
	TodoSnoozedUntil    TodoField = "snoozedUntil"
	TodoStaleNotifiedAt TodoField = "staleNotifiedAt"
	TodoFingerprint     TodoField = "fingerprint"
	TodoTags            TodoField = "tags"
	TodoCompletedAt     TodoField = "completedAt"
	TodoArchivedAt      TodoField = "archivedAt"
	TodoSummaryID       TodoField = "summaryId"
	TodoSummaryPeriod   TodoField = "summaryPeriod"
	TodoSummaryItemID   TodoField = "summaryItemId"
	TodoCategoryField   TodoField = "category"
)

// TodoPatch is a partial update. A nil field leaves the stored value as it
// is; it never clears it. To clear an optional field, name it in Clear. JSON
// names match Todo, so tool arguments decode straight into a patch.
type TodoPatch struct {
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	Priority        *int          `json:"priority,omitempty"`
	BasePriority    *int          `json:"basePriority,omitempty"`
	Urgency         *int          `json:"urgency,omitempty"`
	RequestDate     *string       `json:"requestDate,omitempty"`
	DueDate         *string       `json:"dueDate,omitempty"`
	Deadline        *string       `json:"deadline,omitempty"`
	Source          *TodoSource   `json:"source,omitempty"`
	SourceID        *string       `json:"sourceId,omitempty"`
	SourceURL       *string       `json:"sourceUrl,omitempty"`
	SourceURLs      *[]string     `json:"sourceUrls,omitempty"`
	Status          *TodoStatus   `json:"status,omitempty"`
	SnoozedUntil    *time.Time    `json:"snoozedUntil,omitempty"`
	StaleNotifiedAt *time.Time    `json:"staleNotifiedAt,omitempty"`
	Fingerprint     *string       `json:"fingerprint,omitempty"`
	Tags            *[]string     `json:"tags,omitempty"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
	ArchivedAt      *time.Time    `json:"archivedAt,omitempty"`
	SummaryID       *string       `json:"summaryId,omitempty"`
	SummaryPeriod   *string       `json:"summaryPeriod,omitempty"`
	SummaryItemID   *string       `json:"summaryItemId,omitempty"`
	Category        *TodoCategory `json:"category,omitempty"`

	Clear []TodoField `json:"clear,omitempty"`
}

func (p TodoPatch) sets(f TodoField) bool {
	switch f {
	case TodoDescription:
		return p.Description != nil
	case TodoBasePriority:
		return p.BasePriority != nil
	case TodoUrgency:
		return p.Urgency != nil
	case TodoRequestDate:
		return p.RequestDate != nil
	case TodoDueDate:
		return p.DueDate != nil
	case TodoDeadline:
		return p.Deadline != nil
	case TodoSourceField:
		return p.Source != nil
	case TodoSourceID:
		return p.SourceID != nil
	case TodoSourceURL:
		return p.SourceURL != nil
	case TodoSourceURLs:
		return p.SourceURLs != nil
	case TodoSnoozedUntil:
		return p.SnoozedUntil != nil
	case TodoStaleNotifiedAt:
		return p.StaleNotifiedAt != nil
	case TodoFingerprint:
		return p.Fingerprint != nil
	case TodoTags:
		return p.Tags != nil
	case TodoCompletedAt:
		return p.CompletedAt != nil
	case TodoArchivedAt:
		return p.ArchivedAt != nil
	case TodoSummaryID:
		return p.SummaryID != nil
	case TodoSummaryPeriod:
		return p.SummaryPeriod != nil
	case TodoSummaryItemID:
		return p.SummaryItemID != nil
	case TodoCategoryField:
		return p.Category != nil
	}
	return false
}

// validate rejects clears of required fields and fields that are also set.
func (p TodoPatch) validate() error {
	for _, f := range p.Clear {
		if !f.clearable() {
			return fmt.Errorf("%w: %s", ErrFieldNotClearable, f)
		}
		if p.sets(f) {
			return fmt.Errorf("%w: %s", ErrPatchConflict, f)
		}
	}
	return nil
}

func (f TodoField) clearable() bool {
	switch f {
	case TodoDescription, TodoBasePriority, TodoUrgency, TodoRequestDate,
		TodoDueDate, TodoDeadline, TodoSourceField, TodoSourceID, TodoSourceURL,
		TodoSourceURLs, TodoSnoozedUntil, TodoStaleNotifiedAt, TodoFingerprint,
		TodoTags, TodoCompletedAt, TodoArchivedAt, TodoSummaryID,
		TodoSummaryPeriod, TodoSummaryItemID, TodoCategoryField:
		return true
	}
	return false
}

// apply writes the patch onto t. Call validate first.
func (p TodoPatch) apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.BasePriority != nil {
		t.BasePriority = *p.BasePriority
	}
	if p.Urgency != nil {
		t.Urgency = *p.Urgency
	}
	if p.RequestDate != nil {
		t.RequestDate = p.RequestDate
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Deadline != nil {
		t.Deadline = p.Deadline
	}
	if p.Source != nil {
		t.Source = p.Source
	}
	if p.SourceID != nil {
		t.SourceID = p.SourceID
	}
	if p.SourceURL != nil {
		t.SourceURL = p.SourceURL
	}
	if p.SourceURLs != nil {
		t.SourceURLs = *p.SourceURLs
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.SnoozedUntil != nil {
		t.SnoozedUntil = p.SnoozedUntil
	}
	if p.StaleNotifiedAt != nil {
		t.StaleNotifiedAt = p.StaleNotifiedAt
	}
	if p.Fingerprint != nil {
		t.Fingerprint = p.Fingerprint
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.CompletedAt != nil {
		t.CompletedAt = p.CompletedAt
	}
	if p.ArchivedAt != nil {
		t.ArchivedAt = p.ArchivedAt
	}
	if p.SummaryID != nil {
		t.SummaryID = p.SummaryID
	}
	if p.SummaryPeriod != nil {
		t.SummaryPeriod = p.SummaryPeriod
	}
	if p.SummaryItemID != nil {
		t.SummaryItemID = p.SummaryItemID
	}
	if p.Category != nil {
		t.Category = p.Category
	}

	for _, f := range p.Clear {
		switch f {
		case TodoDescription:
			t.Description = nil
		case TodoBasePriority:
			t.BasePriority = 0
		case TodoUrgency:
			t.Urgency = 0
		case TodoRequestDate:
			t.RequestDate = nil
		case TodoDueDate:
			t.DueDate = nil
		case TodoDeadline:
			t.Deadline = nil
		case TodoSourceField:
			t.Source = nil
		case TodoSourceID:
			t.SourceID = nil
		case TodoSourceURL:
			t.SourceURL = nil
		case TodoSourceURLs:
			t.SourceURLs = nil
		case TodoSnoozedUntil:
			t.SnoozedUntil = nil
		case TodoStaleNotifiedAt:
			t.StaleNotifiedAt = nil
		case TodoFingerprint:
			t.Fingerprint = nil
		case TodoTags:
			t.Tags = nil
		case TodoCompletedAt:
			t.CompletedAt = nil
		case TodoArchivedAt:
			t.ArchivedAt = nil
		case TodoSummaryID:
			t.SummaryID = nil
		case TodoSummaryPeriod:
			t.SummaryPeriod = nil
		case TodoSummaryItemID:
			t.SummaryItemID = nil
		case TodoCategoryField:
			t.Category = nil
		}
	}
}
