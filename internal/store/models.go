package store

import "time"

// TodoStatus is the lifecycle state of a todo.
type TodoStatus string

const (
	StatusPending    TodoStatus = "pending"
	StatusInProgress TodoStatus = "in_progress"
	StatusCompleted  TodoStatus = "completed"
	StatusArchived   TodoStatus = "archived"
)

func (s TodoStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// IsOpen reports whether the todo still needs work.
func (s TodoStatus) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

// TodoSource is the system a todo was imported from.
type TodoSource string

const (
	SourceLinear TodoSource = "linear"
	SourceGitHub TodoSource = "github"
	SourceEmail  TodoSource = "email"
	SourceSlack  TodoSource = "slack"
	SourceManual TodoSource = "manual"
	SourceNotion TodoSource = "notion"
)

func (s TodoSource) Valid() bool {
	switch s {
	case SourceLinear, SourceGitHub, SourceEmail, SourceSlack, SourceManual, SourceNotion:
		return true
	}
	return false
}

type TodoCategory string

const (
	CategoryEngineering   TodoCategory = "engineering"
	CategoryManagement    TodoCategory = "management"
	CategoryCommunication TodoCategory = "communication"
	CategoryAdmin         TodoCategory = "admin"
)

func (c TodoCategory) Valid() bool {
	switch c {
	case CategoryEngineering, CategoryManagement, CategoryCommunication, CategoryAdmin:
		return true
	}
	return false
}

// Channel is where a communication log entry came from.
type Channel string

const (
	ChannelEmail  Channel = "email"
	ChannelSlack  Channel = "slack"
	ChannelGitHub Channel = "github"
	ChannelLinear Channel = "linear"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSlack, ChannelGitHub, ChannelLinear:
		return true
	}
	return false
}

// Fidelity is the time span a summary rolls up.
type Fidelity string

const (
	FidelityDaily     Fidelity = "daily"
	FidelityWeekly    Fidelity = "weekly"
	FidelityMonthly   Fidelity = "monthly"
	FidelityQuarterly Fidelity = "quarterly"
	FidelityHalfYear  Fidelity = "h1-h2"
	FidelityYearly    Fidelity = "yearly"
)

// Fidelities lists every fidelity from finest to coarsest.
var Fidelities = []Fidelity{
	FidelityDaily, FidelityWeekly, FidelityMonthly, FidelityQuarterly, FidelityHalfYear, FidelityYearly,
}

func (f Fidelity) Valid() bool {
	for _, v := range Fidelities {
		if f == v {
			return true
		}
	}
	return false
}

// ValidScore reports whether v is a 1-5 priority, urgency or importance.
func ValidScore(v int) bool {
	return v >= MinPriority && v <= MaxPriority
}

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultUrgency  = 3
	DefaultPriority = 3
)

// Todo is a unit of tracked work. Optional attributes are nil when unset.
type Todo struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     *string       `json:"description,omitempty"`
	Priority        int           `json:"priority"`
	BasePriority    int           `json:"basePriority"`
	Urgency         int           `json:"urgency"`
	RequestDate     *string       `json:"requestDate,omitempty"`
	DueDate         *string       `json:"dueDate,omitempty"`
	Deadline        *string       `json:"deadline,omitempty"`
	Source          *TodoSource   `json:"source,omitempty"`
	SourceID        *string       `json:"sourceId,omitempty"`
	SourceURL       *string       `json:"sourceUrl,omitempty"`
	SourceURLs      []string      `json:"sourceUrls"`
	Status          TodoStatus    `json:"status"`
	SnoozedUntil    *time.Time    `json:"snoozedUntil,omitempty"`
	StaleNotifiedAt *time.Time    `json:"staleNotifiedAt,omitempty"`
	Fingerprint     *string       `json:"fingerprint,omitempty"`
	Tags            []string      `json:"tags"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
	ArchivedAt      *time.Time    `json:"archivedAt,omitempty"`
	SummaryID       *string       `json:"summaryId,omitempty"`
	SummaryPeriod   *string       `json:"summaryPeriod,omitempty"`
	SummaryItemID   *string       `json:"summaryItemId,omitempty"`
	Category        *TodoCategory `json:"category,omitempty"`
}

// Snoozed reports whether the todo is hidden until a time after now.
func (t Todo) Snoozed(now time.Time) bool {
	return t.SnoozedUntil != nil && t.SnoozedUntil.After(now)
}

type Meeting struct {
	ID              string    `json:"id"`
	CalendarEventID *string   `json:"calendarEventId,omitempty"`
	Title           string    `json:"title"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Attendees       []string  `json:"attendees"`
	TalkingPoints   []string  `json:"talkingPoints"`
	ContextNotes    *string   `json:"contextNotes,omitempty"`
	TranscriptPath  *string   `json:"transcriptPath,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CommunicationLog struct {
	ID             string    `json:"id"`
	Channel        Channel   `json:"channel"`
	Summary        string    `json:"summary"`
	Importance     int       `json:"importance"`
	ActionRequired bool      `json:"actionRequired"`
	LoggedAt       time.Time `json:"loggedAt"`
}

// Briefing is the stored snapshot of one day's digest. There is at most one per Date.
type Briefing struct {
	ID        string       `json:"id"`
	Date      string       `json:"date"`
	FilePath  string       `json:"filePath"`
	Data      BriefingData `json:"data"`
	CreatedAt time.Time    `json:"createdAt"`
}

// BriefingData is the structured payload kept in briefings.data.
type BriefingData struct {
	Calendar       BriefingCalendar       `json:"calendar"`
	Communications BriefingCommunications `json:"communications"`
	Todos          []BriefingTodo         `json:"todos"`
	Incidents      BriefingIncidents      `json:"incidents"`
	TeamUpdates    []string               `json:"teamUpdates"`
}

type BriefingCalendar struct {
	MeetingCount int               `json:"meetingCount"`
	FocusMinutes int               `json:"focusMinutes"`
	FirstMeeting string            `json:"firstMeeting,omitempty"`
	Meetings     []BriefingMeeting `json:"meetings"`
}

type BriefingMeeting struct {
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type BriefingCommunications struct {
	Email          int `json:"email"`
	Slack          int `json:"slack"`
	GitHub         int `json:"github"`
	Linear         int `json:"linear"`
	ActionRequired int `json:"actionRequired"`
}

type BriefingTodo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
	DueDate  string `json:"dueDate,omitempty"`
}

type BriefingIncidents struct {
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
	Critical int `json:"critical"`
}

// Summary is a rolled-up report for one period at a given fidelity.
type Summary struct {
	ID              string        `json:"id"`
	Fidelity        Fidelity      `json:"fidelity"`
	Period          string        `json:"period"`
	StartDate       string        `json:"startDate"`
	EndDate         string        `json:"endDate"`
	FilePath        string        `json:"filePath"`
	SourceSummaries []string      `json:"sourceSummaries"`
	Stats           *SummaryStats `json:"stats,omitempty"`
	GeneratedAt     time.Time     `json:"generatedAt"`
}

// SummaryStats holds the counters a summary was generated from.
type SummaryStats struct {
	TodosCreated     int `json:"todosCreated"`
	TodosCompleted   int `json:"todosCompleted"`
	MeetingsHeld     int `json:"meetingsHeld"`
	EmailsProcessed  int `json:"emailsProcessed"`
	SlackMessages    int `json:"slackMessages"`
	PullRequests     int `json:"pullRequests"`
	IncidentsHandled int `json:"incidentsHandled"`
}

type SummaryTodoLink struct {
	SummaryID        string    `json:"summaryId"`
	TodoID           string    `json:"todoId"`
	CreatedBySummary bool      `json:"createdBySummary"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SummaryProgress counts todos tagged with one summary period by status.
type SummaryProgress struct {
	Created    int `json:"created"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

type Preference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderDirection is "asc" or "desc"; anything else sorts ascending.
type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

func (d OrderDirection) sql() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// TodoFilter narrows ListTodos. Zero values place no constraint.
type TodoFilter struct {
	Status         []TodoStatus
	Source         []TodoSource
	SummaryPeriod  *string
	Category       *TodoCategory
	CompletedAfter *time.Time
	ExcludeSnoozed bool
	OnlySnoozed    bool
	OrderBy        string
	OrderDirection OrderDirection
	Limit          int
}

type MeetingFilter struct {
	StartAfter  *time.Time
	StartBefore *time.Time
	Limit       int
}

type CommunicationFilter struct {
	Channel        *Channel
	ActionRequired *bool
	Limit          int
}

type SummaryFilter struct {
	Fidelity        *Fidelity
	StartDateAfter  *string
	StartDateBefore *string
	Limit           int
}
