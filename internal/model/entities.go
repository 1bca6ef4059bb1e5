package model

import (
	"time"

	"github.com/goccy/go-json"
)

// User is the account returned by login and register.
type User struct {
	ID       string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Site     string `json:"site,omitempty"`
}

// Report is a generated PDF report.
type Report struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

// Alert is a machine or KPI notification raised by the backend.
type Alert struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Severity    string    `json:"severity"`
	MachineID   string    `json:"machine,omitempty"`
	KPI         string    `json:"kpi,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserSettings are opaque per-user preferences stored server side.
type UserSettings map[string]any

// ChatSuggestion is a dashboard layout proposed by the assistant.
type ChatSuggestion struct {
	Name  string           `json:"name"`
	Views []DashboardEntry `json:"views"`
}

// ChatReply is one assistant answer.
type ChatReply struct {
	Text       string          `json:"textResponse"`
	Label      string          `json:"label,omitempty"`
	Suggestion *ChatSuggestion `json:"dashboard,omitempty"`
}

type chatReplyWire struct {
	Text      *string         `json:"textResponse" validate:"required"`
	Label     string          `json:"label"`
	Dashboard json.RawMessage `json:"dashboard"`
}

type chatSuggestionWire struct {
	Name  string            `json:"name"`
	Views []json.RawMessage `json:"views"`
}

// DecodeChatReply decodes an assistant reply. Suggested views go through the
// lenient entry decoder.
func DecodeChatReply(data []byte) (ChatReply, error) {
	var w chatReplyWire
	if err := DecodeInto("ChatReply", data, &w); err != nil {
		return ChatReply{}, err
	}
	reply := ChatReply{Text: *w.Text, Label: w.Label}
	if len(w.Dashboard) == 0 || string(w.Dashboard) == "null" {
		return reply, nil
	}

	var sw chatSuggestionWire
	if err := json.Unmarshal(w.Dashboard, &sw); err != nil {
		return ChatReply{}, jsonError("ChatSuggestion", err)
	}
	s := &ChatSuggestion{Name: sw.Name, Views: make([]DashboardEntry, 0, len(sw.Views))}
	for _, raw := range sw.Views {
		e, err := DecodeEntryLenient(raw)
		if err != nil {
			return ChatReply{}, err
		}
		s.Views = append(s.Views, e)
	}
	reply.Suggestion = s
	return reply, nil
}
