package card

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mtewold/chathook/internal/domain"
)

const descriptionLimit = 150

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Formatter builds Cards from work-item snapshots. AppBaseURL is the only
// configuration it carries; everything else comes from the event.
type Formatter struct {
	AppBaseURL string
}

func NewFormatter(appBaseURL string) *Formatter {
	return &Formatter{AppBaseURL: strings.TrimRight(appBaseURL, "/")}
}

// BuildCard renders a work-item event into a Card. It never fails: missing
// optional fields on the snapshot just omit the corresponding fact.
func (f *Formatter) BuildCard(eventType domain.EventType, item domain.WorkItem, actor *domain.Actor) Card {
	c := Card{
		Title:   title(eventType, actor),
		Heading: item.Title,
		Style:   style(eventType),
		Facts: []Fact{
			{Title: "Project", Value: orDefault(item.ProjectName, "No Project")},
			{Title: "Status", Value: orDefault(item.StatusLabel, "No Label")},
		},
		Actions: []Action{
			{Title: "View Task", URL: fmt.Sprintf("%s/admin/tasks/%s", f.AppBaseURL, item.ID)},
		},
	}

	if item.Assignee != "" {
		c.Facts = append(c.Facts, Fact{Title: "Assigned to", Value: item.Assignee})
	}
	if item.DueDate != nil {
		c.Facts = append(c.Facts, Fact{Title: "Due Date", Value: item.DueDate.Format("Jan 02, 2006")})
	}
	if item.Priority != "" {
		c.Facts = append(c.Facts, Fact{Title: "Priority", Value: capitalize(item.Priority)})
	}
	if eventType == domain.EventCompleted && item.CompletedAt != nil {
		c.Facts = append(c.Facts, Fact{Title: "Completed at", Value: item.CompletedAt.Format("Jan 02, 2006 15:04")})
	}

	if actor != nil && actor.DisplayName != "" {
		c.UpdatedBy = "Updated by: " + actor.DisplayName
	}

	if item.Description != "" {
		c.Body = truncate(stripTags(item.Description), descriptionLimit)
	}

	return c
}

// BuildTestCard produces the card sent by operator-triggered webhook tests.
func (f *Formatter) BuildTestCard(projectName, channelLabel string, now time.Time) Card {
	return Card{
		Title:   "Integration Test",
		Heading: "Testing chat integration for project: " + orDefault(projectName, "Unknown"),
		Style:   StyleGood,
		Facts: []Fact{
			{Title: "Project", Value: orDefault(projectName, "Unknown")},
			{Title: "Channel", Value: orDefault(channelLabel, "Default")},
			{Title: "Test Time", Value: now.Format("2006-01-02 15:04:05")},
		},
	}
}

func title(eventType domain.EventType, actor *domain.Actor) string {
	name := "System"
	if actor != nil && actor.DisplayName != "" {
		name = actor.DisplayName
	}

	switch eventType {
	case domain.EventCreated:
		return "New Task Created by " + name
	case domain.EventUpdated:
		return "Task Updated by " + name
	case domain.EventAssigned:
		return "Task Assignment by " + name
	case domain.EventCompleted:
		return "Task Completed by " + name
	default:
		return "Task Notification by " + name
	}
}

func style(eventType domain.EventType) Style {
	switch eventType {
	case domain.EventCreated:
		return StyleEmphasis
	case domain.EventUpdated:
		return StyleWarning
	case domain.EventAssigned:
		return StyleAccent
	case domain.EventCompleted:
		return StyleGood
	default:
		return StyleDefault
	}
}

func stripTags(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

// truncate counts runes, not bytes; descriptions are user-authored
// and cutting inside a multibyte sequence would emit invalid UTF-8.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
