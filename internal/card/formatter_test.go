package card

import (
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mtewold/chathook/internal/domain"
)

func sampleItem() domain.WorkItem {
	return domain.WorkItem{
		ID:          "task-1",
		Title:       "Fix login flow",
		ProjectID:   "proj-1",
		ProjectName: "Website",
		StatusLabel: "In Progress",
	}
}

func TestBuildCardBaseline(t *testing.T) {
	f := NewFormatter("https://app.example.com")
	actor := &domain.Actor{ID: "u1", DisplayName: "Dana"}

	c := f.BuildCard(domain.EventCreated, sampleItem(), actor)

	if c.Title != "New Task Created by Dana" {
		t.Errorf("unexpected title: %q", c.Title)
	}
	if c.Heading != "Fix login flow" {
		t.Errorf("unexpected heading: %q", c.Heading)
	}
	if c.Style != StyleEmphasis {
		t.Errorf("expected emphasis style, got %q", c.Style)
	}

	// Snapshot without optional fields: exactly the two baseline facts.
	if len(c.Facts) != 2 {
		t.Fatalf("expected 2 facts, got %d: %+v", len(c.Facts), c.Facts)
	}
	if c.Facts[0].Title != "Project" || c.Facts[0].Value != "Website" {
		t.Errorf("unexpected project fact: %+v", c.Facts[0])
	}
	if c.Facts[1].Title != "Status" || c.Facts[1].Value != "In Progress" {
		t.Errorf("unexpected status fact: %+v", c.Facts[1])
	}

	if c.Body != "" {
		t.Errorf("expected no body block, got %q", c.Body)
	}

	if len(c.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(c.Actions))
	}
	if c.Actions[0].Title != "View Task" {
		t.Errorf("unexpected action title: %q", c.Actions[0].Title)
	}
	if c.Actions[0].URL != "https://app.example.com/admin/tasks/task-1" {
		t.Errorf("unexpected action URL: %q", c.Actions[0].URL)
	}
}

func TestBuildCardOptionalFacts(t *testing.T) {
	f := NewFormatter("https://app.example.com")

	due := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	item := sampleItem()
	item.Assignee = "Riley"
	item.DueDate = &due
	item.Priority = "high"

	c := f.BuildCard(domain.EventUpdated, item, nil)

	want := []Fact{
		{Title: "Project", Value: "Website"},
		{Title: "Status", Value: "In Progress"},
		{Title: "Assigned to", Value: "Riley"},
		{Title: "Due Date", Value: "Mar 05, 2026"},
		{Title: "Priority", Value: "High"},
	}
	if !reflect.DeepEqual(c.Facts, want) {
		t.Errorf("facts mismatch:\ngot  %+v\nwant %+v", c.Facts, want)
	}
}

func TestBuildCardActorFallback(t *testing.T) {
	f := NewFormatter("https://app.example.com")

	c := f.BuildCard(domain.EventCompleted, sampleItem(), nil)
	if c.Title != "Task Completed by System" {
		t.Errorf("expected System fallback in title, got %q", c.Title)
	}
	if c.UpdatedBy != "" {
		t.Errorf("expected no updated-by line without actor, got %q", c.UpdatedBy)
	}
}

func TestBuildCardMissingNames(t *testing.T) {
	f := NewFormatter("https://app.example.com")

	item := sampleItem()
	item.ProjectName = ""
	item.StatusLabel = ""

	c := f.BuildCard(domain.EventCreated, item, nil)
	if c.Facts[0].Value != "No Project" {
		t.Errorf("expected No Project fallback, got %q", c.Facts[0].Value)
	}
	if c.Facts[1].Value != "No Label" {
		t.Errorf("expected No Label fallback, got %q", c.Facts[1].Value)
	}
}

func TestBuildCardDescription(t *testing.T) {
	f := NewFormatter("https://app.example.com")

	item := sampleItem()
	item.Description = "<p>Some <b>important</b> details</p>"

	c := f.BuildCard(domain.EventUpdated, item, nil)
	if c.Body != "Some important details" {
		t.Errorf("expected markup stripped, got %q", c.Body)
	}

	item.Description = strings.Repeat("x", 200)
	c = f.BuildCard(domain.EventUpdated, item, nil)
	if len(c.Body) != 153 || !strings.HasSuffix(c.Body, "...") {
		t.Errorf("expected 150 chars plus ellipsis, got %d chars", len(c.Body))
	}

	// Truncation must cut on rune boundaries; multibyte text would
	// otherwise end in a broken sequence.
	item.Description = strings.Repeat("é", 200)
	c = f.BuildCard(domain.EventUpdated, item, nil)
	if !utf8.ValidString(c.Body) {
		t.Error("truncated body is not valid UTF-8")
	}
	if got := utf8.RuneCountInString(c.Body); got != 153 || !strings.HasSuffix(c.Body, "...") {
		t.Errorf("expected 150 runes plus ellipsis, got %d runes", got)
	}
}

// BuildCard is a pure function: the same inputs must always produce a
// structurally identical card.
func TestBuildCardDeterministic(t *testing.T) {
	f := NewFormatter("https://app.example.com")

	due := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	item := sampleItem()
	item.DueDate = &due
	item.Description = "details"
	actor := &domain.Actor{ID: "u1", DisplayName: "Dana"}

	first := f.BuildCard(domain.EventAssigned, item, actor)
	second := f.BuildCard(domain.EventAssigned, item, actor)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("cards differ across identical calls:\n%+v\n%+v", first, second)
	}
}

func TestBuildTestCard(t *testing.T) {
	f := NewFormatter("https://app.example.com")
	now := time.Date(2026, time.February, 1, 9, 30, 0, 0, time.UTC)

	c := f.BuildTestCard("Website", "general", now)

	if c.Style != StyleGood {
		t.Errorf("expected good style, got %q", c.Style)
	}
	if len(c.Facts) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(c.Facts))
	}
	if c.Facts[2].Value != "2026-02-01 09:30:00" {
		t.Errorf("unexpected test time fact: %q", c.Facts[2].Value)
	}
	if len(c.Actions) != 0 {
		t.Errorf("test card should carry no actions, got %d", len(c.Actions))
	}
}
