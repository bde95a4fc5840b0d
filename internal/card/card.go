// Package card turns work-item events into channel-agnostic notification
// documents. Formatting is pure: no store reads, no ambient session state,
// the actor comes in as a parameter.
package card

// Style selects the accent the receiver renders for the title block.
type Style string

const (
	StyleDefault  Style = "default"
	StyleEmphasis Style = "emphasis"
	StyleWarning  Style = "warning"
	StyleAccent   Style = "accent"
	StyleGood     Style = "good"
)

type Fact struct {
	Title string
	Value string
}

type Action struct {
	Title string
	URL   string
}

// Card is the transient notification document. It has no identity or
// lifecycle; it exists only between the event and the envelope that wraps it.
type Card struct {
	Title     string
	Heading   string
	Style     Style
	Facts     []Fact
	UpdatedBy string
	Body      string
	Actions   []Action
}
