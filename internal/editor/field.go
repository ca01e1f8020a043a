package editor

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"
)

// AnnotationTTL is how long a rejected save stays annotated.
const AnnotationTTL = 2 * time.Second

const dateLayout = "2006-01-02"

var (
	// ErrInvalidInput is returned by Commit when the typed value does not
	// fit the cell type. The cell reverts as on Cancel.
	ErrInvalidInput = errors.New("invalid input")
	// ErrChoiceOnly is returned when free text is typed into an enum cell.
	ErrChoiceOnly = errors.New("value must be chosen from the options")
	// ErrNotEditing is returned by input methods outside an edit session.
	ErrNotEditing = errors.New("cell is not being edited")
)

// ValueType selects the input affordance of a cell.
type ValueType string

const (
	TypeText    ValueType = "text"
	TypeDate    ValueType = "date"
	TypeInteger ValueType = "integer"
	TypeEnum    ValueType = "enum"
)

// ParseValueType maps a data-type attribute to a ValueType; anything
// unknown is free text.
func ParseValueType(s string) ValueType {
	switch ValueType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeDate:
		return TypeDate
	case TypeInteger:
		return TypeInteger
	case TypeEnum, "select", "choice":
		return TypeEnum
	default:
		return TypeText
	}
}

// CellState is the edit lifecycle of a cell.
type CellState int

const (
	Display CellState = iota
	Editing
	Saving
	ErrorDisplay
)

func (s CellState) String() string {
	return [...]string{"display", "editing", "saving", "error"}[s]
}

// Session is the in-flight edit of one cell.
type Session struct {
	Field    string
	RecordID string
	Old      string
	New      string
	Pending  bool
}

// SaveRequest is the update a committed edit asks the caller to send.
type SaveRequest struct {
	RecordID string
	Field    string
	Value    string
}

// Ack is the backend's answer to a SaveRequest.
type Ack struct {
	Success bool
	Message string
}

// Annotation is the transient error shown after a rejected save.
type Annotation struct {
	Message string
	Seq     uint64
	Expires time.Time
}

// Cell is an inline editable summary field.
type Cell struct {
	Field    string
	RecordID string
	Type     ValueType
	Options  []string

	value      string
	state      CellState
	session    *Session
	choice     int
	annotation *Annotation
	seq        uint64

	now func() time.Time
}

// NewCell returns a cell in Display state showing value.
func NewCell(field, recordID string, typ ValueType, options []string, value string) *Cell {
	return &Cell{
		Field:    field,
		RecordID: recordID,
		Type:     typ,
		Options:  slices.Clone(options),
		value:    value,
		choice:   -1,
		now:      time.Now,
	}
}

func (c *Cell) State() CellState { return c.state }

// Value is the committed value of the cell.
func (c *Cell) Value() string { return c.value }

// Text is what the cell currently shows: the pending value while editing
// or saving, the committed value otherwise.
func (c *Cell) Text() string {
	if c.session != nil {
		return c.session.New
	}
	return c.value
}

// Session returns a copy of the active edit session.
func (c *Cell) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Choice is the index of the selected option of an enum cell being
// edited, -1 when none is selected.
func (c *Cell) Choice() int { return c.choice }

// Annotation returns the current error annotation, if any.
func (c *Cell) Annotation() (Annotation, bool) {
	if c.annotation == nil {
		return Annotation{}, false
	}
	return *c.annotation, true
}

// Activate starts an edit session seeded with the displayed value. It is
// a no-op while a session exists.
func (c *Cell) Activate() bool {
	if c.state == Editing || c.state == Saving {
		return false
	}
	c.annotation = nil
	c.state = Editing
	c.session = &Session{
		Field:    c.Field,
		RecordID: c.RecordID,
		Old:      c.value,
		New:      c.value,
	}
	c.choice = -1
	if c.Type == TypeEnum {
		c.choice = slices.Index(c.Options, c.value)
	}
	return true
}

// SetInput replaces the typed value.
func (c *Cell) SetInput(v string) error {
	if c.state != Editing {
		return ErrNotEditing
	}
	if c.Type == TypeEnum {
		return ErrChoiceOnly
	}
	c.session.New = v
	return nil
}

// Choose selects option i of an enum cell.
func (c *Cell) Choose(i int) error {
	if c.state != Editing {
		return ErrNotEditing
	}
	if c.Type != TypeEnum || i < 0 || i >= len(c.Options) {
		return ErrInvalidInput
	}
	c.choice = i
	c.session.New = c.Options[i]
	return nil
}

// Step nudges the value: dates by a day, integers by one, enums to the
// neighbouring option. Free text is left alone.
func (c *Cell) Step(delta int) error {
	if c.state != Editing {
		return ErrNotEditing
	}
	switch c.Type {
	case TypeDate:
		base := c.now()
		if d, err := time.Parse(dateLayout, strings.TrimSpace(c.session.New)); err == nil {
			base = d
		} else if strings.TrimSpace(c.session.New) != "" {
			return ErrInvalidInput
		} else {
			delta = 0
		}
		c.session.New = base.AddDate(0, 0, delta).Format(dateLayout)
	case TypeInteger:
		n := 0
		if s := strings.TrimSpace(c.session.New); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return ErrInvalidInput
			}
			n = v
		}
		c.session.New = strconv.Itoa(n + delta)
	case TypeEnum:
		if len(c.Options) == 0 {
			return ErrInvalidInput
		}
		next := c.choice + delta
		if c.choice < 0 {
			next = 0
			if delta < 0 {
				next = len(c.Options) - 1
			}
		}
		next = ((next % len(c.Options)) + len(c.Options)) % len(c.Options)
		return c.Choose(next)
	}
	return nil
}

// Commit ends typing. An unchanged value returns to Display with no
// request; a changed one moves to Saving and yields the update to send.
func (c *Cell) Commit() (SaveRequest, bool, error) {
	if c.state != Editing {
		return SaveRequest{}, false, nil
	}
	if !c.valid(c.session.New) {
		c.Cancel()
		return SaveRequest{}, false, ErrInvalidInput
	}
	if c.session.New == c.session.Old {
		c.session = nil
		c.state = Display
		return SaveRequest{}, false, nil
	}
	c.session.Pending = true
	c.state = Saving
	return SaveRequest{RecordID: c.RecordID, Field: c.Field, Value: c.session.New}, true, nil
}

// Cancel drops the session and restores the old value.
func (c *Cell) Cancel() {
	if c.state != Editing {
		return
	}
	c.value = c.session.Old
	c.session = nil
	c.state = Display
}

// Resolve applies the backend's answer to the pending save. A rejection
// restores the old value and returns the annotation to show.
func (c *Cell) Resolve(ack Ack) (Annotation, bool) {
	if c.state != Saving {
		return Annotation{}, false
	}
	s := c.session
	c.session = nil
	if ack.Success {
		c.value = s.New
		c.state = Display
		return Annotation{}, false
	}
	c.value = s.Old
	c.state = ErrorDisplay
	c.seq++
	c.annotation = &Annotation{
		Message: ack.Message,
		Seq:     c.seq,
		Expires: c.now().Add(AnnotationTTL),
	}
	return *c.annotation, true
}

// ExpireAnnotation hides the annotation numbered seq. Older annotations
// that were already replaced are ignored.
func (c *Cell) ExpireAnnotation(seq uint64) bool {
	if c.annotation == nil || c.annotation.Seq != seq {
		return false
	}
	c.annotation = nil
	if c.state == ErrorDisplay {
		c.state = Display
	}
	return true
}

func (c *Cell) valid(v string) bool {
	v = strings.TrimSpace(v)
	switch c.Type {
	case TypeDate:
		if v == "" {
			return true
		}
		_, err := time.Parse(dateLayout, v)
		return err == nil
	case TypeInteger:
		if v == "" {
			return true
		}
		_, err := strconv.Atoi(v)
		return err == nil
	case TypeEnum:
		return v == c.value || slices.Contains(c.Options, v)
	default:
		return true
	}
}
