// Package protocol defines the wire format spoken with the browser agent and
// decodes inbound frames into typed events.
package protocol

import "encoding/json"

// EventType tags an inbound Agent Event.
type EventType string

const (
	EventStatus  EventType = "status"
	EventAction  EventType = "action"
	EventResult  EventType = "result"
	EventError   EventType = "error"
	EventUnknown EventType = "unknown"
)

// Event is one decoded inbound frame. Every field except Type is optional;
// missing fields are left empty.
type Event struct {
	Type     EventType
	Message  string
	Action   string
	Data     json.RawMessage // raw "data" value, string or structured
	TaskType string
}

// TaskType is the coarse classification attached to an outbound task.
type TaskType string

const (
	TaskSearch   TaskType = "search"
	TaskFormFill TaskType = "form_fill"
)

// TaskRequest is the outbound frame sent for each submitted task.
type TaskRequest struct {
	Task     string   `json:"task"`
	TaskType TaskType `json:"task_type,omitempty"`
}

// Encode serializes the request as a text frame payload.
func (r TaskRequest) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// MaxProducts caps how many products a ProductList keeps from the source.
const MaxProducts = 5

// Product is one listing row. All values are opaque display strings.
type Product struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Rating   string `json:"rating,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ProductList holds at most MaxProducts items; TotalFound >= len(Items).
type ProductList struct {
	Items      []Product `json:"products"`
	TotalFound int       `json:"total_found"`
}

// Clone returns a copy that shares no backing array with l.
func (l ProductList) Clone() ProductList {
	items := make([]Product, len(l.Items))
	copy(items, l.Items)
	return ProductList{Items: items, TotalFound: l.TotalFound}
}

// FilledField is one row of a FormFillReport.
type FilledField struct {
	FieldName  string `json:"field_name"`
	FieldType  string `json:"field_type"`
	FieldValue string `json:"field_value"`
}

// FormFillReport summarizes a form the agent filled in.
type FormFillReport struct {
	URL              string        `json:"form_url"`
	SubmissionStatus string        `json:"submission_status"`
	FieldsFilled     []FilledField `json:"fields_filled"`
}

// PayloadKind identifies which shape a result's data decoded into.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadText
	PayloadForm
	PayloadProducts
	PayloadObject
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadForm:
		return "form"
	case PayloadProducts:
		return "products"
	case PayloadObject:
		return "object"
	default:
		return "none"
	}
}

// Payload is the decoded "data" of a result event. Exactly one of the
// shape fields is meaningful, selected by Kind.
type Payload struct {
	Kind     PayloadKind
	Text     string // PayloadText: opaque string; PayloadObject: indented JSON
	Form     *FormFillReport
	Products *ProductList
}
