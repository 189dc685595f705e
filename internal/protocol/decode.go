package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

var errTrailingData = errors.New("trailing data after JSON value")

// Decode parses one inbound text frame. It never fails: a frame that is not a
// JSON object becomes an EventUnknown whose Message is the raw frame text.
func Decode(frame []byte) Event {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil || fields == nil {
		return Event{Type: EventUnknown, Message: string(frame)}
	}
	ev := Event{
		Type:     parseEventType(fieldString(fields["type"])),
		Message:  fieldString(fields["message"]),
		Action:   fieldString(fields["action"]),
		TaskType: fieldString(fields["task_type"]),
	}
	if raw, ok := fields["data"]; ok && !isNull(raw) {
		ev.Data = append(json.RawMessage(nil), raw...)
	}
	return ev
}

func parseEventType(raw string) EventType {
	switch t := EventType(strings.ToLower(strings.TrimSpace(raw))); t {
	case EventStatus, EventAction, EventResult, EventError:
		return t
	default:
		return EventUnknown
	}
}

// fieldString reads an optional field as display text. Non-string values are
// rendered as compact JSON so nothing the agent sent is lost.
func fieldString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// DecodeResult resolves a result event's data into one of the payload shapes.
// A string value is decoded a second time because the agent double-encodes
// some payloads; when that fails the string is kept as opaque text.
func DecodeResult(data json.RawMessage) Payload {
	trimmed := bytes.TrimSpace(data)
	if isNull(trimmed) {
		return Payload{Kind: PayloadNone}
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Payload{Kind: PayloadText, Text: string(trimmed)}
		}
		inner := []byte(strings.TrimSpace(s))
		value, err := decodeValue(inner)
		if err != nil || value == nil {
			return Payload{Kind: PayloadText, Text: s}
		}
		if str, ok := value.(string); ok {
			return Payload{Kind: PayloadText, Text: str}
		}
		return classify(inner, value)
	}
	value, err := decodeValue(trimmed)
	if err != nil {
		return Payload{Kind: PayloadText, Text: string(trimmed)}
	}
	return classify(trimmed, value)
}

func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errTrailingData
	}
	return value, nil
}

// classify probes a structured value: fields_filled wins over products, and
// anything else is shown as indented JSON in its original key order.
func classify(raw []byte, value any) Payload {
	if obj, ok := value.(map[string]any); ok {
		if _, ok := obj["fields_filled"]; ok {
			return Payload{Kind: PayloadForm, Form: decodeForm(obj)}
		}
		if items, ok := obj["products"].([]any); ok {
			return Payload{Kind: PayloadProducts, Products: decodeProducts(items, obj["total_found"])}
		}
	}
	return Payload{Kind: PayloadObject, Text: indent(raw)}
}

func indent(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func decodeForm(obj map[string]any) *FormFillReport {
	report := &FormFillReport{
		URL:              displayString(obj["form_url"]),
		SubmissionStatus: displayString(obj["submission_status"]),
	}
	rows, _ := obj["fields_filled"].([]any)
	for _, row := range rows {
		field, ok := row.(map[string]any)
		if !ok {
			continue
		}
		report.FieldsFilled = append(report.FieldsFilled, FilledField{
			FieldName:  displayString(field["field_name"]),
			FieldType:  displayString(field["field_type"]),
			FieldValue: displayString(field["field_value"]),
		})
	}
	return report
}

func decodeProducts(items []any, totalRaw any) *ProductList {
	limit := len(items)
	if limit > MaxProducts {
		limit = MaxProducts
	}
	list := &ProductList{Items: make([]Product, 0, limit), TotalFound: len(items)}
	for _, item := range items[:limit] {
		obj, ok := item.(map[string]any)
		if !ok {
			list.Items = append(list.Items, Product{Name: displayString(item)})
			continue
		}
		list.Items = append(list.Items, Product{
			Name:     displayString(obj["name"]),
			Price:    displayString(obj["price"]),
			Rating:   displayString(obj["rating"]),
			ImageURL: firstNonEmpty(displayString(obj["image_url"]), displayString(obj["image"])),
			URL:      displayString(obj["url"]),
		})
	}
	if reported, ok := parseCount(totalRaw); ok && reported > list.TotalFound {
		list.TotalFound = reported
	}
	return list
}

// displayString keeps scalars verbatim; numbers arrive as json.Number.
func displayString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	default:
		buf, err := json.Marshal(typed)
		if err != nil {
			return ""
		}
		return string(buf)
	}
}

func parseCount(v any) (int, bool) {
	switch typed := v.(type) {
	case json.Number:
		if n, err := typed.Int64(); err == nil && n >= 0 {
			return int(n), true
		}
		if f, err := typed.Float64(); err == nil && f >= 0 {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil && n >= 0 {
			return n, true
		}
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
