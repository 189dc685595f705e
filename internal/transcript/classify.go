package transcript

import (
	"fmt"
	"strings"

	"browserchat/internal/protocol"
)

// CompletionMarker in a status message means the task finished successfully.
const CompletionMarker = "✅"

const (
	unknownMessageText = "Unknown message"
	unknownErrorText   = "Unknown error"
	emptyResultText    = "Result: (no data)"
)

var formFillKeywords = []string{"fill", "form", "submit", "register", "signup", "login"}

// InferTaskType tags a task as form_fill when the input mentions any form
// keyword, and search otherwise. It is a heuristic the agent may ignore.
func InferTaskType(input string) protocol.TaskType {
	lowered := strings.ToLower(input)
	for _, keyword := range formFillKeywords {
		if strings.Contains(lowered, keyword) {
			return protocol.TaskFormFill
		}
	}
	return protocol.TaskSearch
}

// Classify maps one agent event to the messages it produces. The result is
// unstamped; Store.Append assigns ID and CreatedAt.
func Classify(ev protocol.Event) []Message {
	switch ev.Type {
	case protocol.EventStatus:
		kind := KindStatus
		if strings.Contains(ev.Message, CompletionMarker) {
			kind = KindCompletion
		}
		return []Message{{Role: RoleAgent, Kind: kind, Text: ev.Message}}
	case protocol.EventAction:
		return []Message{{Role: RoleAgent, Kind: KindAction, Text: fmt.Sprintf("%s: %s", ev.Action, ev.Message)}}
	case protocol.EventError:
		return []Message{{Role: RoleError, Kind: KindError, Text: orDefault(ev.Message, unknownErrorText)}}
	case protocol.EventResult:
		return []Message{classifyResult(ev)}
	default:
		return []Message{{Role: RoleAgent, Kind: KindPlain, Text: orDefault(ev.Message, unknownMessageText)}}
	}
}

func classifyResult(ev protocol.Event) Message {
	payload := protocol.DecodeResult(ev.Data)
	switch payload.Kind {
	case protocol.PayloadForm:
		return Message{Role: RoleAgent, Kind: KindFormResult, Text: FormatFormReport(*payload.Form)}
	case protocol.PayloadProducts:
		list := payload.Products.Clone()
		return Message{Role: RoleAgent, Kind: KindProducts, Text: ProductsHeader(list), Products: &list}
	case protocol.PayloadText, protocol.PayloadObject:
		return Message{Role: RoleAgent, Kind: KindResult, Text: payload.Text}
	default:
		return Message{Role: RoleAgent, Kind: KindResult, Text: orDefault(ev.Message, emptyResultText)}
	}
}

// FormatFormReport renders a form-fill report as the multi-line summary
// shown in the transcript.
func FormatFormReport(report protocol.FormFillReport) string {
	var b strings.Builder
	b.WriteString(CompletionMarker + " Form submitted successfully!\n\n")
	b.WriteString("Fields filled:\n")
	if len(report.FieldsFilled) == 0 {
		b.WriteString("(none)\n")
	}
	for _, field := range report.FieldsFilled {
		fmt.Fprintf(&b, "• %s (%s): %s\n", field.FieldName, field.FieldType, field.FieldValue)
	}
	fmt.Fprintf(&b, "\nForm URL: %s\n", report.URL)
	fmt.Fprintf(&b, "Status: %s", report.SubmissionStatus)
	return b.String()
}

// ProductsHeader is the line shown above a product listing.
func ProductsHeader(list protocol.ProductList) string {
	header := fmt.Sprintf("Found %d products", list.TotalFound)
	if list.TotalFound > len(list.Items) {
		header += fmt.Sprintf(", showing top %d", len(list.Items))
	}
	return header
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
