package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDispatchesOnType(t *testing.T) {
	tests := []struct {
		frame string
		want  EventType
	}{
		{`{"type":"status","message":"Analyzing task..."}`, EventStatus},
		{`{"type":"action","action":"navigate","message":"Opening browser"}`, EventAction},
		{`{"type":"result","data":{"a":1}}`, EventResult},
		{`{"type":"error","message":"Task failed: boom"}`, EventError},
		{`{"type":" STATUS "}`, EventStatus},
		{`{"type":"progress","message":"50%"}`, EventUnknown},
		{`{"message":"no type"}`, EventUnknown},
		{`{"type":7}`, EventUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode([]byte(tt.frame)).Type)
		})
	}
}

func TestDecodeReadsOptionalFields(t *testing.T) {
	ev := Decode([]byte(`{"type":"action","action":"extract","message":"Extracting","task_type":"search","timestamp":12.5}`))
	assert.Equal(t, EventAction, ev.Type)
	assert.Equal(t, "extract", ev.Action)
	assert.Equal(t, "Extracting", ev.Message)
	assert.Equal(t, "search", ev.TaskType)
	assert.Nil(t, ev.Data)
}

func TestDecodeNonStringFieldsKeepText(t *testing.T) {
	ev := Decode([]byte(`{"type":"status","message":{"step":2}}`))
	assert.Equal(t, EventStatus, ev.Type)
	assert.Equal(t, `{"step":2}`, ev.Message)

	ev = Decode([]byte(`{"type":"error","message":null}`))
	assert.Empty(t, ev.Message)
}

func TestDecodeMalformedFrames(t *testing.T) {
	for _, frame := range []string{"not json", `{"type":"status"`, `[1,2,3]`, `"just a string"`, `null`, ``} {
		t.Run(fmt.Sprintf("%q", frame), func(t *testing.T) {
			ev := Decode([]byte(frame))
			assert.Equal(t, EventUnknown, ev.Type)
			assert.Equal(t, frame, ev.Message)
		})
	}
}

func TestDecodeNullDataIsAbsent(t *testing.T) {
	ev := Decode([]byte(`{"type":"result","data":null}`))
	assert.Nil(t, ev.Data)
	assert.Equal(t, PayloadNone, DecodeResult(ev.Data).Kind)
}

func TestDecodeResultDoubleEncodedForm(t *testing.T) {
	frame := `{"type":"result","data":"{\"fields_filled\":[{\"field_name\":\"email\",\"field_type\":\"text\",\"field_value\":\"a@b.com\"}],\"form_url\":\"x.com\",\"submission_status\":\"ok\"}"}`
	ev := Decode([]byte(frame))
	require.Equal(t, EventResult, ev.Type)

	p := DecodeResult(ev.Data)
	require.Equal(t, PayloadForm, p.Kind)
	require.NotNil(t, p.Form)
	assert.Equal(t, "x.com", p.Form.URL)
	assert.Equal(t, "ok", p.Form.SubmissionStatus)
	assert.Equal(t, []FilledField{{FieldName: "email", FieldType: "text", FieldValue: "a@b.com"}}, p.Form.FieldsFilled)
}

func TestDecodeResultFormWinsOverProducts(t *testing.T) {
	p := DecodeResult(json.RawMessage(`{"products":[{"name":"x"}],"fields_filled":[]}`))
	assert.Equal(t, PayloadForm, p.Kind)
	assert.Empty(t, p.Form.FieldsFilled)
}

func productsJSON(n int, total string) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"name":"Item %d","price":"₹%d,999","rating":4.%d,"url":"https://shop.example/%d"}`, i+1, i+1, i, i+1)
	}
	body := `{"products":[` + strings.Join(items, ",") + `]`
	if total != "" {
		body += `,"total_found":` + total
	}
	return body + "}"
}

func TestDecodeResultProducts(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		total     string
		wantItems int
		wantTotal int
	}{
		{"three without total", 3, "", 3, 3},
		{"five with total", 5, "42", 5, 42},
		{"eight truncated", 8, "", 5, 8},
		{"eight with larger total", 8, "120", 5, 120},
		{"reported total below source", 4, "2", 4, 4},
		{"empty list", 0, "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DecodeResult(json.RawMessage(productsJSON(tt.n, tt.total)))
			require.Equal(t, PayloadProducts, p.Kind)
			assert.Len(t, p.Products.Items, tt.wantItems)
			assert.Equal(t, tt.wantTotal, p.Products.TotalFound)
			assert.GreaterOrEqual(t, p.Products.TotalFound, len(p.Products.Items))
		})
	}
}

func TestDecodeResultProductFieldsVerbatim(t *testing.T) {
	p := DecodeResult(json.RawMessage(`{"products":[{"name":"MacBook Air","price":99990.00,"rating":4.70,"image_url":"https://img/1.png","url":"https://shop/1"},{"name":"Dell","price":"$799"}],"total_found":"17"}`))
	require.Equal(t, PayloadProducts, p.Kind)
	first := p.Products.Items[0]
	assert.Equal(t, "MacBook Air", first.Name)
	assert.Equal(t, "99990.00", first.Price)
	assert.Equal(t, "4.70", first.Rating)
	assert.Equal(t, "https://img/1.png", first.ImageURL)
	assert.Equal(t, "https://shop/1", first.URL)

	second := p.Products.Items[1]
	assert.Equal(t, "$799", second.Price)
	assert.Empty(t, second.Rating)
	assert.Empty(t, second.URL)
	assert.Equal(t, 17, p.Products.TotalFound)
}

func TestDecodeResultProductsMustBeArray(t *testing.T) {
	p := DecodeResult(json.RawMessage(`{"products":"none found"}`))
	assert.Equal(t, PayloadObject, p.Kind)
}

func TestDecodeResultGenericObjectIsIndented(t *testing.T) {
	p := DecodeResult(json.RawMessage(`{"zeta":1,"alpha":{"x":"<b>"}}`))
	require.Equal(t, PayloadObject, p.Kind)
	assert.Equal(t, "{\n  \"zeta\": 1,\n  \"alpha\": {\n    \"x\": \"<b>\"\n  }\n}", p.Text)
}

func TestDecodeResultStrings(t *testing.T) {
	tests := []struct {
		name string
		data string
		kind PayloadKind
		text string
	}{
		{"plain prose", `"Top 3 laptops: A, B, C"`, PayloadText, "Top 3 laptops: A, B, C"},
		{"number prefix", `"42 apples"`, PayloadText, "42 apples"},
		{"nested string literal", `"\"hello\""`, PayloadText, "hello"},
		{"encoded array", `"[1, 2]"`, PayloadObject, "[\n  1,\n  2\n]"},
		{"encoded null", `"null"`, PayloadText, "null"},
		{"bare array", `["a","b"]`, PayloadObject, "[\n  \"a\",\n  \"b\"\n]"},
		{"bare number", `3.5`, PayloadObject, "3.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DecodeResult(json.RawMessage(tt.data))
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.text, p.Text)
		})
	}
}

func TestTaskRequestEncode(t *testing.T) {
	buf, err := TaskRequest{Task: "  search for laptops ", TaskType: TaskSearch}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"task":"  search for laptops ","task_type":"search"}`, string(buf))

	buf, err = TaskRequest{Task: "legacy"}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"task":"legacy"}`, string(buf))
}

func TestProductListClone(t *testing.T) {
	orig := ProductList{Items: []Product{{Name: "a"}}, TotalFound: 1}
	clone := orig.Clone()
	clone.Items[0].Name = "changed"
	assert.Equal(t, "a", orig.Items[0].Name)
}
