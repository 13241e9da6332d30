package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDraftStamp(t *testing.T) {
	ts := time.Date(2026, 3, 4, 10, 11, 12, 345678901, time.FixedZone("CET", 3600))

	ev := Draft{
		Module:       "  Análisis de Imágenes Médicas ",
		Action:       "Imagen Analizada",
		InputSummary: Text("scan.png"),
		Details:      json.RawMessage(`{ "fileName": "scan.png",  "fileSize": "1.2 MB" }`),
	}.Stamp(ts)

	assert.Zero(t, ev.ID, "store assigns the id")
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
	assert.Equal(t, 345000000, ev.Timestamp.Nanosecond())
	assert.Equal(t, "Análisis de Imágenes Médicas", ev.Module)
	assert.Equal(t, "scan.png", Deref(ev.InputSummary))
	assert.Nil(t, ev.OutputSummary)
	assert.JSONEq(t, `{"fileName":"scan.png","fileSize":"1.2 MB"}`, string(ev.Details))
	assert.Equal(t, `{"fileName":"scan.png","fileSize":"1.2 MB"}`, string(ev.Details))
}

func TestCompactDetails(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"null", " null ", ""},
		{"object", "{\n  \"a\": 1\n}", `{"a":1}`},
		{"array", "[1, 2]", `[1,2]`},
		{"invalid passes through", "{bad", "{bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompactDetails(json.RawMessage(tt.in))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestText(t *testing.T) {
	assert.Nil(t, Text(""))
	assert.Equal(t, "x", Deref(Text("x")))
	assert.Equal(t, "", Deref(nil))
}
