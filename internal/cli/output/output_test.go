package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{in: "", want: ModeAuto},
		{in: "auto", want: ModeAuto},
		{in: "TEXT", want: ModeText},
		{in: "md", want: ModeMarkdown},
		{in: "markdown", want: ModeMarkdown},
		{in: "json", want: ModeJSON},
		{in: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, ModeAuto, Mode("yaml"))
}

func TestRenderer_EffectiveMode(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, true, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, false, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, true, ModeJSON).EffectiveMode())

	r := NewRenderer(&out, &errOut, ModeAuto)
	assert.False(t, r.IsTTY(), "buffers are never terminals")
}

func TestRenderer_Markdown(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeMarkdown)

	r.Header(2, "Columns")
	r.Success("saved")
	r.Muted("nothing else")
	r.Warning("careful")

	assert.Equal(t, "## Columns\n✓ saved\n_nothing else_\n", out.String())
	assert.Equal(t, "! careful\n", errOut.String())
}

func TestRenderer_TextHasNoANSIOffTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeText)

	r.Header(1, "Rules")
	r.StatusLine("rule-1", "success", "55%")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "Rules")
	assert.Contains(t, out.String(), "rule-1")
	assert.Contains(t, out.String(), "55%")
}

func TestRenderer_JSON(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeJSON)

	require.NoError(t, r.JSON(EvaluateOutput{Column: "Column A", PassRate: 55}))
	assert.Contains(t, out.String(), `"column": "Column A"`)
	assert.Contains(t, out.String(), `"pass_rate": 55`)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "###### Title", FormatHeader(9, "Title"))
	assert.Equal(t, "- **Rows:** 20", FormatKeyValue("Rows", "20"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))
}
