package analysis

import (
	"bytes"
	"text/template"
)

const classifySystem = `You route user text to an analysis task. Respond with exactly one lowercase word and nothing else:
extract - the text contains clear cause-effect relationships
summarize - the text is insightful but not causal
reject - the text is not useful for analysis`

const extractSystem = `You extract causal relationships from text.
Respond with a single JSON object and no other text, in exactly this shape:
{"relationships": [["<cause>", "<effect>", "<polarity>"]]}
Each item is an array of exactly three strings. Polarity is "positive" when the cause increases the effect and "negative" when it decreases it.
Use short noun phrases for causes and effects. If there are no causal relationships, return {"relationships": []}.`

const summarizeSystem = `You summarize text. Reply with the main ideas in 2-3 plain sentences and nothing else.`

// userPromptTmpl wraps the input so the instructions above stay in the
// system prompt and the text is clearly delimited.
var userPromptTmpl = template.Must(template.New("user").Parse(`Text:
{{.Text}}
`))

func renderUserPrompt(text string) (string, error) {
	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
