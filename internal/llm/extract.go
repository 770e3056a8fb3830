package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

// textFields are tried in this order on every object shape.
var textFields = []string{"generated_text", "text", "summary_text"}

// ExtractText pulls the generated text out of an inference response body.
// Shapes are tried in a fixed order: a list whose first element carries a
// text field, a single object carrying one, then a bare string. Vendors have
// no documented contract here, so anything else is ErrUnexpectedShape.
func ExtractText(body []byte) (string, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	switch v := payload.(type) {
	case []any:
		if len(v) > 0 {
			if obj, ok := v[0].(map[string]any); ok {
				if text, ok := textField(obj); ok {
					return strings.TrimSpace(text), nil
				}
			}
		}
	case map[string]any:
		if text, ok := textField(v); ok {
			return strings.TrimSpace(text), nil
		}
	case string:
		return strings.TrimSpace(v), nil
	}

	return "", ErrUnexpectedShape
}

func textField(obj map[string]any) (string, bool) {
	for _, name := range textFields {
		if s, ok := obj[name].(string); ok {
			return s, true
		}
	}
	return "", false
}

var leadingMarkers = []string{
	"<|begin_of_text|>",
	"<|start_header_id|>assistant<|end_header_id|>",
	"<|eot_id|>",
	"<|assistant|>",
	"[/INST]",
	"<s>",
	"</s>",
	"Assistant Response:",
	"Assistant:",
}

var trailingMarkers = []string{"<|eot_id|>", "</s>", "<|end|>"}

const questionLabel = "User Question:"

// CleanReply strips echoed prompt text and template markers from the front
// of a reply, plus a copy of the question when it sits on its own line.
// End-of-turn tokens are cut from the back.
func CleanReply(text, prompt, question string) string {
	prompt = strings.TrimSpace(prompt)
	question = strings.TrimSpace(question)

	for {
		before := text
		text = strings.TrimSpace(text)

		if prompt != "" {
			text = strings.TrimPrefix(text, prompt)
		}
		for _, marker := range leadingMarkers {
			text = strings.TrimPrefix(text, marker)
		}
		if rest, ok := strings.CutPrefix(text, questionLabel); ok {
			text = strings.TrimSpace(rest)
		}
		if question != "" {
			text = trimEchoedQuestion(text, question)
		}

		if text == before {
			break
		}
	}

	for {
		before := text
		for _, marker := range trailingMarkers {
			text = strings.TrimSpace(strings.TrimSuffix(text, marker))
		}
		if text == before {
			break
		}
	}

	return text
}

// trimEchoedQuestion removes question from the front of text only when it
// stands on its own line. A reply that merely starts with the same words is
// left alone.
func trimEchoedQuestion(text, question string) string {
	rest, ok := strings.CutPrefix(text, question)
	if !ok {
		return text
	}
	if rest == "" || strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r") {
		return rest
	}
	return text
}

// TrimIncompleteSentence drops a trailing sentence that was cut off by the
// token limit. Single-sentence replies are returned as is.
func TrimIncompleteSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return text
	}

	sentences := doc.Sentences()
	if len(sentences) < 2 {
		return text
	}

	last := strings.TrimSpace(sentences[len(sentences)-1].Text)
	if last == "" || isTerminated(last) {
		return text
	}

	idx := strings.LastIndex(text, last)
	if idx <= 0 {
		return text
	}
	return strings.TrimSpace(text[:idx])
}

// isTerminated reports whether s ends like a finished sentence. Closing
// quotes, brackets and emoji count as finished.
func isTerminated(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == ',' || r == ';' || r == ':' || r == '-')
}
