package llm

import (
	"fmt"
	"strings"
)

const (
	TemplateAuto    = "auto"
	TemplateLlama3  = "llama3"
	TemplateMistral = "mistral"
	TemplateZephyr  = "zephyr"
	TemplateNone    = "none"
)

// ResolveTemplate turns "auto" (or an empty setting) into a concrete template
// name based on the model id.
func ResolveTemplate(name, model string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TemplateAuto:
		m := strings.ToLower(model)
		switch {
		case strings.Contains(m, "llama-3"), strings.Contains(m, "llama3"):
			return TemplateLlama3, nil
		case strings.Contains(m, "mistral"), strings.Contains(m, "mixtral"):
			return TemplateMistral, nil
		case strings.Contains(m, "zephyr"):
			return TemplateZephyr, nil
		default:
			return TemplateNone, nil
		}
	case TemplateLlama3:
		return TemplateLlama3, nil
	case TemplateMistral:
		return TemplateMistral, nil
	case TemplateZephyr:
		return TemplateZephyr, nil
	case TemplateNone:
		return TemplateNone, nil
	default:
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
}

// ApplyTemplate wraps prompt in the model's instruction format.
func ApplyTemplate(template, prompt string) string {
	switch template {
	case TemplateLlama3:
		return "<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\n" + prompt +
			"<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n\n"
	case TemplateMistral:
		return "<s>[INST] " + prompt + " [/INST]"
	case TemplateZephyr:
		return "<|user|>\n" + prompt + "</s>\n<|assistant|>\n"
	default:
		return prompt
	}
}
