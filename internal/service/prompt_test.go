package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptBuilder_Deterministic(t *testing.T) {
	builder := NewPromptBuilder(TemplateEnglish)

	pc := &PromptContext{
		CloudinaryFileURL: "https://res.cloudinary.com/demo/receipt.pdf",
		DocumentType:      "Pharmacy Bill",
		OCRText:           "ABC Pharmacy\nParacetamol 500mg  ₹150.00",
		OCRJSON:           json.RawMessage(`{"vendor":"ABC Pharmacy","total":"150"}`),
	}

	first := builder.BuildPrompt(pc)
	second := builder.BuildPrompt(pc)
	assert.Equal(t, first, second)
}

func TestPromptBuilder_Truncation(t *testing.T) {
	builder := NewPromptBuilder(TemplateEnglish)

	ocr := strings.Repeat("a", 9000)
	prompt := builder.BuildPrompt(&PromptContext{OCRText: ocr})

	expected := strings.Repeat("a", 8000) + "\n[truncated]"
	assert.Contains(t, prompt, expected)
	assert.NotContains(t, prompt, strings.Repeat("a", 8001))
}

func TestPromptBuilder_NoTruncationUnderBudget(t *testing.T) {
	builder := NewPromptBuilder(TemplateEnglish)

	prompt := builder.BuildPrompt(&PromptContext{OCRText: strings.Repeat("b", 7999)})
	assert.NotContains(t, prompt, "[truncated]")
}

func TestPromptBuilder_EmptyContext(t *testing.T) {
	builder := NewPromptBuilder(TemplateEnglish)

	for _, pc := range []*PromptContext{nil, {}} {
		prompt := builder.BuildPrompt(pc)

		assert.Contains(t, prompt, "Cloudinary File URL:\nNot provided")
		assert.Contains(t, prompt, "Document Type:\nMedical Receipt / Pharmacy Bill / Lab Report / Hospital Invoice")
		assert.Contains(t, prompt, "OCR Extracted Text:\nNot provided")
		assert.Contains(t, prompt, "Structured OCR (if available):\n{}")
		assert.Contains(t, prompt, "Do NOT diagnose diseases")
		assert.Contains(t, prompt, `Clearly mark it as "Not mentioned"`)
		assert.Contains(t, prompt, "### 💰 Billing Summary")
	}
}

func TestPromptBuilder_SectionOrdering(t *testing.T) {
	builder := NewPromptBuilder(TemplateEnglish)
	prompt := builder.BuildPrompt(&PromptContext{})

	sections := []string{
		"### 🧾 Medical Document Summary",
		"### 👨‍⚕️ Doctor / Consultant",
		"### 💊 Medicines",
		"### 🧪 Tests / Investigations",
		"### 🏥 Procedures / Services",
		"### 💰 Billing Summary",
		"### ☁️ File Reference",
		"### ℹ️ Important Note",
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(prompt, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}

func TestPromptBuilder_PrefersStructuredOCR(t *testing.T) {
	builder := NewPromptBuilder(TemplateEnglish)

	pc := &PromptContext{
		OCRJSON: json.RawMessage(`{"medicines":["Paracetamol"]}`),
		Receipt: &ReceiptFields{Vendor: "FallbackVendor", Total: "99"},
	}

	prompt := builder.BuildPrompt(pc)
	assert.Contains(t, prompt, `"medicines"`)
	assert.NotContains(t, prompt, "FallbackVendor")
}

func TestPromptBuilder_FallsBackToReceiptFields(t *testing.T) {
	builder := NewPromptBuilder(TemplateEnglish)

	pc := &PromptContext{
		Receipt: &ReceiptFields{
			Vendor: "ABC Pharmacy",
			Date:   "2024-01-05",
			Items:  []string{"Paracetamol"},
			Total:  "₹150.00",
		},
	}

	prompt := builder.BuildPrompt(pc)
	assert.Contains(t, prompt, `"vendor": "ABC Pharmacy"`)
	assert.Contains(t, prompt, `"Paracetamol"`)
}

func TestPromptBuilder_BilingualVariant(t *testing.T) {
	builder := NewPromptBuilder(TemplateBilingual)
	prompt := builder.BuildPrompt(&PromptContext{})

	assert.Contains(t, prompt, "हिन्दी")
	assert.Contains(t, prompt, "### 💰 Billing Summary / बिल सारांश")
	// Safety rules hold across variants
	assert.Contains(t, prompt, "Do NOT provide medical advice")
}

func TestNewPromptBuilder_UnknownVariantDefaultsToEnglish(t *testing.T) {
	builder := NewPromptBuilder("klingon")
	assert.Equal(t, TemplateEnglish, builder.Variant())
}
