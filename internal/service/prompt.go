package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TemplateEnglish is the authoritative prompt variant: an English-only
// structured summary. TemplateBilingual adds Hindi alongside each section
// for clients serving bilingual users. Both keep the same section ordering
// and safety rules; the template text is a versioned contract with the
// summarization model, so changes here change what gets stored.
const (
	TemplateEnglish   = "english"
	TemplateBilingual = "bilingual"
)

// maxOCRChars caps how much raw OCR text is interpolated into the prompt,
// bounding outbound payload size and token cost.
const maxOCRChars = 8000

const truncationMarker = "\n[truncated]"

const defaultDocumentType = "Medical Receipt / Pharmacy Bill / Lab Report / Hospital Invoice"

// ReceiptFields is the normalized receipt payload rendered into the prompt
// when no structured OCR object is available. Values stay as the client sent
// them; the model sees the raw strings.
type ReceiptFields struct {
	Vendor string   `json:"vendor"`
	Date   string   `json:"date"`
	Items  []string `json:"items"`
	Total  string   `json:"total"`
}

// PromptContext is built once per request and consumed once by BuildPrompt.
type PromptContext struct {
	CloudinaryFileURL string
	DocumentType      string
	OCRText           string
	OCRJSON           json.RawMessage
	Receipt           *ReceiptFields
}

// PromptBuilder deterministically compiles PromptContext into the
// instruction document sent to Gemini. It performs no I/O: identical input
// always yields byte-identical output.
type PromptBuilder struct {
	variant string
}

func NewPromptBuilder(variant string) *PromptBuilder {
	if variant != TemplateBilingual {
		variant = TemplateEnglish
	}
	return &PromptBuilder{variant: variant}
}

func (b *PromptBuilder) Variant() string {
	return b.variant
}

// BuildPrompt never fails: every placeholder resolves even when the context
// is entirely empty.
func (b *PromptBuilder) BuildPrompt(pc *PromptContext) string {
	if pc == nil {
		pc = &PromptContext{}
	}

	url := strings.TrimSpace(pc.CloudinaryFileURL)
	if url == "" {
		url = "Not provided"
	}

	docType := strings.TrimSpace(pc.DocumentType)
	if docType == "" {
		docType = defaultDocumentType
	}

	ocrText := strings.TrimSpace(pc.OCRText)
	if ocrText == "" {
		ocrText = "Not provided"
	} else if len(ocrText) > maxOCRChars {
		ocrText = ocrText[:maxOCRChars] + truncationMarker
	}

	structured := b.renderStructured(pc)

	var sb strings.Builder
	sb.WriteString(`You are MediAssist AI, a medical document understanding assistant.

Your responsibility is to process medical receipts, bills, pharmacy invoices,
lab reports, and hospital documents uploaded by users.

You MUST follow medical safety rules:
- Do NOT diagnose diseases
- Do NOT provide medical advice
- Do NOT suggest treatment changes
- Only summarize what is explicitly present in the document
- Always use clear, neutral, and professional language

Your output must be structured, easy to read, and suitable for both patients and doctors.

A user has uploaded a medical document (receipt, bill, or report).
The file is already stored securely in Cloudinary as an image or PDF.

Your task is to:

1. Understand the OCR-extracted content provided below.
2. Identify and classify medical information accurately.
3. Generate a clean, well-structured medical summary.
4. Prepare the summary so it can be stored in the MediAssist Receipt Store.
5. Ensure compliance with medical safety rules.

`)
	if b.variant == TemplateBilingual {
		sb.WriteString(`This user prefers a bilingual summary. Write every section in English first,
then repeat the same content in Hindi (हिन्दी) directly below it. Keep
medicine, test, and vendor names exactly as written in both languages.

`)
	}

	sb.WriteString("---------------------------------\n")
	sb.WriteString("INPUT DATA\n")
	sb.WriteString("---------------------------------\n\n")
	fmt.Fprintf(&sb, "Cloudinary File URL:\n%s\n\n", url)
	fmt.Fprintf(&sb, "Document Type:\n%s\n\n", docType)
	fmt.Fprintf(&sb, "OCR Extracted Text:\n%s\n\n", ocrText)
	fmt.Fprintf(&sb, "Structured OCR (if available):\n%s\n\n", structured)

	sb.WriteString(`---------------------------------
PROCESSING RULES
---------------------------------

1. Identify the following if present:
   - Hospital / Pharmacy / Diagnostic Center name
   - Date of visit or billing
   - Doctor name (if mentioned)
   - Medicines (name, strength, form)
   - Tests / Investigations
   - Procedures / Treatments
   - Individual item costs
   - Total amount paid

2. Classify extracted items into:
   - Medicines
   - Lab Tests
   - Diagnostic Procedures
   - Consultation / Services
   - Other charges

3. If medicine names are present:
   - Keep names exactly as written
   - Do NOT add usage instructions
   - Do NOT explain dosage unless written in receipt

4. If test names are present:
   - Expand common abbreviations (e.g., CBC → Complete Blood Count)
   - Do NOT interpret results

5. If any information is missing:
   - Clearly mark it as "Not mentioned"

---------------------------------
SUMMARY OUTPUT FORMAT (STRICT)
---------------------------------

Generate the summary in the following format ONLY:

`)

	if b.variant == TemplateBilingual {
		sb.WriteString(`### 🧾 Medical Document Summary / चिकित्सा दस्तावेज़ सारांश

**Document Type / दस्तावेज़ प्रकार:**
**Hospital / Pharmacy / Lab / अस्पताल / फार्मेसी / लैब:**
**Date / दिनांक:**

### 👨‍⚕️ Doctor / Consultant / डॉक्टर
- Name / नाम:

### 💊 Medicines / दवाइयाँ
- Medicine Name – Cost (if available)

### 🧪 Tests / Investigations / जाँचें
- Test Name – Cost (if available)

### 🏥 Procedures / Services / प्रक्रियाएँ
- Procedure Name – Cost (if available)

### 💰 Billing Summary / बिल सारांश
- Medicines Total:
- Tests Total:
- Procedures / Services Total:
- Other Charges:
- **Total Amount Paid / कुल भुगतान:**

`)
	} else {
		sb.WriteString(`### 🧾 Medical Document Summary

**Document Type:**
**Hospital / Pharmacy / Lab:**
**Date:**

### 👨‍⚕️ Doctor / Consultant
- Name:

### 💊 Medicines
- Medicine Name – Cost (if available)

### 🧪 Tests / Investigations
- Test Name – Cost (if available)

### 🏥 Procedures / Services
- Procedure Name – Cost (if available)

### 💰 Billing Summary
- Medicines Total:
- Tests Total:
- Procedures / Services Total:
- Other Charges:
- **Total Amount Paid:**

`)
	}

	sb.WriteString("### ☁️ File Reference\n")
	fmt.Fprintf(&sb, "- Stored Securely at: %s\n\n", url)
	sb.WriteString(`### ℹ️ Important Note
This summary is auto-generated from the uploaded medical document.
It is for record-keeping purposes only and does not replace professional medical advice.

TONE & STYLE GUIDELINES

- Use simple, professional language
- Use bullet points
- No emojis except section headers
- Do not assume anything not written in the document
- Be precise and factual`)

	return sb.String()
}

// renderStructured prefers the client's structured OCR object over the
// normalized receipt fields; both render as indented JSON.
func (b *PromptBuilder) renderStructured(pc *PromptContext) string {
	if len(pc.OCRJSON) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, pc.OCRJSON, "", "  "); err == nil {
			return buf.String()
		}
		// Unindentable raw JSON still goes through verbatim
		return string(pc.OCRJSON)
	}

	if pc.Receipt != nil {
		if data, err := json.MarshalIndent(pc.Receipt, "", "  "); err == nil {
			return string(data)
		}
	}

	return "{}"
}
