package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString accepts either a JSON string or a JSON number. Clients send
// totals both ways ("₹150.00" and 150.0).
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, err := n.Float64(); err == nil {
		*f = FlexString(strconv.FormatFloat(v, 'f', -1, 64))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// CreateReceiptRequest carries the cleaned OCR payload from the client.
// Snake_case aliases are part of the payload contract.
type CreateReceiptRequest struct {
	UserID    string     `json:"userId"`
	UserIDAlt string     `json:"user_id"`
	Vendor    string     `json:"vendor"`
	Date      string     `json:"date"`
	Items     []string   `json:"items"`
	Total     FlexString `json:"total"`

	CloudinaryFileURL    string `json:"cloudinaryFileUrl"`
	CloudinaryFileURLAlt string `json:"cloudinary_url"`
	DocumentType         string `json:"documentType"`
	DocumentTypeAlt      string `json:"document_type"`
	OCRText              string `json:"ocrText"`
	OCRTextAlt           string `json:"ocr_text"`

	OCRJSON    json.RawMessage `json:"ocrJson"`
	OCRJSONAlt json.RawMessage `json:"ocr_json"`
}

type ReceiptResponse struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	Vendor        string   `json:"vendor"`
	Date          string   `json:"date"`
	CloudinaryURL string   `json:"cloudinaryUrl,omitempty"`
	RawItems      []string `json:"rawItems"`
	TotalAmount   float64  `json:"totalAmount"`
	CreatedAt     string   `json:"createdAt"`
}

// ReceiptListItem deliberately omits the summary and raw items: listing is
// for overview screens and must not decrypt anything.
type ReceiptListItem struct {
	ID            string  `json:"id"`
	Vendor        string  `json:"vendor"`
	Date          string  `json:"date"`
	CloudinaryURL string  `json:"cloudinaryUrl,omitempty"`
	TotalAmount   float64 `json:"totalAmount"`
	CreatedAt     string  `json:"createdAt"`
}

type CreateReceiptResponse struct {
	Success bool            `json:"success"`
	Receipt ReceiptResponse `json:"receipt"`
	Summary string          `json:"summary"`
}

type GetReceiptResponse struct {
	Success bool            `json:"success"`
	Receipt ReceiptResponse `json:"receipt"`
	Summary string          `json:"summary"`
}

type ListReceiptsResponse struct {
	Success  bool              `json:"success"`
	Receipts []ReceiptListItem `json:"receipts"`
}

type UploadResponse struct {
	Success      bool   `json:"success"`
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
