package domain

import (
	"encoding/json"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
	// RoleAssistantAlias is the role name the UI keeps for assistant turns.
	RoleAssistantAlias = "tars"
)

// RequestBody is the generateContent payload. Contents order is the dialogue order.
type RequestBody struct {
	Contents []*Content `json:"contents"`
}

// Part holds either Text or InlineData. A part with neither is sent as an
// empty object.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64 encoded bytes.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts"`
}

// UnmarshalJSON accepts both the snake_case names the UI sends and the
// camelCase names the API answers with.
func (p *Part) UnmarshalJSON(b []byte) error {
	var raw struct {
		Text        *string     `json:"text"`
		InlineSnake *inlineWire `json:"inline_data"`
		InlineCamel *inlineWire `json:"inlineData"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Part{}
	if raw.Text != nil {
		p.Text = *raw.Text
	}
	inline := raw.InlineSnake
	if inline == nil {
		inline = raw.InlineCamel
	}
	if inline != nil {
		p.InlineData = inline.toInlineData()
	}
	return nil
}

type inlineWire struct {
	MimeSnake string `json:"mime_type"`
	MimeCamel string `json:"mimeType"`
	Data      string `json:"data"`
}

func (w *inlineWire) toInlineData() *InlineData {
	mime := w.MimeSnake
	if mime == "" {
		mime = w.MimeCamel
	}
	return &InlineData{MimeType: mime, Data: w.Data}
}

// GeminiResponse is the part of the generateContent answer the client reads.
type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []*Part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// TextPart and ImagePart build the two part shapes the assistant sends.
func TextPart(text string) *Part { return &Part{Text: text} }

func ImagePart(mimeType, base64Data string) *Part {
	return &Part{InlineData: &InlineData{MimeType: mimeType, Data: base64Data}}
}
