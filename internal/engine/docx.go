package engine

import (
	"bytes"
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/wml/ctypes"
)

// paragraphSpacingAfter is in twentieths of a point.
const paragraphSpacingAfter uint64 = 200

// DocxEncoder writes one paragraph per input string into the default
// godocx template.
type DocxEncoder struct{}

func NewDocxEncoder() *DocxEncoder {
	return &DocxEncoder{}
}

func (DocxEncoder) EncodeDocument(paragraphs []string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create docx: %w", err)
	}

	for _, text := range paragraphs {
		ct := doc.AddParagraph(text).GetCT()
		if ct.Property == nil {
			ct.Property = &ctypes.ParagraphProp{}
		}
		after := paragraphSpacingAfter
		ct.Property.Spacing = &ctypes.Spacing{After: &after}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}
