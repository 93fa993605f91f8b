package domain

import (
	"fmt"
	"strings"
)

// Tool identifies one conversion operation.
type Tool string

const (
	ToolPDFToWord   Tool = "pdf-to-word"
	ToolPDFToExcel  Tool = "pdf-to-excel"
	ToolPDFToJPG    Tool = "pdf-to-jpg"
	ToolPDFToPNG    Tool = "pdf-to-png"
	ToolPDFToText   Tool = "pdf-to-text"
	ToolMergePDF    Tool = "merge-pdf"
	ToolSplitPDF    Tool = "split-pdf"
	ToolCompressPDF Tool = "compress-pdf"
)

// Delivery says how a finished artifact reaches the user.
type Delivery string

const (
	// DeliverRetain keeps the artifact in the single download slot.
	DeliverRetain Delivery = "retain"
	// DeliverImmediate hands the artifact to the save mechanism right away.
	DeliverImmediate Delivery = "immediate"
)

// ToolInfo carries the user-facing labels of a tool.
type ToolInfo struct {
	ID            Tool     `json:"id"`
	Title         string   `json:"title"`
	Message       string   `json:"message"`
	DownloadLabel string   `json:"download_label,omitempty"`
	OutputName    string   `json:"output_name"`
	Delivery      Delivery `json:"delivery"`
	MinFiles      int      `json:"min_files"`
}

var toolCatalog = map[Tool]ToolInfo{
	ToolPDFToWord: {
		Title:         "Converting PDF to Word",
		Message:       "Converting your PDF to an editable Word document...",
		DownloadLabel: "DOCX",
	},
	ToolPDFToExcel: {
		Title:         "Converting PDF to Excel",
		Message:       "Extracting tables from your PDF to Excel format...",
		DownloadLabel: "XLSX",
	},
	ToolPDFToJPG: {
		Title:         "Converting PDF to JPG",
		Message:       "Converting PDF pages to JPG images...",
		DownloadLabel: "JPG",
	},
	ToolPDFToPNG: {
		Title:         "Converting PDF to PNG",
		Message:       "Converting PDF pages to PNG images...",
		DownloadLabel: "PNG",
	},
	ToolPDFToText: {
		Title:         "Extracting Text from PDF",
		Message:       "Extracting text content from your PDF...",
		DownloadLabel: "TXT",
	},
	ToolMergePDF: {
		Title:         "Merging PDF Files",
		Message:       "Combining your PDF files into one document...",
		DownloadLabel: "PDF",
	},
	ToolSplitPDF: {
		Title:   "Splitting PDF",
		Message: "Splitting your PDF into multiple files...",
	},
	ToolCompressPDF: {
		Title:         "Compressing PDF",
		Message:       "Reducing your PDF file size...",
		DownloadLabel: "PDF",
	},
}

// AllTools returns every tool in a stable order.
func AllTools() []Tool {
	return []Tool{
		ToolPDFToWord,
		ToolPDFToExcel,
		ToolPDFToJPG,
		ToolPDFToPNG,
		ToolPDFToText,
		ToolMergePDF,
		ToolSplitPDF,
		ToolCompressPDF,
	}
}

// ParseTool converts a raw identifier into a Tool.
func ParseTool(raw string) (Tool, error) {
	tool := Tool(strings.ToLower(strings.TrimSpace(raw)))
	if !tool.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, raw)
	}
	return tool, nil
}

// Valid reports whether t is one of the known tools.
func (t Tool) Valid() bool {
	_, ok := toolCatalog[t]
	return ok
}

// Info returns the labels for t with derived fields filled in.
func (t Tool) Info() ToolInfo {
	info := toolCatalog[t]
	info.ID = t
	info.OutputName = OutputFilename(t)
	info.Delivery = t.Delivery()
	info.MinFiles = t.MinFiles()
	return info
}

// Delivery returns how the tool's artifact is handed over.
func (t Tool) Delivery() Delivery {
	if t == ToolSplitPDF {
		return DeliverImmediate
	}
	return DeliverRetain
}

// MinFiles returns the minimum number of inputs a run needs.
func (t Tool) MinFiles() int {
	if t == ToolMergePDF {
		return 2
	}
	return 1
}

// CompletionMessage is shown once a retained artifact is ready.
func (t Tool) CompletionMessage() string {
	return fmt.Sprintf("Your %s file is ready to download.", strings.ReplaceAll(string(t), "-", " "))
}

// OutputFilename derives the download name for a tool's artifact.
func OutputFilename(t Tool) string {
	switch t {
	case ToolPDFToWord:
		return "converted-file.docx"
	case ToolPDFToExcel:
		return "converted-file.xlsx"
	case ToolPDFToJPG:
		return "converted-file.jpg"
	case ToolPDFToPNG:
		return "converted-file.png"
	case ToolPDFToText:
		return "converted-file.txt"
	case ToolMergePDF:
		return "merged-document.pdf"
	case ToolCompressPDF:
		return "compressed.pdf"
	case ToolSplitPDF:
		return "split-pages.zip"
	default:
		return "converted-file"
	}
}
