package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pdf-chat/internal/config"
	"pdf-chat/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

const (
	defaultChunkSize     = 1000 // chars
	defaultChunkOverlap  = 200  // chars
	defaultMinChunkChars = 50
	defaultPageNumber    = 1
)

// page is an intermediate extraction unit: one PDF page, slide or sheet
type page struct {
	number int
	text   string
}

type parserConfig struct {
	chunkSize     int
	chunkOverlap  int
	minChunkChars int
}

// Parse extracts text from the file, cleans it and splits it into chunks.
// The second return value is the number of pages text was extracted from.
func Parse(filePath string, cfg *config.Config) ([]models.Chunk, int, error) {
	p := parserConfig{
		chunkSize:     defaultChunkSize,
		chunkOverlap:  defaultChunkOverlap,
		minChunkChars: defaultMinChunkChars,
	}
	if cfg != nil {
		if cfg.RAG.ChunkSize > 0 {
			p.chunkSize = cfg.RAG.ChunkSize
		}
		if cfg.RAG.ChunkOverlap > 0 {
			p.chunkOverlap = cfg.RAG.ChunkOverlap
		}
		if cfg.RAG.MinChunkChars > 0 {
			p.minChunkChars = cfg.RAG.MinChunkChars
		}
	}

	var (
		pages []page
		err   error
	)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		pages, err = extractPDF(filePath)
	case ".docx":
		pages, err = extractDOCX(filePath)
	case ".pptx":
		pages, err = extractPPTX(filePath)
	case ".xlsx":
		pages, err = extractXLSX(filePath)
	case ".ods":
		pages, err = extractODS(filePath)
	case ".txt":
		pages, err = extractText(filePath)
	default:
		return nil, 0, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, 0, err
	}

	var chunks []models.Chunk
	extracted := 0
	for _, pg := range pages {
		cleaned := CleanText(pg.text)
		if cleaned == "" {
			continue
		}
		extracted++
		chunks = append(chunks, p.getChunks(cleaned, pg.number)...)
	}
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("no text could be extracted from %s", filepath.Base(filePath))
	}
	return chunks, extracted, nil
}

// SupportedExt reports whether the file extension has a registered extractor
func SupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".pptx", ".xlsx", ".ods", ".txt":
		return true
	}
	return false
}

func extractPDF(filePath string) ([]page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		pg := reader.Page(i)
		if pg.V.IsNull() {
			continue
		}
		pageText, err := pg.GetPlainText(nil)
		if err != nil {
			// page-level extraction failures skip the page, not the document
			continue
		}
		pages = append(pages, page{number: i, text: pageText})
	}
	return pages, nil
}

func extractDOCX(filePath string) ([]page, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc := r.Editable()
	return []page{{number: defaultPageNumber, text: doc.GetContent()}}, nil
}

func extractPPTX(filePath string) ([]page, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []page
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideNum++
		pages = append(pages, page{number: slideNum, text: extractTextFromXML(string(data))})
	}
	return pages, nil
}

func extractXLSX(filePath string) ([]page, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var pages []page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet %s. ", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, page{number: sheetNum + 1, text: text.String()})
	}
	return pages, nil
}

func extractODS(filePath string) ([]page, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet %s. ", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, page{number: sheetNum + 1, text: text.String()})
	}
	return pages, nil
}

func extractText(filePath string) ([]page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return []page{{number: defaultPageNumber, text: string(data)}}, nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// chunk content into chunks with maxChars and overlapChars
func chunkContent(content string, maxChars, overlapChars int) []string {
	// Handle edge cases
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2 // Reasonable default to avoid excessive overlap
	}
	if len(content) == 0 {
		return nil
	}

	var chunks []string
	content = strings.TrimSpace(content)
	contentLen := len(content)

	// If content is shorter than maxChars, return it as a single chunk
	if contentLen <= maxChars {
		return []string{content}
	}

	// Iterate through content, creating chunks with overlap
	start := 0
	for start < contentLen {
		// Calculate end index, ensuring it doesn't exceed content length
		end := min(start+maxChars, contentLen)

		// Find a clean break point (e.g., end of a word or sentence) if possible
		if end < contentLen {
			// Look for a space or punctuation within the last 10% of the chunk
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		// Extract the chunk and append it
		chunk := strings.TrimSpace(content[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Move start forward, accounting for overlap
		start += maxChars - overlapChars
		if start >= contentLen {
			break
		}
	}

	return chunks
}

// get chunks from content and page number, dropping fragments too short
// to be worth retrieving
func (p *parserConfig) getChunks(content string, pageNumber int) []models.Chunk {
	var chunks []models.Chunk

	chunkStrings := chunkContent(content, p.chunkSize, p.chunkOverlap)
	id := 0
	for _, chunkString := range chunkStrings {
		if len(chunkString) <= p.minChunkChars {
			continue
		}
		id++
		chunks = append(chunks, models.Chunk{
			Content:    chunkString,
			PageNumber: pageNumber,
			ChunkID:    id,
		})
	}

	return chunks
}
