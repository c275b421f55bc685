package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/textutil"
)

// FileBudget is the number of document characters kept per upload.
const FileBudget = 2000

// File is an uploaded document.
type File struct {
	Name string
	Data []byte
}

// Type returns the lower-cased extension without the dot.
func (f File) Type() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

var ErrNotUTF8 = errors.New("extract: text is not valid UTF-8")

// FileText extracts plain text from txt, md, pdf and docx uploads. Other
// types yield empty text.
func FileText(f File) (string, error) {
	switch f.Type() {
	case "txt", "md":
		if !utf8.Valid(f.Data) {
			return "", ErrNotUTF8
		}
		return string(f.Data), nil
	case "pdf":
		return pdfText(f.Data)
	case "docx":
		return docxText(f.Data)
	}
	return "", nil
}

// FileBlock renders the upload as the context block appended to a prompt.
// A nil file yields "". Parse failures are rendered inline and returned.
func FileBlock(f *File) (string, error) {
	if f == nil {
		return "", nil
	}
	text, err := FileText(*f)
	if err != nil {
		return fmt.Sprintf("File reading error: %v", err), err
	}
	return fmt.Sprintf("\n--- FILE CONTEXT (%s) ---\n%s...\n---", f.Name, textutil.Truncate(text, FileBudget)), nil
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: pdf: %w", err)
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		t, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract: pdf page %d: %w", i, err)
		}
		pages = append(pages, t)
	}
	return strings.Join(pages, "\n"), nil
}

// docxText returns the paragraphs of word/document.xml joined by newlines.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: docx: %w", err)
	}
	var doc *zip.File
	for _, zf := range zr.File {
		if zf.Name == "word/document.xml" {
			doc = zf
			break
		}
	}
	if doc == nil {
		return "", errors.New("extract: docx: word/document.xml missing")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("extract: docx: %w", err)
	}
	defer rc.Close()

	var (
		paras   []string
		current strings.Builder
		inText  bool
		inPara  bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract: docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara {
					paras = append(paras, current.String())
				}
				inPara = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}
