package source

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-enry/go-enry/v2"

	"notebook/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// Classify maps a file to its MimeClass from its name, falling back to
// content sniffing for names without an extension.
func Classify(name string, content []byte) (domain.MimeClass, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		if !bytes.HasPrefix(content, pdfMagic) {
			return "", &domain.UnsupportedInputError{Name: name, Reason: "not a PDF file"}
		}
		return domain.MimePdf, nil
	case ".txt", ".text":
		return textClass(name, content, domain.MimePlainText)
	case ".md", ".markdown":
		return textClass(name, content, domain.MimeMarkdown)
	case "":
		if bytes.HasPrefix(content, pdfMagic) {
			return domain.MimePdf, nil
		}
		return textClass(name, content, domain.MimePlainText)
	}

	switch lang, _ := enry.GetLanguageByExtension(name); lang {
	case "Markdown":
		return textClass(name, content, domain.MimeMarkdown)
	case "Text":
		return textClass(name, content, domain.MimePlainText)
	}
	return "", &domain.UnsupportedInputError{Name: name, Reason: "only PDF, plain text and Markdown files are supported"}
}

func textClass(name string, content []byte, class domain.MimeClass) (domain.MimeClass, error) {
	if enry.IsBinary(content) || !utf8.Valid(content) {
		return "", &domain.UnsupportedInputError{Name: name, Reason: "binary content"}
	}
	return class, nil
}
