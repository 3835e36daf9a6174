package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

func init() {
	// Load .env file from the current directory
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	if key := os.Getenv("UNIDOC_LICENSE_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
		}
	}
}

// PageText is the extracted text of one page of a document. Plain-text
// files count as a single page.
type PageText struct {
	Number int
	Text   string
}

// IsSupportedFileType reports whether uploads with this extension are
// accepted.
func IsSupportedFileType(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf", "txt", "md":
		return true
	default:
		return false
	}
}

// ExtractPages reads a file and returns its text content page by page.
// It automatically handles the supported file types.
func ExtractPages(path string) ([]PageText, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []PageText{{Number: 1, Text: string(content)}}, nil
	case ".pdf":
		return extractPagesFromPDF(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// extractPagesFromPDF uses UniPDF to get the text of every page.
func extractPagesFromPDF(path string) ([]PageText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	pages := make([]PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, err
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, err
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, err
		}
		pages = append(pages, PageText{Number: i, Text: text})
	}

	return pages, nil
}
