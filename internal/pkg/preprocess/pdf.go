package preprocess

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// RasterizePDF renders every page of a PDF to a JPEG next to the source
// file and returns the page file paths in order. Page files are named
// <base>_page<N>.jpg starting at 1.
func RasterizePDF(pdfPath string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", pdfPath, err)
	}
	defer doc.Close()

	base := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath))
	pages := make([]string, 0, doc.NumPage())

	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d of %s: %w", n+1, pdfPath, err)
		}
		pagePath := fmt.Sprintf("%s_page%d.jpg", base, n+1)
		if err := imaging.Save(img, pagePath, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return nil, fmt.Errorf("saving page %d of %s: %w", n+1, pdfPath, err)
		}
		pages = append(pages, pagePath)
	}

	return pages, nil
}
