// Package export serializes crawl results to CSV. Column and row order are
// fixed so repeated exports of the same result are byte-identical.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/crawlworks/reviewharvest/models"
)

var reviewHeader = []string{"reviewer", "title", "rating", "date", "text"}

var productReviewHeader = []string{"reviewer_name", "rating", "date", "verified_status", "review_content"}

var productInfoHeader = []string{"product_name", "price", "mrp", "discount", "seller_name", "rating", "url"}

// WriteReviews writes the flat review dataset shape: one header row and
// one row per record, in crawl order.
func WriteReviews(w io.Writer, result *models.CrawlResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(reviewHeader); err != nil {
		return models.NewCrawlError(models.ErrCodeExport, "write header", err)
	}
	for _, r := range result.Records {
		if err := cw.Write([]string{r.Reviewer, r.Title, r.Rating, r.Date, r.Text}); err != nil {
			return models.NewCrawlError(models.ErrCodeExport, "write record", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return models.NewCrawlError(models.ErrCodeExport, "flush", err)
	}
	return nil
}

// WriteProduct writes the three-section product dataset shape: product
// info, the specification table, and review rows, separated by blank
// rows. Specification rows keep first-seen order.
func WriteProduct(w io.Writer, result *models.CrawlResult) error {
	cw := csv.NewWriter(w)
	info := result.Product
	if info == nil {
		info = &models.ProductInfo{}
	}

	rows := [][]string{
		{"PRODUCT INFORMATION"},
		productInfoHeader,
		{info.Name, info.Price, info.MRP, info.Discount, info.Seller, info.Rating, info.URL},
	}

	if len(info.Specs) > 0 {
		rows = append(rows, []string{}, []string{"SPECIFICATIONS"})
		for _, spec := range info.Specs {
			rows = append(rows, []string{spec.Key, spec.Value})
		}
	}

	if len(result.Records) > 0 {
		rows = append(rows, []string{}, []string{"PRODUCT REVIEWS"}, productReviewHeader)
		for _, r := range result.Records {
			rows = append(rows, []string{r.Reviewer, r.Rating, r.Date, r.Verified, r.Text})
		}
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return models.NewCrawlError(models.ErrCodeExport, "write row", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return models.NewCrawlError(models.ErrCodeExport, "flush", err)
	}
	return nil
}

// SaveFile writes the result to path, choosing the dataset shape by
// whether a product block is present. An empty path derives the filename
// from the subject title.
func SaveFile(path string, result *models.CrawlResult) (string, error) {
	if path == "" {
		path = Filename(result.Title)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeExport, fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()

	if result.Product != nil {
		err = WriteProduct(f, result)
	} else {
		err = WriteReviews(f, result)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

var reUnsafe = regexp.MustCompile(`[^\w\s-]`)

// Filename derives a CSV filename from a subject title.
func Filename(title string) string {
	clean := reUnsafe.ReplaceAllString(title, "")
	clean = strings.Join(strings.Fields(clean), "_")
	if clean == "" {
		clean = "reviews"
	}
	return clean + "_reviews.csv"
}
