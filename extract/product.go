package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crawlworks/reviewharvest/models"
)

// Product-info sentinels. These differ from the review-field sentinels to
// keep the CSV output self-describing.
const (
	sentinelName     = "Name not found"
	sentinelPrice    = "Price not found"
	sentinelMRP      = "MRP not found"
	sentinelDiscount = "Discount not found"
	sentinelSeller   = "Seller not found"
	sentinelRating   = "Rating not found"
)

var productFields = struct {
	name, price, mrp, discount, seller, rating FieldStrategy
	specRows                                   Rule
	specCells                                  Rule
}{
	name:      FieldStrategy{Rules: []Rule{Sel("h1.product_name", CollapseWhitespace)}, Sentinel: sentinelName},
	price:     FieldStrategy{Rules: []Rule{Sel("span.f_price")}, Sentinel: sentinelPrice},
	mrp:       FieldStrategy{Rules: []Rule{Sel("span#sec_discounted_price_display")}, Sentinel: sentinelMRP},
	discount:  FieldStrategy{Rules: []Rule{Sel("span.prd_discount")}, Sentinel: sentinelDiscount},
	seller:    FieldStrategy{Rules: []Rule{Sel("a#seller_name")}, Sentinel: sentinelSeller},
	rating:    FieldStrategy{Rules: []Rule{Sel("span.rating_num", TrimParens)}, Sentinel: sentinelRating},
	specRows:  Sel("div.prd_detls_tb table tr"),
	specCells: Sel("td"),
}

// ExtractProductInfo reads the product metadata block and specification
// table from a product page. Every field is populated, with sentinels for
// anything the markup no longer exposes. Specification rows keep their
// source order.
func ExtractProductInfo(doc *goquery.Document, pageURL string) *models.ProductInfo {
	apply := func(f FieldStrategy) string {
		v, _ := f.Apply(doc.Selection)
		return v
	}

	info := &models.ProductInfo{
		Name:     apply(productFields.name),
		Price:    apply(productFields.price),
		MRP:      apply(productFields.mrp),
		Discount: apply(productFields.discount),
		Seller:   apply(productFields.seller),
		Rating:   apply(productFields.rating),
		URL:      pageURL,
	}

	doc.FindMatcher(productFields.specRows.matcher).Each(func(_ int, row *goquery.Selection) {
		cells := row.FindMatcher(productFields.specCells.matcher)
		if cells.Length() < 2 {
			return
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if key == "" {
			return
		}
		info.Specs = append(info.Specs, models.SpecEntry{Key: key, Value: value})
	})

	return info
}
