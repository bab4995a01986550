package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"productview/catalog/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

var (
	priceRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
	idRegex    = regexp.MustCompile(`\d+`)
)

// productParser reads product tables rendered as HTML. Each product is a row
// carrying a data-product-id attribute, with name, category, price and stock
// cells marked by class.
type productParser struct {
	baseURL string
}

func newProductParser(baseURL string) *productParser {
	return &productParser{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// HTMLDecoder returns a decoder for HTML product tables. Relative image
// URLs are resolved against baseURL.
func HTMLDecoder(baseURL string) func([]byte) ([]domain.Product, error) {
	parser := newProductParser(baseURL)
	return func(data []byte) ([]domain.Product, error) {
		return parser.ParseProductTable(string(data))
	}
}

func (p *productParser) ParseProductTable(html string) ([]domain.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	rows := doc.Find("tr[data-product-id]")
	if rows.Length() == 0 && doc.Find("table.products").Length() == 0 {
		return nil, fmt.Errorf("no product table found")
	}

	products := make([]domain.Product, 0, rows.Length())
	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		product, err := p.extractProduct(row)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", i+1, err)
			return false
		}
		products = append(products, product)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	log.Debugf("Parsed product table with %d products", len(products))
	return products, nil
}

func (p *productParser) extractProduct(row *goquery.Selection) (domain.Product, error) {
	var product domain.Product

	rawID, _ := row.Attr("data-product-id")
	id, err := strconv.ParseInt(idRegex.FindString(rawID), 10, 64)
	if err != nil {
		return product, fmt.Errorf("invalid product id %q", rawID)
	}
	product.ID = id

	product.Name = strings.TrimSpace(row.Find(".name").First().Text())
	product.Category = strings.TrimSpace(row.Find(".category").First().Text())

	// Prices look like "$1,299.00"
	priceText := strings.ReplaceAll(row.Find(".price").First().Text(), ",", "")
	match := priceRegex.FindString(priceText)
	if match == "" {
		return product, fmt.Errorf("product %d has no price", id)
	}
	if product.Price, err = strconv.ParseFloat(match, 64); err != nil {
		return product, fmt.Errorf("product %d has invalid price %q", id, match)
	}

	product.InStock = p.extractStock(row)

	if src, exists := row.Find("img").First().Attr("src"); exists && src != "" {
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		} else if strings.HasPrefix(src, "/") {
			src = p.baseURL + src
		}
		product.Image = src
	}

	return product, nil
}

func (p *productParser) extractStock(row *goquery.Selection) bool {
	if v, exists := row.Attr("data-in-stock"); exists {
		parsed, err := strconv.ParseBool(v)
		return err == nil && parsed
	}

	text := strings.ToLower(strings.TrimSpace(row.Find(".stock").First().Text()))
	switch {
	case strings.Contains(text, "out of stock"), strings.Contains(text, "sold out"):
		return false
	case strings.Contains(text, "in stock"), text == "yes", text == "available":
		return true
	default:
		return false
	}
}
