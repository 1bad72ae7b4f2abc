package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"biomarket/internal/domain"
	offersvc "biomarket/internal/service/offer"
	productsvc "biomarket/internal/service/product"
	"github.com/shopspring/decimal"
)

type ProductCreator interface {
	Create(ctx context.Context, caller domain.Principal, in productsvc.Input) (int64, error)
}

type OfferPoster interface {
	Create(ctx context.Context, caller domain.Principal, in offersvc.Input) (*domain.Offer, error)
}

// Result counts what a run created.
type Result struct {
	Products int
	Offers   int
	Skipped  int
}

// CSVImporter loads a farm's catalogue from CSV. Columns: name, price and
// optionally quantity and photo. A row with a quantity posts an offer for its
// product; rows with an empty name post further offers for the product above.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductCreator
	offers   OfferPoster
	farmer   domain.Principal
}

func NewCSVImporter(r io.Reader, products ProductCreator, offers OfferPoster, farmer domain.Principal) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:   csvr,
		products: products,
		offers:   offers,
		farmer:   farmer,
	}
}

type csvRow struct {
	line     int
	name     string
	price    string
	quantity string
	photo    string
}

// Run creates products and offers row by row. Products whose name already
// exists on the farm are skipped together with their offer rows.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return res, errors.New("missing name column")
	}
	if _, ok := index["price"]; !ok {
		return res, errors.New("missing price column")
	}

	var (
		current int64
		line    = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index, line)
		if row == nil {
			continue
		}

		if row.name != "" {
			id, err := i.createProduct(ctx, row)
			switch {
			case errors.Is(err, domain.ErrAlreadyExists):
				res.Skipped++
				current = 0
				continue
			case err != nil:
				return res, err
			}
			res.Products++
			current = id
		}

		if row.quantity == "" || current == 0 {
			continue
		}
		if err := i.postOffer(ctx, current, row); err != nil {
			return res, err
		}
		res.Offers++
	}

	return res, nil
}

func (i *CSVImporter) createProduct(ctx context.Context, row *csvRow) (int64, error) {
	price, err := decimal.NewFromString(row.price)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid price %q: %w", row.line, row.price, domain.ErrInvalidInput)
	}
	id, err := i.products.Create(ctx, i.farmer, productsvc.Input{Name: row.name, Price: price})
	if err != nil {
		return 0, fmt.Errorf("row %d: create product %q: %w", row.line, row.name, err)
	}
	return id, nil
}

func (i *CSVImporter) postOffer(ctx context.Context, productID int64, row *csvRow) error {
	qty, err := decimal.NewFromString(row.quantity)
	if err != nil {
		return fmt.Errorf("row %d: invalid quantity %q: %w", row.line, row.quantity, domain.ErrInvalidInput)
	}
	_, err = i.offers.Create(ctx, i.farmer, offersvc.Input{
		ProductID:    productID,
		Quantity:     qty,
		ProductPhoto: row.photo,
	})
	if err != nil {
		return fmt.Errorf("row %d: post offer: %w", row.line, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	row := &csvRow{
		line:     line,
		name:     pick(record, index, "name"),
		price:    pick(record, index, "price"),
		quantity: pick(record, index, "quantity"),
		photo:    pick(record, index, "photo"),
	}
	if row.name == "" && row.quantity == "" {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
