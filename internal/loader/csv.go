package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/koba/table-diff/internal/schema"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV reads comma separated files. Every record must have as many fields as the header.
type CSV struct{}

func (CSV) Name() string { return "csv" }
func (CSV) Extensions() []string { return []string{".csv"} }
func (c CSV) CanHandle(name string) bool { return hasExtension(name, c.Extensions()) }
func (CSV) Options(File) (Options, error) { return Options{}, nil }

func (CSV) Read(f File, _ ReadOptions) (*schema.Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(f.Data, utf8BOM)))
	r.FieldsPerRecord = 0

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	headers = uniqueHeaders(headers)

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		records = append(records, rec)
	}

	return schema.FromText(f.Name, headers, records)
}
