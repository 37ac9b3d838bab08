// Package importers loads CSV files into chamber models.
//
// A row is turned into field values by position: the n-th cell goes to the
// n-th name in Fields. Cells are trimmed; cells missing at the end of a short
// row are passed to the converters as nil. Rows consisting of empty cells
// only are skipped.
package importers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ridge/chamber"
	"github.com/ridge/chamber/fields"
	"github.com/ridge/chamber/meta"
	"go.uber.org/zap"
)

// DefaultDelimiter separates the cells of a row unless configured otherwise
const DefaultDelimiter = ';'

// CleanFunc converts one cell into a field value. The cell is nil if the row
// is too short to have it. A nil result stores the zero value.
type CleanFunc func(cell *string) (any, error)

// Source describes the layout of a CSV file
type Source struct {
	// Fields names the field each column goes to
	Fields []string
	// Clean overrides the conversion of the cells of some fields
	Clean map[string]CleanFunc
	// Delimiter defaults to DefaultDelimiter
	Delimiter rune
	// NoHeader tells that the first row is data, not column titles
	NoHeader bool
}

type rowFunc func(line int, values map[string]any) error

func readFile(path string, read func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return read(f)
}

// read parses rows of r and calls fn with the converted values of each
func (src Source) read(kind *chamber.Kind, r io.Reader, fn rowFunc) error {
	converters := make([]CleanFunc, len(src.Fields))
	for i, name := range src.Fields {
		f, ok := kind.Field(name)
		if !ok {
			panic(fmt.Errorf("%s has no field %s", kind, name))
		}
		converters[i] = src.Clean[name]
		if converters[i] == nil {
			converters[i] = convertTo(f)
		}
	}

	reader := csv.NewReader(r)
	reader.Comma = src.Delimiter
	if reader.Comma == 0 {
		reader.Comma = DefaultDelimiter
	}
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	for first := true; ; first = false {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := reader.FieldPos(0)
		if first && !src.NoHeader {
			continue
		}
		if blank(row) {
			continue
		}
		values := make(map[string]any, len(src.Fields))
		for i, name := range src.Fields {
			var cell *string
			if i < len(row) {
				trimmed := strings.TrimSpace(row[i])
				cell = &trimmed
			}
			value, err := converters[i](cell)
			if err != nil {
				return fmt.Errorf("line %d, field %s: %w", line, name, err)
			}
			values[name] = value
		}
		if err := fn(line, values); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var (
	decimalType = reflect.TypeOf(fields.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
)

// convertTo returns the default conversion of cells into values of a field.
// Empty cells give zero values.
func convertTo(f meta.Field) CleanFunc {
	t := f.Type
	return func(cell *string) (any, error) {
		if cell == nil {
			return nil, nil
		}
		s := *cell
		if t.Kind() == reflect.String {
			return reflect.ValueOf(s).Convert(t).Interface(), nil
		}
		if s == "" {
			return nil, nil
		}
		switch {
		case t == decimalType:
			return fields.ParseDecimal(s)
		case t == timeType:
			return time.Parse(time.RFC3339, s)
		}
		switch t.Kind() {
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(b).Convert(t).Interface(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		case reflect.Float32, reflect.Float64:
			n, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		}
		return nil, fmt.Errorf("no conversion from text to %s", t)
	}
}

// Importer updates or creates one record per CSV row, running the full save
// sequence of the model for each
type Importer[T any] struct {
	Source

	Model *chamber.Model[T]
	// QueryFields select the record to update, all Fields by default
	QueryFields []string
	// UpdateFields are set on the found or created record
	UpdateFields []string
}

// Import reads rows from r. Returns the numbers of created and updated records.
func (imp Importer[T]) Import(ctx context.Context, r io.Reader) (created, updated int, err error) {
	query := imp.QueryFields
	if len(query) == 0 {
		query = imp.Fields
	}
	err = imp.read(imp.Model.Kind(), r, func(line int, values map[string]any) error {
		_, isNew, err := imp.Model.UpdateOrCreate(ctx, pick(values, query), pick(values, imp.UpdateFields))
		if err != nil {
			return err
		}
		if isNew {
			created++
		} else {
			updated++
		}
		return nil
	})
	imp.Model.DB().Logger(ctx).Info("CSV imported", zap.String("kind", imp.Model.Kind().DBName),
		zap.Int("created", created), zap.Int("updated", updated), zap.Error(err))
	return created, updated, err
}

// ImportFile imports a CSV file
func (imp Importer[T]) ImportFile(ctx context.Context, path string) (created, updated int, err error) {
	err = readFile(path, func(r io.Reader) error {
		created, updated, err = imp.Import(ctx, r)
		return err
	})
	return created, updated, err
}

func pick(values map[string]any, names []string) map[string]any {
	res := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := values[name]; ok {
			res[name] = v
		}
	}
	return res
}
