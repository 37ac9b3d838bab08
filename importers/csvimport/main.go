// Package csvimport is a command line tool loading a CSV file of name and
// number pairs into an in-memory database
package csvimport

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/ridge/chamber"
	"github.com/ridge/chamber/importers"
	"github.com/ridge/chamber/run"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Record is a row of the imported file
type Record struct {
	chamber.Meta `chamber:"name=csv_record"`

	ID     string `chamber:"identity"`
	Name   string
	Number int
}

// KindRecord is the kind of imported rows
var KindRecord = chamber.KindOf(Record{}, chamber.Index("Name"))

// Config describes the import tool configuration
type Config struct {
	File      string
	Bulk      bool
	Delimiter rune
}

// Result counts imported records
type Result struct {
	Created, Updated, Total int
}

// Main handles the command line and runs the import tool
func Main(args []string) {
	var cfg Config
	var delimiter string
	pflag.StringVar(&cfg.File, "file", "", "CSV file to import")
	pflag.BoolVar(&cfg.Bulk, "bulk", false, "Create all rows in batches, skipping validation and hooks")
	pflag.StringVar(&delimiter, "delimiter", string(importers.DefaultDelimiter), "Cell delimiter")
	_ = pflag.CommandLine.Parse(args[1:])

	if cfg.File == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(2)
	}
	r, size := utf8.DecodeRuneInString(delimiter)
	if size == 0 || size != len(delimiter) {
		fmt.Fprintf(os.Stderr, "--delimiter must be a single character, not %q\n", delimiter)
		os.Exit(2)
	}
	cfg.Delimiter = r

	run.Tool(func(ctx context.Context) error {
		_, err := Run(ctx, cfg)
		return err
	})
}

// Run imports the file into a fresh database
func Run(ctx context.Context, cfg Config) (Result, error) {
	db := chamber.New(chamber.Config{Kinds: chamber.KindList{KindRecord}})
	model := chamber.NewModel[Record](db, KindRecord)
	src := importers.Source{
		Fields:    []string{"Name", "Number"},
		Delimiter: cfg.Delimiter,
	}

	var res Result
	var err error
	if cfg.Bulk {
		res.Created, err = importers.BulkImporter[Record]{Source: src, Model: model}.ImportFile(ctx, cfg.File)
	} else {
		imp := importers.Importer[Record]{Source: src, Model: model, QueryFields: []string{"Name"}, UpdateFields: []string{"Number"}}
		res.Created, res.Updated, err = imp.ImportFile(ctx, cfg.File)
	}
	if err != nil {
		return res, err
	}
	res.Total = model.Count(ctx)
	db.Logger(ctx).Info("Import finished", zap.String("file", cfg.File), zap.Bool("bulk", cfg.Bulk),
		zap.Int("created", res.Created), zap.Int("updated", res.Updated), zap.Int("total", res.Total))
	return res, nil
}
