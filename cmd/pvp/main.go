// pvp calcula la tabla de PVP sugeridos sobre un directorio de datos CSV, sin servidor.
//
// Uso:
//
//	pvp --data ./data [--overhead 0.10] [--format table|json|xlsx|pdf] [--out fichero]
//
// Sin compras registradas imprime el aviso de datos insuficientes y termina con código 0.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/application/pricing"
	"github.com/jhoicas/pvp-api/internal/infrastructure/csvstore"
	infrapdf "github.com/jhoicas/pvp-api/internal/infrastructure/pdf"
	infraxlsx "github.com/jhoicas/pvp-api/internal/infrastructure/xlsx"
	"github.com/jhoicas/pvp-api/pkg/config"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

type options struct {
	dataDir  string
	encoding string
	overhead string
	format   string
	out      string
	verbose  bool
}

func main() {
	var opt options
	flag.StringVarP(&opt.dataDir, "data", "d", "data", "directorio con los CSV y settings.yaml")
	flag.StringVar(&opt.encoding, "encoding", "utf-8", "codificación de los CSV (utf-8|latin1)")
	flag.StringVarP(&opt.overhead, "overhead", "o", "", "coste fijo por ración (por defecto el de settings.yaml)")
	flag.StringVarP(&opt.format, "format", "f", "table", "salida: table, json, xlsx o pdf")
	flag.StringVar(&opt.out, "out", "", "fichero de salida para xlsx/pdf (por defecto pvp_AAAAMMDD.<ext>)")
	flag.BoolVarP(&opt.verbose, "verbose", "v", false, "log de depuración en stderr")
	flag.Parse()

	if err := run(context.Background(), opt, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pvp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opt options, stdout io.Writer) error {
	level := "warn"
	if opt.verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Env: "development", Level: level, Out: os.Stderr})

	settings, err := config.LoadSettings(opt.dataDir)
	if err != nil {
		return err
	}
	enc, err := csvstore.ParseEncoding(opt.encoding)
	if err != nil {
		return err
	}
	store, err := csvstore.New(opt.dataDir, enc)
	if err != nil {
		return err
	}

	uc := pricing.NewUseCase(store.Repositories(), pricing.Config{
		CurrencySymbol:  settings.CurrencySymbol,
		DefaultOverhead: settings.DefaultOverhead,
		MaxOverhead:     decimal.NewFromInt(50),
	}, log)

	var overhead decimal.NullDecimal
	if opt.overhead != "" {
		overhead = csvstore.ParseDecimal(opt.overhead)
		if !overhead.Valid {
			return fmt.Errorf("--overhead %q no es un número", opt.overhead)
		}
	}

	switch opt.format {
	case "table", "json":
		resp, err := uc.PriceTable(ctx, overhead)
		if err != nil {
			return err
		}
		if opt.format == "json" {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		return printTable(stdout, resp)

	case "xlsx", "pdf":
		var r pricing.PriceListRenderer = infraxlsx.NewPriceListWriter()
		if opt.format == "pdf" {
			r = infrapdf.NewMarotoPriceList()
		}
		exp, err := uc.ExportPriceList(ctx, overhead, r)
		if err != nil {
			return err
		}
		path := opt.out
		if path == "" {
			path = exp.Filename
		}
		if err := os.WriteFile(path, exp.Body, 0o644); err != nil {
			return fmt.Errorf("escribir %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "%s (%d bytes)\n", path, len(exp.Body))
		return nil

	default:
		return fmt.Errorf("--format %q no soportado (table|json|xlsx|pdf)", opt.format)
	}
}

// printTable escribe la tabla alineada. Un "*" en la última columna marca coste incompleto.
func printTable(w io.Writer, resp *dto.PriceTableResponse) error {
	if resp.Status == dto.StatusInsufficientData {
		_, err := fmt.Fprintln(w, resp.Message)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Sección\tProducto\tCoste ingr.\tOverhead\tCoste total\tMargen\tIVA\tPrecio s/IVA\tPVP\tFalta coste")
	for _, r := range resp.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Category, r.DisplayName,
			r.Display.CostIngredients, r.Display.Overhead, r.Display.CostTotal,
			r.Display.Margin, r.Display.IVA, r.Display.PriceExclTax, r.Display.PVP,
			r.Display.MissingCost)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range resp.Rows {
		if len(r.MissingLines) > 0 {
			fmt.Fprintf(w, "%s sin coste: %s\n", r.ItemKey, strings.Join(r.MissingLines, ", "))
		}
	}
	return nil
}
