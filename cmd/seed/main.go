// seed copia un directorio de datos CSV a PostgreSQL.
//
// Uso: go run ./cmd/seed --data ./data [--append-purchases]
//
// Aplica las migraciones, sobrescribe mermas, productos, escandallos y márgenes, y
// carga el histórico de compras. Si la base ya tiene compras no las duplica salvo
// con --append-purchases.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/jhoicas/pvp-api/internal/domain/repository"
	"github.com/jhoicas/pvp-api/internal/infrastructure/csvstore"
	"github.com/jhoicas/pvp-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pvp-api/pkg/config"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

func main() {
	dataDir := flag.StringP("data", "d", "", "directorio con los CSV (por defecto DATA_DIR)")
	encoding := flag.String("encoding", "", "codificación de los CSV (por defecto STORE_ENCODING)")
	appendPurchases := flag.Bool("append-purchases", false, "añadir compras aunque la base ya tenga histórico")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	if *dataDir == "" {
		*dataDir = cfg.Store.DataDir
	}
	if *encoding == "" {
		*encoding = cfg.Store.Encoding
	}
	enc, err := csvstore.ParseEncoding(*encoding)
	if err != nil {
		log.Fatal().Err(err).Msg("codificación de los CSV")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	src, err := csvstore.New(*dataDir, enc)
	if err != nil {
		log.Fatal().Err(err).Msg("directorio de datos")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	log.Info().Strs("files", applied).Msg("migraciones aplicadas")

	if err := seed(ctx, src.Repositories(), postgres.NewStore(pool), *appendPurchases, log); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Str("dir", src.Dir()).Msg("seed completado")
}

// seed copia las tablas de src a dst. Las tablas maestras se sobrescriben; las
// compras sólo se añaden si dst no tiene histórico o appendPurchases es true.
func seed(ctx context.Context, src, dst repository.Store, appendPurchases bool, log *logger.Logger) error {
	yields, err := src.Yields.List(ctx)
	if err != nil {
		return fmt.Errorf("leer mermas: %w", err)
	}
	if err := dst.Yields.ReplaceAll(ctx, yields); err != nil {
		return fmt.Errorf("guardar mermas: %w", err)
	}

	recipes, err := src.Recipes.List(ctx)
	if err != nil {
		return fmt.Errorf("leer productos: %w", err)
	}
	if err := dst.Recipes.ReplaceAll(ctx, recipes); err != nil {
		return fmt.Errorf("guardar productos: %w", err)
	}

	lines, err := src.RecipeLines.List(ctx)
	if err != nil {
		return fmt.Errorf("leer escandallos: %w", err)
	}
	if err := dst.RecipeLines.ReplaceAll(ctx, lines); err != nil {
		return fmt.Errorf("guardar escandallos: %w", err)
	}

	margins, err := src.CategoryMargins.List(ctx)
	if err != nil {
		return fmt.Errorf("leer márgenes: %w", err)
	}
	if err := dst.CategoryMargins.ReplaceAll(ctx, margins); err != nil {
		return fmt.Errorf("guardar márgenes: %w", err)
	}
	log.Info().
		Int("yields", len(yields)).
		Int("recipes", len(recipes)).
		Int("recipe_lines", len(lines)).
		Int("category_margins", len(margins)).
		Msg("tablas maestras copiadas")

	purchases, err := src.Purchases.List(ctx)
	if err != nil {
		return fmt.Errorf("leer compras: %w", err)
	}
	existing, err := dst.Purchases.List(ctx)
	if err != nil {
		return fmt.Errorf("leer compras destino: %w", err)
	}
	if len(existing) > 0 && !appendPurchases {
		log.Warn().Int("existing", len(existing)).Msg("el destino ya tiene compras: no se añaden (usar --append-purchases)")
		return nil
	}
	if err := dst.Purchases.Append(ctx, purchases...); err != nil {
		return fmt.Errorf("guardar compras: %w", err)
	}
	log.Info().Int("purchases", len(purchases)).Msg("compras copiadas")
	return nil
}
