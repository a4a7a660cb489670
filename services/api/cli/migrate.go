package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-drive-quest/internal/catalog"
	"github.com/ramiqadoumi/go-drive-quest/internal/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and seed levels and missions",
	Long: `Connect to PostgreSQL, apply schema migrations and upsert the level and
mission definitions from the embedded catalog.

Reads the DSN from --postgres-dsn flag, DRIVEQUEST_POSTGRES_DSN env var, or config file.`,
	RunE: runMigrate,
}

func runMigrate(_ *cobra.Command, _ []string) error {
	dsn := viper.GetString("postgres_dsn")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	for _, f := range applied {
		fmt.Printf("applied %s\n", f)
	}

	if err := postgres.NewMissionRepository(pool).Seed(ctx, cat.Levels(), cat.Missions()); err != nil {
		return fmt.Errorf("seed missions: %w", err)
	}
	fmt.Printf("seeded %d levels, %d missions\n", len(cat.Levels()), len(cat.Missions()))
	fmt.Println("migrations complete")
	return nil
}
