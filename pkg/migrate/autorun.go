package migrate

import (
	"context"
	"fmt"

	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/db"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at startup when running in dev with
// auto-migrate enabled. Production deploys run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.DB.AutoMigrate {
		return nil
	}

	conn, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": Dir})
	logg.Info(ctx, "applying pending migrations (dev auto-run)")
	if err := Exec(ctx, conn, Dir, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrations up to date")
	return nil
}
