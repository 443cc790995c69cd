package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tamojuntogames/accounts-api/internal/config"
	"github.com/tamojuntogames/accounts-api/internal/database"
	"github.com/tamojuntogames/accounts-api/internal/tools/common"
	"github.com/tamojuntogames/accounts-api/internal/tools/ui"
)

type options struct {
	envFile           string
	bootstrapEmail    string
	bootstrapPassword string
	ci                bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database bootstrap tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.bootstrapEmail, "bootstrap-email", "", "override bootstrap user email")
	cmd.PersistentFlags().StringVar(&opts.bootstrapPassword, "bootstrap-password", "", "override bootstrap user password")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Migrate the schema and provision the bootstrap user",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				email, password := resolveBootstrap(cfg, opts)
				report, err := database.Seed(db, email, password, cfg.BootstrapUserName, cfg.BootstrapUserNickname)
				if err != nil {
					return nil, err
				}
				details := []string{"schema migrated"}
				switch {
				case report.CreatedUser:
					details = append(details, "bootstrap user created: "+email)
				case email == "":
					details = append(details, "no bootstrap user configured, skipped")
				default:
					details = append(details, "bootstrap user already present: "+email)
				}
				return details, nil
			})
			if opts.ci {
				common.EmitReport(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, _, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email, _ := resolveBootstrap(cfg, opts)
				details := []string{"would migrate the users table"}
				if email != "" {
					details = append(details, fmt.Sprintf("would ensure bootstrap user exists: %s", email))
				} else {
					details = append(details, "no bootstrap user configured, would skip user creation")
				}
				return details, nil
			})
			if opts.ci {
				common.EmitReport(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func resolveBootstrap(cfg *config.Config, opts *options) (string, string) {
	email := cfg.BootstrapUserEmail
	if strings.TrimSpace(opts.bootstrapEmail) != "" {
		email = strings.TrimSpace(opts.bootstrapEmail)
	}
	password := cfg.BootstrapUserPassword
	if opts.bootstrapPassword != "" {
		password = opts.bootstrapPassword
	}
	return email, password
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
