// Command manage runs operator tasks against the mailing admin database:
// schema migrations, account setup, token minting and manual dispatch.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/app"
	"github.com/ignite/mailing-admin/internal/config"
	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/logger"
	"github.com/ignite/mailing-admin/internal/repository/postgres"
	"github.com/ignite/mailing-admin/internal/service/user"
)

const usage = `usage: manage <command> [flags]

commands:
  migrate        [-dir migrations] [-list]
  create-user    -email E -username U -password P [-superuser]
  grant-manager  -email E
  revoke-manager -email E
  issue-token    -email E [-ttl 12h]
  dispatch       -mailing ID [-as E]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Redact())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()
	switch cmd {
	case "migrate":
		err = runMigrate(ctx, cfg, zl, args)
	case "create-user", "grant-manager", "revoke-manager", "issue-token", "dispatch":
		err = withApp(ctx, cfg, zl, func(a *app.App) error {
			switch cmd {
			case "create-user":
				return runCreateUser(ctx, a, args)
			case "grant-manager":
				return runRole(ctx, a, args, true)
			case "revoke-manager":
				return runRole(ctx, a, args, false)
			case "issue-token":
				return runIssueToken(ctx, a, args)
			default:
				return runDispatch(ctx, a, args)
			}
		})
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		zl.Fatal(cmd+" failed", zap.Error(err))
	}
}

func withApp(ctx context.Context, cfg *config.Config, zl *zap.Logger, fn func(*app.App) error) error {
	a, err := app.New(ctx, cfg, prometheus.NewRegistry(), zl)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// runMigrate applies every .sql file in dir in lexical order, each in its
// own transaction.
func runMigrate(ctx context.Context, cfg *config.Config, zl *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := fs.String("dir", "migrations", "directory holding .sql files")
	listOnly := fs.Bool("list", false, "list tables instead of migrating")
	fs.Parse(args)

	db, err := postgres.Open(ctx, cfg.Database.URL, 2, 1)
	if err != nil {
		return err
	}
	defer db.Close()
	zl.Info("connected to database")

	if *listOnly {
		return listTables(ctx, db)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		return fmt.Errorf("read migrations dir %s: %w", *dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var okCount, errCount int
	for _, f := range files {
		path := filepath.Join(*dir, f)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		if _, err := tx.ExecContext(ctx, string(data)); err != nil {
			tx.Rollback()
			zl.Error("migration failed", zap.String("file", f), zap.Error(err))
			errCount++
			continue
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		zl.Info("migration applied", zap.String("file", f))
		okCount++
	}
	zl.Info("migrations complete", zap.Int("ok", okCount), zap.Int("errors", errCount))
	if errCount > 0 {
		return fmt.Errorf("%d migration(s) failed", errCount)
	}
	return nil
}

func listTables(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename`)
	if err != nil {
		return err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return err
		}
		fmt.Println(" ", t)
		n++
	}
	fmt.Printf("Total: %d tables\n", n)
	return rows.Err()
}

func runCreateUser(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := fs.String("email", "", "login email")
	username := fs.String("username", "", "unique username")
	password := fs.String("password", "", "password (min 8 characters)")
	superuser := fs.Bool("superuser", false, "grant full access")
	fs.Parse(args)

	u, err := a.Users.Create(ctx, user.CreateInput{
		ProfileInput: user.ProfileInput{Email: *email, Username: *username},
		Password:     *password,
		Superuser:    *superuser,
	})
	if err != nil {
		return err
	}
	fmt.Println(u.ID)
	return nil
}

func runRole(ctx context.Context, a *app.App, args []string, grant bool) error {
	fs := flag.NewFlagSet("role", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	fs.Parse(args)

	if grant {
		return a.Users.GrantRole(ctx, *email, domain.RoleManager)
	}
	return a.Users.RevokeRole(ctx, *email, domain.RoleManager)
}

func runIssueToken(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	ttl := fs.Duration("ttl", a.Config.Auth.TokenTTL(), "token lifetime")
	fs.Parse(args)

	if a.Tokens == nil {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is not configured")
	}
	u, err := a.Users.ByEmail(ctx, *email)
	if err != nil {
		return err
	}
	tok, err := a.Tokens.Issue(u, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

// runDispatch sends a mailing from the command line. Without -as it acts as
// an operator with full access; the window guard still applies.
func runDispatch(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("dispatch", flag.ExitOnError)
	mailingID := fs.String("mailing", "", "mailing id")
	as := fs.String("as", "", "act as this account instead of the operator")
	fs.Parse(args)

	id, err := uuid.Parse(*mailingID)
	if err != nil {
		return fmt.Errorf("invalid mailing id %q", *mailingID)
	}

	actor := domain.Identity{UserID: uuid.New(), Email: "operator@localhost", Superuser: true}
	if *as != "" {
		u, err := a.Users.ByEmail(ctx, *as)
		if err != nil {
			return err
		}
		actor = u.Identity()
	}

	start := time.Now()
	sum, err := a.Dispatcher.Dispatch(ctx, actor, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
