// Command cli is the gowallet admin tool. It talks to the stores directly,
// so it needs the same DATABASE_URL / REDIS_URL environment the server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/gowallet/internal/adapter/notifier"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/fraud"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gowallet-cli",
		Short: "gowallet admin tool",
		Long:  `Administers accounts, the currency catalog and ledger movements.`,
	}

	rootCmd.AddCommand(
		currencyCmd(),
		accountCmd(),
		movementCmd(),
		transactionCmd(),
		rescanCmd(),
		migrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired use cases behind one connection set.
type app struct {
	cfg *config.Config

	ledger       *usecase.LedgerUseCase
	accounts     *usecase.AccountUseCase
	currencies   *usecase.CurrencyUseCase
	transactions *usecase.TransactionUseCase
	scan         *usecase.FraudScanUseCase

	close func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	threshold, err := decimal.NewFromString(cfg.FraudLargeAmountThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse large amount threshold: %w", err)
	}
	margin, err := decimal.NewFromString(cfg.FraudDeviationMargin)
	if err != nil {
		return nil, fmt.Errorf("parse deviation margin: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	currencyRepo := postgresRepo.NewCurrencyRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	pipeline := fraud.NewDefaultPipeline(transactionRepo, fraud.Config{
		LargeAmountThreshold: threshold,
		VelocityLimit:        cfg.FraudVelocityLimit,
		VelocityWindow:       cfg.FraudVelocityWindow,
		DeviationWindow:      cfg.FraudDeviationWindow,
		DeviationMargin:      margin,
	})

	alertNotifier := notifier.NewLogNotifier(zerolog.New(os.Stderr))

	return &app{
		cfg: cfg,
		ledger: usecase.NewLedgerUseCase(
			txManager, accountRepo, transactionRepo, currencyRepo,
			pipeline, idGen, idempotencyStore, retrier,
		),
		accounts:     usecase.NewAccountUseCase(accountRepo, idGen),
		currencies:   usecase.NewCurrencyUseCase(currencyRepo, cache),
		transactions: usecase.NewTransactionUseCase(transactionRepo),
		scan:         usecase.NewFraudScanUseCase(transactionRepo, accountRepo, pipeline, alertNotifier, nil),
		close: func() {
			pool.Close()
			_ = redisClient.Close()
		},
	}, nil
}

// runWithApp wires the connections for the duration of one command.
func runWithApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		return fn(ctx, a, args)
	}
}

func currencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Currency catalog operations",
	}

	var symbol string
	createCmd := &cobra.Command{
		Use:   "create CODE NAME RATE",
		Short: "Add a currency to the catalog",
		Args:  cobra.ExactArgs(3),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			rate, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("parse rate: %w", err)
			}

			currency, err := a.currencies.CreateCurrency(ctx, usecase.CreateCurrencyInput{
				Code:         args[0],
				Name:         args[1],
				Symbol:       symbol,
				ExchangeRate: rate,
			})
			if err != nil {
				return err
			}

			fmt.Printf("created %s (%s) rate=%s\n", currency.Code, currency.Name, currency.ExchangeRate)
			return nil
		}),
	}
	createCmd.Flags().StringVar(&symbol, "symbol", "", "display symbol")

	var includeInactive bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			currencies, err := a.currencies.ListCurrencies(ctx, includeInactive)
			if err != nil {
				return err
			}

			for _, c := range currencies {
				state := "active"
				if !c.IsActive {
					state = "inactive"
				}
				fmt.Printf("%-5s %-24s rate=%-12s %s\n", c.Code, truncate(c.Name, 24), c.ExchangeRate, state)
			}
			return nil
		}),
	}
	listCmd.Flags().BoolVar(&includeInactive, "all", false, "include deactivated currencies")

	setRateCmd := &cobra.Command{
		Use:   "set-rate CODE RATE",
		Short: "Update the exchange rate",
		Args:  cobra.ExactArgs(2),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			rate, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("parse rate: %w", err)
			}

			if err := a.currencies.UpdateExchangeRate(ctx, args[0], rate); err != nil {
				return err
			}

			fmt.Printf("rate for %s set to %s\n", args[0], rate)
			return nil
		}),
	}

	activateCmd := &cobra.Command{
		Use:   "activate CODE",
		Short: "Reactivate a currency",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.currencies.SetCurrencyActive(ctx, args[0], true); err != nil {
				return err
			}
			fmt.Printf("%s activated\n", args[0])
			return nil
		}),
	}

	deactivateCmd := &cobra.Command{
		Use:   "deactivate CODE",
		Short: "Deactivate a currency; existing balances keep it queryable",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.currencies.SetCurrencyActive(ctx, args[0], false); err != nil {
				return err
			}
			fmt.Printf("%s deactivated\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(createCmd, listCmd, setRateCmd, activateCmd, deactivateCmd)

	return cmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	createCmd := &cobra.Command{
		Use:   "create NAME EMAIL",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			account, err := a.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
				Name:  args[0],
				Email: args[1],
			})
			if err != nil {
				return err
			}

			fmt.Printf("created account %s\n", account.ID)
			return nil
		}),
	}

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show an account with its balances",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			account, err := a.accounts.GetAccount(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s <%s>\n", account.ID, account.Name, account.Email)
			for _, b := range account.Balances {
				fmt.Printf("  %-5s %s\n", b.CurrencyCode, b.Amount)
			}
			return nil
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Soft delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.accounts.DeleteAccount(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("account %s deleted\n", args[0])
			return nil
		}),
	}

	restoreCmd := &cobra.Command{
		Use:   "restore ID",
		Short: "Restore a soft-deleted account",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.accounts.RestoreAccount(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("account %s restored\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(createCmd, getCmd, deleteCmd, restoreCmd)

	return cmd
}

func movementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movement",
		Short: "Ledger movements",
	}

	var description, idemKey string
	addMovementFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&description, "description", "", "free-form description")
		c.Flags().StringVar(&idemKey, "idempotency-key", "", "dedupe key for safe retries")
	}

	depositCmd := &cobra.Command{
		Use:   "deposit ACCOUNT AMOUNT CURRENCY",
		Short: "Deposit into an account",
		Args:  cobra.ExactArgs(3),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}

			record, err := a.ledger.Deposit(ctx, usecase.DepositInput{
				AccountID:      args[0],
				Amount:         amount,
				CurrencyCode:   args[2],
				Description:    description,
				IdempotencyKey: idemKey,
			})
			if err != nil {
				return err
			}

			printRecord(record)
			return nil
		}),
	}
	addMovementFlags(depositCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw ACCOUNT AMOUNT CURRENCY",
		Short: "Withdraw from an account",
		Args:  cobra.ExactArgs(3),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}

			record, err := a.ledger.Withdraw(ctx, usecase.WithdrawInput{
				AccountID:      args[0],
				Amount:         amount,
				CurrencyCode:   args[2],
				Description:    description,
				IdempotencyKey: idemKey,
			})
			if err != nil {
				return err
			}

			printRecord(record)
			return nil
		}),
	}
	addMovementFlags(withdrawCmd)

	transferCmd := &cobra.Command{
		Use:   "transfer SENDER RECIPIENT AMOUNT CURRENCY",
		Short: "Transfer between accounts",
		Args:  cobra.ExactArgs(4),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}

			record, err := a.ledger.Transfer(ctx, usecase.TransferInput{
				SenderID:       args[0],
				RecipientID:    args[1],
				Amount:         amount,
				CurrencyCode:   args[3],
				Description:    description,
				IdempotencyKey: idemKey,
			})
			if err != nil {
				return err
			}

			printRecord(record)
			return nil
		}),
	}
	addMovementFlags(transferCmd)

	exchangeCmd := &cobra.Command{
		Use:   "exchange ACCOUNT AMOUNT SOURCE TARGET",
		Short: "Exchange between currencies within an account",
		Args:  cobra.ExactArgs(4),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}

			record, err := a.ledger.Exchange(ctx, usecase.ExchangeInput{
				AccountID:      args[0],
				Amount:         amount,
				SourceCurrency: args[2],
				TargetCurrency: args[3],
				Description:    description,
				IdempotencyKey: idemKey,
			})
			if err != nil {
				return err
			}

			printRecord(record)
			return nil
		}),
	}
	addMovementFlags(exchangeCmd)

	cmd.AddCommand(depositCmd, withdrawCmd, transferCmd, exchangeCmd)

	return cmd
}

func transactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction record queries",
	}

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a transaction record",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			record, err := a.transactions.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}

			printRecord(record)
			return nil
		}),
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list ACTOR",
		Short: "List an actor's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			records, err := a.transactions.ListByActor(ctx, usecase.ListByActorInput{
				ActorID: args[0],
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return err
			}

			for _, record := range records {
				printRecord(record)
			}
			return nil
		}),
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "max records")
	listCmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")

	flaggedCmd := &cobra.Command{
		Use:   "flagged",
		Short: "List flagged transactions",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			records, err := a.transactions.ListFlagged(ctx, limit, offset)
			if err != nil {
				return err
			}

			for _, record := range records {
				printRecord(record)
			}
			return nil
		}),
	}
	flaggedCmd.Flags().IntVar(&limit, "limit", 50, "max records")
	flaggedCmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")

	cmd.AddCommand(getCmd, listCmd, flaggedCmd)

	return cmd
}

func rescanCmd() *cobra.Command {
	var lookback time.Duration

	cmd := &cobra.Command{
		Use:   "rescan",
		Short: "Run one fraud re-scan pass over recent pending transactions",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			since := time.Now().UTC().Add(-lookback)

			report, err := a.scan.Rescan(ctx, since)
			if err != nil {
				return err
			}

			fmt.Printf("scanned=%d flagged=%d notified=%d since=%s\n",
				report.Scanned, report.Flagged, report.Notified, report.Since.Format(time.RFC3339))
			return nil
		}),
	}
	cmd.Flags().DurationVar(&lookback, "lookback", 48*time.Hour, "how far back to scan")

	return cmd
}

func migrateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.DatabaseURL, path)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cfg.DatabaseURL, path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "path", "migrations", "migrations directory")
	cmd.AddCommand(upCmd, downCmd)

	return cmd
}

func printRecord(record *domain.Transaction) {
	line := fmt.Sprintf("%s  %-10s %-9s %s %s", record.ID, record.Type, record.Status, record.Amount, record.CurrencyCode)
	if record.RecipientID != nil {
		line += fmt.Sprintf(" -> %s", *record.RecipientID)
	}
	if record.Type == domain.TypeExchange && record.TargetAmount != nil && record.TargetCurrency != nil {
		line += fmt.Sprintf(" => %s %s", record.TargetAmount, *record.TargetCurrency)
	}
	if record.FlagReason != nil {
		line += fmt.Sprintf("  [%s]", truncate(*record.FlagReason, 60))
	}
	fmt.Println(line)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
