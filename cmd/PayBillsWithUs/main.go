package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sebuszqo/PayBillsWithUs/internal/agent"
	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	"github.com/sebuszqo/PayBillsWithUs/internal/biller"
	"github.com/sebuszqo/PayBillsWithUs/internal/config"
	"github.com/sebuszqo/PayBillsWithUs/internal/customer"
	database "github.com/sebuszqo/PayBillsWithUs/internal/db"
	emailService "github.com/sebuszqo/PayBillsWithUs/internal/email"
	"github.com/sebuszqo/PayBillsWithUs/internal/encryption"
	"github.com/sebuszqo/PayBillsWithUs/internal/logging"
	"github.com/sebuszqo/PayBillsWithUs/internal/paymentmethod"
	"github.com/sebuszqo/PayBillsWithUs/internal/receipt"
	"github.com/sebuszqo/PayBillsWithUs/internal/user"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "paybills",
		Short:         "PayBillsWithUs bill payment API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newKeygenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			dbService, err := database.NewDBService(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer dbService.Close()

			if err := database.Migrate(cmd.Context(), dbService.DB); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}

func newKeygenCmd() *cobra.Command {
	var totpAccount string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a fresh DATA_ENCRYPTION_KEY, or an admin TOTP secret with --totp",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if totpAccount != "" {
				url, secret, err := auth.NewTOTPAuthenticator().GenerateSecret(totpAccount)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "ADMIN_TOTP_SECRET=%s\n%s\n", secret, url)
				return nil
			}
			key, err := encryption.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "DATA_ENCRYPTION_KEY=%s\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&totpAccount, "totp", "", "admin account name to generate a TOTP secret for")
	return cmd
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("missing configuration, update to start server: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func serve(ctx context.Context, migrate bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbService, err := database.NewDBService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("could not initialize database: %w", err)
	}
	defer dbService.Close()

	if migrate {
		if err := database.Migrate(ctx, dbService.DB); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	cipher, err := encryption.NewCipher(cfg.DataEncryptionKey)
	if err != nil {
		return err
	}

	var mailer emailService.EmailSender
	if cfg.SMTP.Enabled() {
		smtpMailer := emailService.NewEmailService(emailService.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger)
		defer smtpMailer.Close()
		mailer = smtpMailer
	} else {
		logger.Warn("SMTP is not configured, emails will only be logged")
		mailer = emailService.NewLogSender(logger)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret)
	rateLimiter := auth.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	userService := user.NewUserService(user.NewUserRepository(dbService.DB), jwtManager, mailer, cfg.ResetURLBase, logger)
	adminService := auth.NewAdminAuthenticator(auth.AdminCredentials{
		Username:   cfg.AdminUsername,
		Password:   cfg.AdminPassword,
		TOTPSecret: cfg.AdminTOTPSecret,
	}, jwtManager, logger)
	agentService := agent.NewAgentService(agent.NewAgentRepository(dbService.DB), jwtManager, logger)
	paymentMethodService := paymentmethod.NewPaymentMethodService(
		paymentmethod.NewPaymentMethodRepository(dbService.DB), profileAddresses{users: userService}, cipher, logger)
	billerService := biller.NewBillerService(biller.NewBillerRepository(dbService.DB), logger)
	receiptService := receipt.NewReceiptService(receipt.NewReceiptRepository(dbService.DB), logger)
	customerService := customer.NewCustomerService(customer.NewCustomerRepository(dbService.DB),
		billerService, paymentMethodService, receiptService, logger)

	server := NewServer(cfg, logger, Dependencies{
		Guard:   auth.NewGuard(jwtManager, userService, api.RespondError, logger),
		Limiter: rateLimiter,
		Health:  dbService.Health,

		UserHandler:          user.NewHandler(userService, !cfg.IsProduction(), logger, api.RespondJSON, api.RespondError),
		AdminHandler:         auth.NewHandler(adminService, logger, api.RespondJSON, api.RespondError),
		AgentHandler:         agent.NewHandler(agentService, logger, api.RespondJSON, api.RespondError),
		CustomerHandler:      customer.NewHandler(customerService, logger, api.RespondJSON, api.RespondError),
		BillerHandler:        biller.NewHandler(billerService, logger, api.RespondJSON, api.RespondError),
		ReceiptHandler:       receipt.NewHandler(receiptService, logger, api.RespondJSON, api.RespondError),
		PaymentMethodHandler: paymentmethod.NewPaymentMethodHandler(paymentMethodService, logger, api.RespondJSON, api.RespondError),
	})
	server.RegisterRoutes()

	scheduler, err := StartScheduler(userService, rateLimiter, logger)
	if err != nil {
		return fmt.Errorf("scheduler didn't start: %w", err)
	}
	defer func() { <-scheduler.Stop().Done() }()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
