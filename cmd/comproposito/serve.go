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

	"comproposito/internal/allocation"
	"comproposito/internal/db"
	"comproposito/internal/instantiate"
	"comproposito/internal/lifecycle"
	"comproposito/internal/mailer"
	"comproposito/internal/notify"
	"comproposito/internal/payments"
	"comproposito/internal/recovery"
	"comproposito/internal/server"
	"comproposito/internal/storage"
	"comproposito/internal/store"
	"comproposito/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func newSender(cfg *types.Config, logger *logrus.Logger) mailer.Sender {
	if cfg.MailAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, e-mails will only be logged")
		return mailer.NewConsole(logger)
	}
	return mailer.NewSendGrid(cfg.MailAPIKey, cfg.MailFromName, cfg.MailFromAddress)
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	if err := validateServeConfig(config); err != nil {
		return err
	}

	logger := newLogger(config)

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)
	s3Client := s3.NewFromConfig(awsConfig)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	contributorRepo := store.NewContributorRepository(pool)
	initiativeRepo := store.NewInitiativeRepository(pool)
	projectRepo := store.NewProjectRepository(pool)
	requestRepo := store.NewRequestRepository(pool)
	donationRepo := store.NewDonationRepository(pool)
	statsRepo := store.NewStatsRepository(pool)

	dispatcher, err := notify.New(config, logger, contributorRepo, projectRepo, newSender(config, logger))
	if err != nil {
		return err
	}

	files, err := storage.New(config, s3Client)
	if err != nil {
		return err
	}

	recoveryService := recovery.NewService(config, logger, contributorRepo, dispatcher)
	defer recoveryService.Wait()

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.CognitoIssuerURL)

	err = jwkCache.Register(context.Background(), jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register cognito jwks with cache: %w", err)
	}

	srv, err := server.New(config, logger, server.Backends{
		Contributors: contributorRepo,
		Initiatives:  initiativeRepo,
		Requests:     requestRepo,
		Projects:     projectRepo,
		Donations:    donationRepo,
		Stats:        statsRepo,

		Allocation: allocation.NewEngine(
			logger, projectRepo, projectRepo, contributorRepo, dispatcher,
			time.Duration(config.ResendDelayMS)*time.Millisecond,
		),
		Lifecycle:   lifecycle.NewManager(logger, projectRepo, projectRepo, requestRepo, contributorRepo),
		Instantiate: instantiate.NewService(logger, initiativeRepo, projectRepo, requestRepo),
		Recovery:    recoveryService,
		Payments:    payments.NewService(config, logger, donationRepo),
		Notifier:    dispatcher,
		Files:       files,

		Cognito: cognitoClient,
		JWKS:    jwkCache,
		JWKSURL: jwksURL,
	})
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
