package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	calendarapi "google.golang.org/api/calendar/v3"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/shortlist-app/shortlist/internal/ai"
	"github.com/shortlist-app/shortlist/internal/attach"
	"github.com/shortlist-app/shortlist/internal/calendar"
	"github.com/shortlist-app/shortlist/internal/classify"
	"github.com/shortlist-app/shortlist/internal/credential"
	"github.com/shortlist-app/shortlist/internal/event"
	"github.com/shortlist-app/shortlist/internal/gauth"
	"github.com/shortlist-app/shortlist/internal/model"
	"github.com/shortlist-app/shortlist/internal/source"
	"github.com/shortlist-app/shortlist/internal/source/email"
	"github.com/shortlist-app/shortlist/internal/source/gmail"
	"github.com/shortlist-app/shortlist/internal/store"
	"github.com/shortlist-app/shortlist/internal/watch"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	if flag.Arg(0) == "auth" {
		if err := runAuth(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "authorization failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		logger.Fatal("watcher stopped", zap.Error(err))
	}
}

// runAuth walks the console OAuth flows for the mail source and, when
// enabled, the calendar sink.
func runAuth(ctx context.Context, cfg *model.AppConfig) error {
	if cfg.Mail.Source == string(source.SourceTypeGmail) {
		fmt.Println("Authorizing Gmail...")
		err := gauth.Authorize(
			ctx, cfg.Mail.CredentialsFile, cfg.Mail.TokenFile,
			gmailapi.GmailReadonlyScope,
		)
		if err != nil {
			return fmt.Errorf("gmail: %w", err)
		}
	}

	if cfg.Calendar.Enabled {
		fmt.Println("Authorizing Google Calendar...")
		err := gauth.Authorize(
			ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile,
			calendarapi.CalendarEventsScope,
		)
		if err != nil {
			return fmt.Errorf("calendar: %w", err)
		}
	}

	fmt.Println("Authorization complete.")
	return nil
}

func run(ctx context.Context, cfg *model.AppConfig, logger *zap.Logger) error {
	// A store that cannot open or migrate is fatal; the watcher must not
	// run over corrupt state.
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer st.Close()

	if err := seedProfile(ctx, st, cfg.Profile, logger); err != nil {
		return err
	}

	aiClient := ai.New(resolveAIConfig(cfg.AI))
	if !aiClient.Configured() {
		logger.Warn("inference collaborator unconfigured, using heuristic fallbacks")
	}

	src, err := buildSource(ctx, cfg.Mail)
	if err != nil {
		return err
	}

	mailbox, err := src.ValidateConnection(ctx)
	if err != nil {
		return fmt.Errorf("validating mail source: %w", err)
	}
	logger.Info("mail source connected",
		zap.String("type", string(src.Type())),
		zap.String("mailbox", mailbox),
	)

	loc, err := time.LoadLocation(cfg.Watch.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Watch.Timezone, err)
	}

	var sink calendar.Sink
	if cfg.Calendar.Enabled {
		gSink, err := calendar.NewGoogleSink(
			ctx,
			cfg.Calendar.CredentialsFile,
			cfg.Calendar.TokenFile,
			cfg.Calendar.CalendarID,
			cfg.Watch.Timezone,
		)
		if err != nil {
			return fmt.Errorf("building calendar sink: %w", err)
		}
		sink = gSink
	}

	watcher := watch.New(watch.Config{
		Store:      st,
		Source:     src,
		Classifier: classify.New(cfg.Classifier, aiClient),
		Aggregator: attach.DefaultAggregator(),
		Extractor:  event.NewExtractor(aiClient, loc),
		Sink:       sink,
		Logger:     logger,
		Interval:   time.Duration(cfg.Watch.PollIntervalSec) * time.Second,
	})

	return watcher.Run(ctx)
}

// seedProfile copies the configured profile into the store on first run.
// The store copy is authoritative afterwards.
func seedProfile(
	ctx context.Context,
	st store.Store,
	profile model.Profile,
	logger *zap.Logger,
) error {
	stored, err := st.Profile(ctx)
	if err != nil {
		return fmt.Errorf("reading stored profile: %w", err)
	}
	if stored != nil || !profile.HasIdentity() {
		return nil
	}

	if err := st.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("seeding profile: %w", err)
	}
	logger.Info("profile seeded from config",
		zap.String("name", profile.Name),
		zap.String("registration_number", profile.RegistrationNumber),
	)
	return nil
}

// resolveAIConfig fills the API key from the system keyring when the
// config leaves it empty.
func resolveAIConfig(cfg model.AIConfig) model.AIConfig {
	if cfg.APIKey == "" {
		if key, err := credential.Get(credential.KeyAnthropicAPIKey); err == nil {
			cfg.APIKey = key
		}
	}
	return cfg
}

// buildSource constructs the configured mail source adapter.
func buildSource(ctx context.Context, cfg model.MailConfig) (source.MailSource, error) {
	switch cfg.Source {
	case string(source.SourceTypeGmail):
		return gmail.NewAdapter(ctx, cfg.CredentialsFile, cfg.TokenFile)
	case string(source.SourceTypeIMAP):
		password := cfg.IMAP.Password
		if password == "" {
			if p, err := credential.Get(credential.KeyIMAPPassword); err == nil {
				password = p
			}
		}
		return email.NewAdapter(
			cfg.IMAP.Host, cfg.IMAP.Port,
			cfg.IMAP.Username, password,
			cfg.IMAP.TLS,
		), nil
	default:
		return nil, fmt.Errorf("unknown mail source %q", cfg.Source)
	}
}
