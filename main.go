package main

import (
	"InstaFlow/ai/dialogflow"
	"InstaFlow/ai/gpt"
	"InstaFlow/bot"
	"InstaFlow/bot/insta"
	"InstaFlow/impl/core"
	"InstaFlow/internal/config"
	repository "InstaFlow/internal/database"
	"InstaFlow/internal/http-server/api"
	"InstaFlow/internal/lib/logger"
	"InstaFlow/internal/lib/sl"
	"InstaFlow/internal/metrics"
	"context"
	"flag"
	"fmt"
	"github.com/google/uuid"
	"log/slog"
	"time"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram alerts enabled")
		}
	}

	// one conversation session per process lifetime
	sessionID := uuid.NewString()

	lg.Info("starting instaflow",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("session_id", sessionID),
	)
	lg.Debug("debug messages enabled")

	ctx := context.Background()

	resolver, err := newResolver(ctx, conf, sessionID, lg)
	if err != nil {
		lg.Error("intent resolver", sl.Err(err))
		return
	}

	client, err := newPlatformClient(conf, lg)
	if err != nil {
		lg.Error("instagram client", sl.Err(err))
		return
	}
	session := insta.NewSession(client, lg)

	handler := core.New(sessionID, lg)
	handler.SetResolver(resolver)
	handler.SetSender(session)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
	}
	if db != nil {
		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err = db.EnsureRelayIndexes(indexCtx); err != nil {
			lg.Warn("mongo relay indexes", sl.Err(err))
		}
		cancel()
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("database", conf.Mongo.Database),
		).Info("relay journal enabled")
	}

	if conf.Metrics.Enabled {
		go func() {
			if err := api.ServeMetrics(conf, lg); err != nil {
				lg.Error("metrics server", sl.Err(err))
			}
		}()
	}

	// login runs alongside the listener; a failure leaves sends failing
	go func() {
		_ = session.Bootstrap(ctx)
		if session.Authenticated() {
			metrics.SessionAuthenticated.Set(1)
			return
		}
		metrics.SessionAuthenticated.Set(0)
	}()

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}

func newResolver(ctx context.Context, conf *config.Config, sessionID string, lg *slog.Logger) (core.IntentResolver, error) {
	switch conf.NLU.Provider {
	case config.ProviderOpenAI:
		r, err := gpt.NewResolver(conf.OpenAI.ApiKey, conf.OpenAI.BaseURL, conf.OpenAI.Model, conf.OpenAI.SystemPrompt, sessionID, lg)
		if err != nil {
			return nil, err
		}
		lg.With(
			sl.Secret("openai_key", conf.OpenAI.ApiKey),
			slog.String("model", conf.OpenAI.Model),
		).Info("openai resolver initialized")
		return r, nil
	case config.ProviderDialogflow:
		r, err := dialogflow.NewResolver(ctx, dialogflow.Options{
			ProjectID:       conf.Dialogflow.ProjectID,
			SessionID:       sessionID,
			LanguageCode:    conf.Dialogflow.LanguageCode,
			CredentialsFile: conf.Dialogflow.CredentialsFile,
			Endpoint:        conf.Dialogflow.Endpoint,
		}, lg)
		if err != nil {
			return nil, err
		}
		lg.With(
			slog.String("session", r.SessionPath()),
		).Info("dialogflow resolver initialized")
		return r, nil
	default:
		return nil, fmt.Errorf("unknown nlu provider %q", conf.NLU.Provider)
	}
}

func newPlatformClient(conf *config.Config, lg *slog.Logger) (insta.Client, error) {
	switch conf.Instagram.Mode {
	case config.ModeGraph:
		c, err := insta.NewGraphClient(conf.Instagram.GraphURL, conf.Instagram.AccessToken, lg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ModePrivate:
		c, err := insta.NewPrivateClient(conf.Instagram.BaseURL, conf.Instagram.Username, conf.Instagram.Password, lg)
		if err != nil {
			return nil, err
		}
		lg.With(
			slog.String("username", conf.Instagram.Username),
			slog.String("device_id", c.Device().DeviceID),
		).Info("instagram device generated")
		return c, nil
	default:
		return nil, fmt.Errorf("unknown instagram mode %q", conf.Instagram.Mode)
	}
}
