package bot

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"showdown/backend"
	"showdown/config"
	"showdown/db"
	"showdown/handler/showdown"
	"showdown/logger"
	"showdown/metrics"
	"showdown/model"
	"showdown/ops"
	"showdown/roster"
	"showdown/utils"
	"showdown/workflow"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

var dg *discordgo.Session

// Start 启动机器人，直到收到退出信号
func Start() {
	logger.Init("info", false)
	if err := config.LoadConfig(); err != nil {
		log.Error().Err(err).Msg("加载配置文件时出错")
		return
	}
	cfg := config.Cfg
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	metrics.Init()

	if err := db.InitDB(cfg.Database.Path); err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout,
		backend.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.RateBurst))
	store := roster.NewStore(rosterSource(cfg, client))
	if _, err := store.Reload(ctx); err != nil {
		// 保持运行，定时刷新会重试；就绪检查会报告未就绪
		log.Error().Err(err).Msg("Initial roster load failed")
	}
	go store.Run(ctx, cfg.Roster.RefreshInterval)

	// 使用提供的机器人令牌创建一个新的 Discord 会话
	var err error
	dg, err = discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Error().Err(err).Msg("创建 Discord 会话时出错")
		return
	}

	surface := showdown.NewSurface(dg, showdown.SurfaceConfig{
		GuildID:          cfg.GuildID,
		ApprovalsChannel: cfg.Channels.Approvals,
		LogChannel:       cfg.Channels.Log,
		ErrorChannel:     cfg.Channels.Errors,
	})
	engine := workflow.New(workflow.Deps{
		Backend:  client,
		Store:    surface,
		Notifier: surface,
		Ledger:   db.Ledger{},
		Roster:   store,
		Gate:     utils.NewGate(cfg.Roles),
	})
	showdown.RegisterHandlers(engine)
	gateway := &gatewayState{}
	registerEventHandlers(dg, gateway)

	if err := dg.Open(); err != nil {
		log.Error().Err(err).Msg("Error opening connection")
		return
	}
	defer dg.Close()

	go func() {
		checks := ops.Checks{
			"roster": func(context.Context) error {
				if !store.Loaded() {
					return errors.New("roster not loaded")
				}
				return nil
			},
			"database": db.Ping,
			"discord": gateway.check,
		}
		if err := ops.Serve(ctx, ops.Config{HTTPAddr: cfg.Ops.HTTPAddr, GRPCAddr: cfg.Ops.GRPCAddr}, checks); err != nil {
			log.Error().Err(err).Msg("Ops servers failed")
		}
	}()

	log.Info().Str("guild", cfg.GuildID).Msg("Bot is now running. Press CTRL-C to exit.")
	<-ctx.Done()
	log.Info().Msg("Shutting down")
}

func rosterSource(cfg model.Config, client *backend.Client) roster.Source {
	if cfg.Roster.Source == "file" {
		return roster.FileSource{Dir: cfg.Roster.Dir}
	}
	return roster.BackendSource{Client: client, TeamChannels: cfg.Roster.TeamChannels}
}
