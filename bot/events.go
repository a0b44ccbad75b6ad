package bot

import (
	"context"
	"errors"
	"sync/atomic"

	"showdown/handler"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// gatewayState tracks whether the gateway session is usable. It is written by
// discordgo's event goroutine and read by the readiness checks.
type gatewayState struct {
	ready atomic.Bool
}

func (g *gatewayState) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.ready.Store(true)
	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Logged in")
}

func (g *gatewayState) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	g.ready.Store(true)
}

func (g *gatewayState) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	g.ready.Store(false)
	log.Warn().Msg("Gateway disconnected")
}

func (g *gatewayState) check(context.Context) error {
	if !g.ready.Load() {
		return errors.New("gateway not ready")
	}
	return nil
}

func registerEventHandlers(s *discordgo.Session, gateway *gatewayState) {
	s.AddHandler(handler.OnInteractionCreate)
	s.AddHandler(gateway.onReady)
	s.AddHandler(gateway.onResumed)
	s.AddHandler(gateway.onDisconnect)

	// 只需要服务器和消息事件
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds
}
