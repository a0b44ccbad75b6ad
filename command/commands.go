package command

import (
	"showdown/command/def"

	"github.com/bwmarrin/discordgo"
)

// AllCommands returns every slash command the bot registers.
func AllCommands() []*discordgo.ApplicationCommand {
	cmds := def.SubmitCommands()
	return append(cmds, def.ReloadCommand, def.PendingCommand)
}
