package def

import "github.com/bwmarrin/discordgo"

var staffOnly = &[]int64{discordgo.PermissionManageMessages}[0]

var ReloadCommand = &discordgo.ApplicationCommand{
	Name:                     "reload",
	Description:              "Reload teams, players and competition data",
	DefaultMemberPermissions: staffOnly,
}

var PendingCommand = &discordgo.ApplicationCommand{
	Name:                     "pending",
	Description:              "List submissions waiting for review",
	DefaultMemberPermissions: staffOnly,
}
