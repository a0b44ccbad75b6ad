package utils

import (
	"slices"
	"strings"

	"showdown/model"
)

// RosterView is the part of the roster the submitter check needs.
type RosterView interface {
	Player(username string) (model.Player, bool)
	SubmissionChannel(team string) (string, bool)
}

// CheckEligibleSubmitter 检查用户是否已注册并在本队的提交频道中
func CheckEligibleSubmitter(view RosterView, username, channelID string) (model.Player, error) {
	player, ok := view.Player(strings.ToLower(username))
	if !ok || player.Team == "" {
		return model.Player{}, model.ErrNotRegistered
	}
	channel, ok := view.SubmissionChannel(player.Team)
	if !ok || channel == "" {
		return model.Player{}, model.ErrWrongChannel
	}
	if channel != channelID {
		return model.Player{}, model.WrongChannelFor(channel)
	}
	return player, nil
}

// Gate checks reviewer and staff roles.
type Gate struct {
	ReviewerRole string
	StaffRole    string
}

// NewGate builds a gate from the configured role ids.
func NewGate(roles model.Roles) Gate {
	return Gate{ReviewerRole: roles.Reviewer, StaffRole: roles.Staff}
}

// CheckEligibleReviewer 检查用户是否拥有审核员角色
func (g Gate) CheckEligibleReviewer(roles []string) error {
	if g.ReviewerRole == "" || !slices.Contains(roles, g.ReviewerRole) {
		return model.ErrNotReviewer
	}
	return nil
}

// CheckEligibleAdmin 检查用户是否拥有管理员角色
func (g Gate) CheckEligibleAdmin(roles []string) error {
	if g.StaffRole == "" || !slices.Contains(roles, g.StaffRole) {
		return model.ErrNotStaff
	}
	return nil
}
