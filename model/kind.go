package model

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a submission.
type Kind string

const (
	KindMonsterKillcount   Kind = "monster_killcount"
	KindCollectionLog      Kind = "collection_log"
	KindPestControl        Kind = "pest_control"
	KindLMS                Kind = "lms"
	KindMTA                Kind = "mta"
	KindTitheFarm          Kind = "tithe_farm"
	KindFarmingContracts   Kind = "farming_contracts"
	KindBarbarianAssault   Kind = "barbarian_assault"
	KindChallenge          Kind = "challenge"
	KindRecord             Kind = "record"
	KindUnrankedStartingKC Kind = "unranked_starting_kc"
)

// AllKinds lists every submission kind in command registration order.
var AllKinds = []Kind{
	KindMonsterKillcount,
	KindCollectionLog,
	KindPestControl,
	KindLMS,
	KindMTA,
	KindTitheFarm,
	KindFarmingContracts,
	KindBarbarianAssault,
	KindChallenge,
	KindRecord,
	KindUnrankedStartingKC,
}

const commandPrefix = "submit_"

// Command returns the slash command name for the kind.
func (k Kind) Command() string {
	return commandPrefix + string(k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// KindFromCommand maps a slash command name back to its kind.
func KindFromCommand(command string) (Kind, error) {
	k := Kind(strings.TrimPrefix(command, commandPrefix))
	if !strings.HasPrefix(command, commandPrefix) || !k.Valid() {
		return "", fmt.Errorf("unknown submission command %q", command)
	}
	return k, nil
}
