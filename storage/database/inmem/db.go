package inmemdb

import (
	"sync"

	"github.com/trezcool/edupoints/core/reward"
)

type (
	DB struct {
		kv         *kvTable
		reward     *rewardTable
		redemption *redemptionTable
	}

	kvTable struct {
		sync.RWMutex
		table map[string][]byte
	}

	rewardTable struct {
		sync.RWMutex
		table map[string]*reward.Reward
		order []string // insertion order
	}

	redemptionTable struct {
		sync.RWMutex
		table map[string]*reward.Redemption
		order []string // insertion order
	}
)

func Open() *DB {
	return &DB{
		kv:         &kvTable{table: make(map[string][]byte)},
		reward:     &rewardTable{table: make(map[string]*reward.Reward)},
		redemption: &redemptionTable{table: make(map[string]*reward.Redemption)},
	}
}
