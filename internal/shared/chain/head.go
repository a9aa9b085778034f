package chain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

var ErrNoHead = errors.New("chain head not available")

// Head lê o bloco corrente publicado pelo chain-simulator no Redis.
// Os serviços de contrato consultam o head a cada chamada que depende de altura.
type Head struct {
	rdb *redis.Client
	key string
}

func NewHead(rdb *redis.Client, key string) *Head {
	return &Head{rdb: rdb, key: key}
}

func (h *Head) Current(ctx context.Context) (wire.BlockEnv, error) {
	raw, err := h.rdb.Get(ctx, h.key).Bytes()
	if err == redis.Nil {
		return wire.BlockEnv{}, ErrNoHead
	}
	if err != nil {
		return wire.BlockEnv{}, err
	}

	var env wire.BlockEnv
	if err := json.Unmarshal(raw, &env); err != nil {
		return wire.BlockEnv{}, err
	}
	return env, nil
}
