package lock

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const keyPrefix = "spk:lock:"

var Module = fx.Module("lock",
	fx.Provide(func(client redis.UniversalClient) *Locker {
		return New(client, keyPrefix)
	}),
)
