package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NotificationHolder serves the current webhook endpoints. Values come from
// the environment and may be overridden by a notifications.yml file, which is
// watched and swapped in atomically on change.
type NotificationHolder struct {
	current atomic.Value // holds NotificationConfig
}

func NewNotificationHolder(cfg Config, log *zap.Logger) (*NotificationHolder, error) {
	return newNotificationHolder(cfg.Notification, log,
		"/etc/spk",
		".",
	)
}

func newNotificationHolder(defaults NotificationConfig, log *zap.Logger, paths ...string) (*NotificationHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.notification")

	v := viper.New()
	v.SetConfigName("notifications")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SPK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("notifications.workOrderPublishedUrl", defaults.WorkOrderPublishedURL)
	v.SetDefault("notifications.paymentUpdatedUrl", defaults.PaymentUpdatedURL)
	v.SetDefault("notifications.timeout", defaults.Timeout)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
	}

	var cfg NotificationConfig
	if err := v.UnmarshalKey("notifications", &cfg); err != nil {
		return nil, err
	}
	if err := validateNotificationConfig(cfg); err != nil {
		return nil, err
	}

	holder := &NotificationHolder{}
	holder.current.Store(cfg)

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated NotificationConfig
			if err := v.UnmarshalKey("notifications", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateNotificationConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// Current returns the active notification configuration.
func (h *NotificationHolder) Current() NotificationConfig {
	return h.current.Load().(NotificationConfig)
}

func validateNotificationConfig(cfg NotificationConfig) error {
	for name, raw := range map[string]string{
		"workOrderPublishedUrl": cfg.WorkOrderPublishedURL,
		"paymentUpdatedUrl":     cfg.PaymentUpdatedURL,
	} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("notifications.%s must be an http(s) url", name)
		}
	}
	if cfg.Timeout < 0 {
		return errors.New("notifications.timeout cannot be negative")
	}
	return nil
}
