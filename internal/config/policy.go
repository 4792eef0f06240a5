package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policy holds the marketplace rules that operators may change without a restart.
type Policy struct {
	Invitations InvitationPolicy `mapstructure:"invitations"`
	Profiles    ProfilePolicy    `mapstructure:"profiles"`
	Offers      OfferPolicy      `mapstructure:"offers"`
}

type InvitationPolicy struct {
	TTL            time.Duration `mapstructure:"ttl"`
	AllowOpenLinks bool          `mapstructure:"allowOpenLinks"`
	Retention      time.Duration `mapstructure:"retention"`
}

type ProfilePolicy struct {
	SelfHeal bool `mapstructure:"selfHeal"`
}

type OfferPolicy struct {
	AcceptLockTTL time.Duration `mapstructure:"acceptLockTTL"`
}

func DefaultPolicy() Policy {
	return Policy{
		Invitations: InvitationPolicy{
			TTL:            7 * 24 * time.Hour,
			AllowOpenLinks: true,
			Retention:      30 * 24 * time.Hour,
		},
		Profiles: ProfilePolicy{
			SelfHeal: true,
		},
		Offers: OfferPolicy{
			AcceptLockTTL: 10 * time.Second,
		},
	}
}

type PolicyHolder struct {
	current atomic.Value // holds Policy
}

// NewStaticPolicyHolder returns a holder that never reloads.
func NewStaticPolicyHolder(p Policy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(p)
	return holder
}

func NewPolicyHolder(log *zap.Logger) (*PolicyHolder, error) {
	log = log.Named("config.policy")
	v := viper.New()

	v.SetConfigName("marketplace")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/marketplace")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MARKETPLACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicy()
	v.SetDefault("invitations.ttl", defaults.Invitations.TTL)
	v.SetDefault("invitations.allowOpenLinks", defaults.Invitations.AllowOpenLinks)
	v.SetDefault("invitations.retention", defaults.Invitations.Retention)
	v.SetDefault("profiles.selfHeal", defaults.Profiles.SelfHeal)
	v.SetDefault("offers.acceptLockTTL", defaults.Offers.AcceptLockTTL)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var policy Policy
	if err := v.Unmarshal(&policy); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	holder := NewStaticPolicyHolder(policy)
	if !fileFound {
		log.Info("marketplace.yml not found, using default policy")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Policy
		if err := v.Unmarshal(&updated); err != nil {
			log.Warn("policy reload failed", zap.Error(err))
			return
		}
		if err := validatePolicy(updated); err != nil {
			log.Warn("invalid policy ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *PolicyHolder) Get() Policy {
	if h == nil {
		return DefaultPolicy()
	}
	return h.current.Load().(Policy)
}

func validatePolicy(p Policy) error {
	if p.Invitations.TTL <= 0 {
		return errors.New("invitations.ttl must be positive")
	}
	if p.Invitations.Retention < 0 {
		return errors.New("invitations.retention cannot be negative")
	}
	if p.Offers.AcceptLockTTL <= 0 {
		return errors.New("offers.acceptLockTTL must be positive")
	}
	return nil
}
