package xrpc

import (
	"fmt"
	"time"

	"github.com/omeyang/xkit/pkg/config/xconf"
)

// Config 承载 spec 6 中列出的全部 flags，字段名与原始实现的 gflag 一一对应。
// koanf/json/yaml 三套 tag 遵循 xlimit.Config 的约定，方便通过 LoadConfig
// 从任意 xconf 支持的配置源（文件、环境变量、远端配置中心）绑定。
//
// 显式的非目标：本包不提供命令行参数解析或配置文件监视，调用方如果需要
// 热更新可以自行组合 xconf.Watch，就像 xlimit.XConfProvider 那样。
type Config struct {
	// ShutdownTimeout 对应 rpcs_shutdown_timeout_ms：Registry.Shutdown
	// 请求全部中止后，等待在途调用完成排空的基础时长。
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" koanf:"shutdown_timeout"`

	// ShutdownExtraDelay 对应 rpcs_shutdown_extra_delay_ms：叠加在
	// "所有已注册调用中最晚的一个截止时间"之上的宽限期。
	ShutdownExtraDelay time.Duration `json:"shutdown_extra_delay" yaml:"shutdown_extra_delay" koanf:"shutdown_extra_delay"`

	// SingleCallTimeout 对应 retryable_rpc_single_call_timeout_ms：
	// 每一次尝试的超时上限，与整体截止时间取较早者。
	SingleCallTimeout time.Duration `json:"single_call_timeout" yaml:"single_call_timeout" koanf:"single_call_timeout"`

	// MinBackoffExponent 对应 min_backoff_ms_exponent。
	MinBackoffExponent int `json:"min_backoff_exponent" yaml:"min_backoff_exponent" koanf:"min_backoff_exponent"`

	// MaxBackoffExponent 对应 max_backoff_ms_exponent。
	MaxBackoffExponent int `json:"max_backoff_exponent" yaml:"max_backoff_exponent" koanf:"max_backoff_exponent"`
}

// Validate 检查字段之间的基本一致性，遵循 xlimit.Config.Validate 的风格：
// 只拒绝明显无意义的取值，不对合理范围做过度限制。
func (c Config) Validate() error {
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("xrpc: shutdown_timeout must be >= 0, got %s", c.ShutdownTimeout)
	}
	if c.ShutdownExtraDelay < 0 {
		return fmt.Errorf("xrpc: shutdown_extra_delay must be >= 0, got %s", c.ShutdownExtraDelay)
	}
	if c.SingleCallTimeout < 0 {
		return fmt.Errorf("xrpc: single_call_timeout must be >= 0, got %s", c.SingleCallTimeout)
	}
	if c.MinBackoffExponent < 0 {
		return fmt.Errorf("xrpc: min_backoff_exponent must be >= 0, got %d", c.MinBackoffExponent)
	}
	if c.MaxBackoffExponent < c.MinBackoffExponent {
		return fmt.Errorf("xrpc: max_backoff_exponent (%d) must be >= min_backoff_exponent (%d)",
			c.MaxBackoffExponent, c.MinBackoffExponent)
	}
	return nil
}

// DefaultConfig 返回 spec 6 中记录的默认值。
func DefaultConfig() *Config {
	return &Config{
		ShutdownTimeout:     15 * time.Second,
		ShutdownExtraDelay:  5 * time.Second,
		SingleCallTimeout:   defaultSingleCallTimeout,
		MinBackoffExponent:  defaultMinBackoffExponent,
		MaxBackoffExponent:  defaultMaxBackoffExponent,
	}
}

// Option 是 NewConfig 的函数式选项。
type Option func(*Config)

// WithShutdownTimeout 覆盖 ShutdownTimeout。
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) { c.ShutdownTimeout = d }
}

// WithShutdownExtraDelay 覆盖 ShutdownExtraDelay。
func WithShutdownExtraDelay(d time.Duration) Option {
	return func(c *Config) { c.ShutdownExtraDelay = d }
}

// WithConfigSingleCallTimeout 覆盖 SingleCallTimeout。
func WithConfigSingleCallTimeout(d time.Duration) Option {
	return func(c *Config) { c.SingleCallTimeout = d }
}

// WithConfigBackoffExponents 覆盖 MinBackoffExponent / MaxBackoffExponent。
func WithConfigBackoffExponents(minExponent, maxExponent int) Option {
	return func(c *Config) {
		c.MinBackoffExponent = minExponent
		c.MaxBackoffExponent = maxExponent
	}
}

// NewConfig 基于 DefaultConfig 应用 opts 并返回结果。
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// LoadConfig 从 xconf.Config 的 path 路径下解析出一个 Config 并校验。
// 这是可选的绑定入口：本包不负责发现或加载配置文件本身
// （见 SPEC_FULL.md 非目标 - CLI/配置文件加载），调用方需要自行构造好
// xconf.Config 实例，就像 xlimit.NewXConfProvider 那样。
func LoadConfig(cfg xconf.Config, path string) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("xrpc: nil xconf.Config")
	}
	out := DefaultConfig()
	if err := cfg.Unmarshal(path, out); err != nil {
		return nil, fmt.Errorf("xrpc: load config at %q: %w", path, err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
