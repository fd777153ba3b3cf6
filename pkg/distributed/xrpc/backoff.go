package xrpc

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"github.com/omeyang/xkit/pkg/resilience/xretry"
)

// BackoffPolicy 复用 xretry 的退避策略接口，使一个 xrpc.Retrier 与一个
// xretry.Retryer 可以共享同一个 BackoffPolicy 值。xrpc 的两个实现遵循
// spec 中约定的具体公式，而不是 xretry.ExponentialBackoff 的乘法抖动公式，
// 因此各自定义类型而不是直接复用 xretry 内置的策略实现。
type BackoffPolicy = xretry.BackoffPolicy

const (
	// defaultMinBackoffExponent 对应 flags 表中的 min_backoff_ms_exponent。
	defaultMinBackoffExponent = 7
	// defaultMaxBackoffExponent 对应 flags 表中的 max_backoff_ms_exponent。
	defaultMaxBackoffExponent = 16
	// jitterCeilingMillis 是叠加在两种策略之上的抖动上限（含），单位毫秒。
	jitterCeilingMillis = 4
)

// ExponentialBackoffStrategy 实现 attempt 数与最小/最大退避指数控制的
// 指数退避：delay = 1 << min(minExponent + attempt, maxExponent) 毫秒，
// 加上 [0, jitterCeilingMillis] 毫秒的均匀抖动。
type ExponentialBackoffStrategy struct {
	minExponent int
	maxExponent int
}

// NewExponentialBackoffStrategy 创建一个指数退避策略。
// minExponent/maxExponent 非正时分别回退到 defaultMinBackoffExponent /
// defaultMaxBackoffExponent。
func NewExponentialBackoffStrategy(minExponent, maxExponent int) *ExponentialBackoffStrategy {
	if minExponent <= 0 {
		minExponent = defaultMinBackoffExponent
	}
	if maxExponent <= 0 || maxExponent < minExponent {
		maxExponent = defaultMaxBackoffExponent
	}
	return &ExponentialBackoffStrategy{minExponent: minExponent, maxExponent: maxExponent}
}

// NextDelay 实现 BackoffPolicy。attempt 是 Retrier 在本次重试自增计数之前
// 已进入调度的重试次数（首次重试为 0，即 AttemptNum()-1），因此默认参数下
// 首次重试的基础延迟为 1<<7 = 128 毫秒。
func (s *ExponentialBackoffStrategy) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	exp := s.minExponent + attempt
	if exp > s.maxExponent {
		exp = s.maxExponent
	}
	// 默认上限为 16；调用方传入更大的 maxExponent 时再以 43 封顶，保证
	// (1<<exp) 毫秒换算为 time.Duration（int64 纳秒）时不溢出。
	const maxSafeExponent = 43
	if exp > maxSafeExponent {
		exp = maxSafeExponent
	}
	base := time.Duration(int64(1)<<uint(exp)) * time.Millisecond
	return base + randomJitter()
}

var _ BackoffPolicy = (*ExponentialBackoffStrategy)(nil)

// LinearBackoffStrategy 实现 spec 中的线性退避：delay = attempt 毫秒，
// 加上 [0, jitterCeilingMillis] 毫秒的均匀抖动。
type LinearBackoffStrategy struct{}

// NewLinearBackoffStrategy 创建一个线性退避策略。
func NewLinearBackoffStrategy() *LinearBackoffStrategy {
	return &LinearBackoffStrategy{}
}

func (s *LinearBackoffStrategy) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 钳制 attempt，保证换算为 time.Duration（int64 纳秒）并叠加抖动后不溢出。
	if limit := math.MaxInt64/int64(time.Millisecond) - jitterCeilingMillis; int64(attempt) > limit {
		attempt = int(limit)
	}
	return time.Duration(attempt)*time.Millisecond + randomJitter()
}

var _ BackoffPolicy = (*LinearBackoffStrategy)(nil)

// randomJitter 返回 [0, jitterCeilingMillis] 毫秒范围内的均匀抖动，使用
// crypto/rand 而非 math/rand，与 xretry/backoff.go 对随机抖动来源的选择
// 保持一致（安全的默认值优先于极致性能，重试路径的调用频率完全可以
// 承受这一开销）。
func randomJitter() time.Duration {
	n, err := rand.Int(rand.Reader, big.NewInt(jitterCeilingMillis+1))
	if err != nil {
		// crypto/rand 失败时返回 0 抖动（安全默认值），与
		// xretry.randomFloat64 的失败处理策略一致。
		return 0
	}
	return time.Duration(n.Int64()) * time.Millisecond
}
