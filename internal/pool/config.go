package pool

import (
	"runtime"
	"time"
)

// Config sizes the pool and bounds how long each step of an acquisition may
// take. A zero timeout means no limit.
type Config struct {
	MaxSize  int      `mapstructure:"max_size"`
	Timeouts Timeouts `mapstructure:"timeouts"`
}

// Timeouts bounds the three phases of Pool.Get.
type Timeouts struct {
	// Wait limits how long Get blocks for a free slot.
	Wait time.Duration `mapstructure:"wait"`
	// Create limits a single Manager.Create call.
	Create time.Duration `mapstructure:"create"`
	// Recycle limits a single Manager.Recycle call.
	Recycle time.Duration `mapstructure:"recycle"`
}

// DefaultConfig returns four slots per CPU and no timeouts.
func DefaultConfig() Config {
	return Config{
		MaxSize: runtime.NumCPU() * 4,
	}
}
