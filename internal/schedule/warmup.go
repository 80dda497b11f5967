// internal/schedule/warmup.go
package schedule

import "github.com/coldpilot/coldpilot-backend/internal/model"

// CapacityFunc maps an eligible-day index (zero-based) to that day's send
// capacity. Pure and total over n >= 0.
type CapacityFunc func(n int) int

// ConstantCapacity is the no-warm-up curve: the daily limit on every day.
func ConstantCapacity(dailyLimit int) CapacityFunc {
	return func(n int) int { return dailyLimit }
}

// WarmupCapacity ramps from StartLimit by Increment every DaysPerStep
// eligible days, capping at TargetLimit. Monotonic non-decreasing; once the
// target is reached it never decays.
func WarmupCapacity(w model.WarmupConfig) CapacityFunc {
	return func(n int) int {
		c := w.StartLimit + w.Increment*(n/w.DaysPerStep)
		if c > w.TargetLimit {
			return w.TargetLimit
		}
		return c
	}
}

// CapacityForConfig picks the curve a config asks for.
func CapacityForConfig(cfg *model.ScheduleConfig) CapacityFunc {
	if cfg.Warmup != nil {
		return WarmupCapacity(*cfg.Warmup)
	}
	return ConstantCapacity(cfg.DailyLimit)
}
