package timeutil

import (
	"math/rand"
	"time"
)

// DisplayLayout is the single rendering format for instants in digest
// output: "2006-01-02 15:04 UTC". All instants are UTC before rendering;
// display-timezone conversion is the renderer's problem, not ours.
const DisplayLayout = "2006-01-02 15:04 UTC"

// SnapshotLayout is the compact timestamp stored in vendor snapshot JSON,
// without the " UTC" suffix (the digest renderer appends it).
const SnapshotLayout = "2006-01-02 15:04"

// ISOLayout is used for capture-file entry prefixes.
const ISOLayout = "2006-01-02T15:04:05Z"

// NowUTC returns the current instant truncated to minute precision in UTC.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Minute)
}

// FormatDisplay renders an instant as "YYYY-MM-DD HH:MM UTC".
func FormatDisplay(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}

// FormatSnapshot renders an instant as "YYYY-MM-DD HH:MM" (no suffix).
func FormatSnapshot(t time.Time) string {
	return t.UTC().Format(SnapshotLayout)
}

// SameUTCDay reports whether two instants fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ExponentialBackoffDelay computes the delay before the next retry attempt.
// attempt is 1-based; the first retry waits roughly the initial duration,
// each subsequent retry multiplies it, capped at the configured maximum.
// Jitter is seed-controlled through the provided rng so delays stay
// reproducible in tests.
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng rand.Rand,
	param BackoffParam,
) time.Duration {
	delay := float64(param.InitialDuration())
	for i := 1; i < attempt; i++ {
		delay *= param.Multiplier()
		if delay >= float64(param.MaxDuration()) {
			delay = float64(param.MaxDuration())
			break
		}
	}

	d := time.Duration(delay)
	if d > param.MaxDuration() {
		d = param.MaxDuration()
	}

	if jitter > 0 {
		d += time.Duration(rng.Int63n(int64(jitter)))
	}
	return d
}
