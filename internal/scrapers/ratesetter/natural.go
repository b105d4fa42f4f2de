package ratesetter

import (
	"math/rand/v2"
	"ratesetter-client/internal/components/chrono"
	"ratesetter-client/internal/components/telemetry"
	"time"
)

const (
	naturalMinDelay = 2
	naturalMaxDelay = 10
)

// naturalThrottle pauses between the round trips of a login so the traffic
// paces like a person clicking through the site.
type naturalThrottle struct {
	enabled bool
	rnd     *rand.Rand
	sleep   chrono.SleepAPI
	tel     telemetry.API
}

func newNaturalThrottle(enabled bool, rnd *rand.Rand, sleep chrono.SleepAPI, tel telemetry.API) naturalThrottle {
	if enabled && rnd == nil {
		now := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(now, now>>1|1))
	}
	return naturalThrottle{
		enabled: enabled,
		rnd:     rnd,
		sleep:   sleep,
		tel:     tel,
	}
}

// delay is a whole number of seconds drawn uniformly from [naturalMinDelay, naturalMaxDelay].
func (n naturalThrottle) delay() time.Duration {
	seconds := naturalMinDelay + n.rnd.IntN(naturalMaxDelay-naturalMinDelay+1)
	return time.Duration(seconds) * time.Second
}

// SleepIfNeeded blocks for a random delay in natural mode and does nothing
// otherwise. The sleep cannot be interrupted.
func (n naturalThrottle) SleepIfNeeded() {
	if !n.enabled {
		return
	}
	d := n.delay()
	n.tel.ReportDebug("natural pause", d.String())
	n.sleep.Sleep(d)
}
