// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/lcrmeter/internal/config"
	"github.com/tamzrod/lcrmeter/internal/frame"
	"github.com/tamzrod/lcrmeter/internal/poller/line"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// LineConfig converts the serial section into a transport config.
func LineConfig(c cfg.SerialConfig) line.Config {
	return line.Config{
		Port:            c.Port,
		BaudRate:        c.BaudRate,
		ReadTimeout:     ms(c.ReadTimeoutMs),
		WriteTimeout:    ms(c.WriteTimeoutMs),
		ResponseTimeout: ms(c.ResponseTimeoutMs),
		SettleDelay:     ms(c.SettleDelayMs),
		SilentInterval:  line.SilentIntervalFor(c.BaudRate),
	}
}

// Build creates the transport and the poller from a normalized config.
// The line is not opened until the first tick.
func Build(c *cfg.Config, smp Sampler) (*Poller, *line.Transport, error) {
	open, err := line.OpenerFor(c.Serial.Driver)
	if err != nil {
		return nil, nil, err
	}
	tr := line.New(LineConfig(c.Serial), open)

	p, err := New(Config{
		Slave:    c.Device.SlaveAddress,
		Variant:  frame.Variant(c.Device.Variant),
		Interval: ms(c.Poll.IntervalMs),
	}, tr, smp)
	if err != nil {
		return nil, nil, err
	}
	return p, tr, nil
}
