// internal/config/normalize.go
package config

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.Serial
	setString(&s.Port, DefaultPort)
	setInt(&s.BaudRate, DefaultBaudRate)
	setString(&s.Driver, DefaultDriver)
	setInt(&s.ReadTimeoutMs, DefaultReadTimeoutMs)
	setInt(&s.WriteTimeoutMs, DefaultWriteTimeoutMs)
	setInt(&s.ResponseTimeoutMs, DefaultResponseTimeoutMs)
	setInt(&s.SettleDelayMs, DefaultSettleDelayMs)

	if cfg.Device.SlaveAddress == 0 {
		cfg.Device.SlaveAddress = DefaultSlaveAddress
	}
	setString(&cfg.Device.Variant, DefaultVariant)

	setInt(&cfg.Poll.IntervalMs, DefaultIntervalMs)
	setInt(&cfg.Poll.QuiesceMs, DefaultQuiesceMs)

	setInt(&cfg.Sampler.Population, DefaultPopulation)
	if cfg.Sampler.MaxDeviation == 0 {
		cfg.Sampler.MaxDeviation = DefaultMaxDeviation
	}
	setInt(&cfg.Sampler.HistoryLimit, DefaultHistoryLimit)

	setInt(&cfg.Sinks.TimeoutMs, DefaultSinkTimeoutMs)
	for i := range cfg.Sinks.Targets {
		setString(&cfg.Sinks.Targets[i].Protocol, DefaultProtocol)
	}
	if st := cfg.Sinks.Status; st != nil {
		setString(&st.Protocol, DefaultProtocol)
		// ASCII already validated
		if len(st.DeviceName) > 16 {
			st.DeviceName = st.DeviceName[:16]
		}
	}

	setString(&cfg.Log.Level, DefaultLogLevel)
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
