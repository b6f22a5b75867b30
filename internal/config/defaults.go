package config

const (
	defaultWorkDir                = "~/.local/share/sluice"
	defaultPidDir                 = "~/.local/share/sluice/run"
	defaultLogDir                 = "~/.local/share/sluice/logs"
	defaultCoordinationEndpoint   = "127.0.0.1:7600"
	defaultConnectTimeoutSeconds  = 30
	defaultRequestTimeoutSeconds  = 10
	defaultHeartbeatInterval      = 10
	defaultSupervisorSyncInterval = 10
	defaultShutdownGraceSeconds   = 10
	defaultMonitorBind            = "127.0.0.1:7621"
	defaultLogLevel               = "info"
	defaultLogFormat              = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			PidDir:  defaultPidDir,
			LogDir:  defaultLogDir,
		},
		Coordination: Coordination{
			Endpoint:              defaultCoordinationEndpoint,
			ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Heartbeat: Heartbeat{
			IntervalSeconds: defaultHeartbeatInterval,
		},
		Sync: Sync{
			SupervisorIntervalSeconds: defaultSupervisorSyncInterval,
			ShutdownGraceSeconds:      defaultShutdownGraceSeconds,
		},
		Monitor: Monitor{
			Bind: defaultMonitorBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
