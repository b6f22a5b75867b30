package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCoordination(); err != nil {
		return err
	}
	if err := c.validateIntervals(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PidDir) == "" {
		return errors.New("paths.pid_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateCoordination() error {
	endpoint := strings.TrimSpace(c.Coordination.Endpoint)
	if endpoint == "" {
		return errors.New("coordination.endpoint must be set")
	}
	if _, _, err := net.SplitHostPort(endpoint); err != nil {
		return fmt.Errorf("coordination.endpoint must be host:port: %w", err)
	}
	if c.Coordination.ConnectTimeoutSeconds <= 0 {
		return errors.New("coordination.connect_timeout_seconds must be positive")
	}
	if c.Coordination.RequestTimeoutSeconds <= 0 {
		return errors.New("coordination.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateIntervals() error {
	if c.Heartbeat.IntervalSeconds <= 0 {
		return errors.New("heartbeat.interval_seconds must be positive")
	}
	if c.Sync.SupervisorIntervalSeconds <= 0 {
		return errors.New("sync.supervisor_interval_seconds must be positive")
	}
	if c.Sync.ShutdownGraceSeconds < 0 {
		return errors.New("sync.shutdown_grace_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.LocalMode {
		return nil
	}
	bind := strings.TrimSpace(c.Monitor.Bind)
	if bind == "" {
		return errors.New("monitor.bind must be set when local_mode is false")
	}
	if _, _, err := net.SplitHostPort(bind); err != nil {
		return fmt.Errorf("monitor.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
