package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sluice/internal/config"
)

// commandContext resolves shared flags lazily so commands that never touch
// the daemon do not require a reachable monitoring server.
type commandContext struct {
	addrFlag   *string
	configFlag *string

	cfg *config.Config
}

func newCommandContext(addrFlag, configFlag *string) *commandContext {
	return &commandContext{addrFlag: addrFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, _, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) monitorAddr() (string, error) {
	if addr := strings.TrimSpace(*c.addrFlag); addr != "" {
		return addr, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.LocalMode || strings.TrimSpace(cfg.Monitor.Bind) == "" {
		return "", fmt.Errorf("no monitoring server configured; pass --addr")
	}
	return cfg.Monitor.Bind, nil
}

func (c *commandContext) fetchJSON(path string, out any) error {
	addr, err := c.monitorAddr()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get("http://" + addr + path)
	if err != nil {
		return fmt.Errorf("reach supervisor at %s: %w", addr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("supervisor returned %s for %s", resp.Status, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
