package configuration

import (
	"fmt"
	"os"

	"github.com/Dreamacro/clash/config"
	"github.com/Dreamacro/clash/hub/executor"
	"github.com/Dreamacro/clash/hub/route"
	clog "github.com/Dreamacro/clash/log"
	"github.com/sirupsen/logrus"
)

// StartProxy boots the embedded clash core from c.ClashConfig so model calls
// can leave through PROXY_URI. It does nothing when no config is set.
func (c *Config) StartProxy(log *logrus.Entry) error {
	if c.ClashConfig == "" {
		return nil
	}
	fileBytes, err := os.ReadFile(c.ClashConfig)
	if err != nil {
		return fmt.Errorf("failed to read clash config: %w", err)
	}

	clog.SetLevel(clog.SILENT)
	cfg, err := config.Parse(fileBytes)
	if err != nil {
		return fmt.Errorf("failed to parse clash config: %w", err)
	}
	cfg.General.ExternalController = c.ExtCtrl
	cfg.General.LogLevel = clog.SILENT
	if cfg.General.ExternalUI != "" {
		route.SetUIPath(cfg.General.ExternalUI)
	}

	go route.Start(cfg.General.ExternalController, cfg.General.Secret)

	executor.ApplyConfig(cfg, true)
	log.WithFields(logrus.Fields{
		"controller": c.ExtCtrl,
		"proxy":      c.ProxyURI,
	}).Info("embedded proxy started")
	return nil
}
