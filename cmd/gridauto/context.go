package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"gridauto/internal/bridge"
	"gridauto/internal/config"
	"gridauto/internal/logging"
	"gridauto/internal/simauto"
)

type commandContext struct {
	socketFlag *string
	configFlag *string
	caseFlag   *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag, caseFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
		caseFlag:   caseFlag,
	}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, _, _, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) socketPath() (string, error) {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Bridge.Socket, nil
}

func (c *commandContext) casePath(cfg config.Config) string {
	if c.caseFlag != nil && strings.TrimSpace(*c.caseFlag) != "" {
		return strings.TrimSpace(*c.caseFlag)
	}
	return cfg.Case.Path
}

func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withSession dials the bridge, opens a session with the configured
// case, runs fn, and tears everything down. Session close also closes
// the bridge client.
func (c *commandContext) withSession(fn func(context.Context, *simauto.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	socket, err := c.socketPath()
	if err != nil {
		return err
	}

	client, err := bridge.Dial(socket, time.Duration(cfg.Bridge.DialTimeoutSeconds)*time.Second)
	if err != nil {
		return wrapDialError(err, socket)
	}

	ctx := context.Background()
	session, err := simauto.Open(ctx, simauto.Options{
		Endpoint:         client,
		Logger:           c.logger(),
		CasePath:         c.casePath(cfg),
		LockDir:          cfg.Case.LockDir,
		CreateIfNotFound: cfg.SimAuto.CreateIfNotFound,
		UIVisible:        cfg.SimAuto.UIVisible,
		PrefetchTypes:    cfg.SimAuto.PrefetchTypes,
		VerifySkipFields: cfg.Verify.SkipFields,
		VerifyTolerance:  cfg.Verify.Tolerance,
	})
	if err != nil {
		_ = client.Close()
		return err
	}
	defer session.Close()

	return fn(ctx, session)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to server: socket %s not found; start the simulator with `gridautosim serve`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to server: socket %s refused the connection; verify the server is running", socket)
	default:
		return fmt.Errorf("connect to server: %w", err)
	}
}

// splitList parses a comma-separated flag value.
func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
