package rpmsg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/rpmsgbench/internal/domain"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// Defaults matching the OpenAMP echo firmware.
const (
	DefaultCtrlDevice   = "/dev/rpmsg_ctrl0"
	DefaultEndpointName = "rpmsg-openamp-demo-channel"
	DefaultEndpointSrc  = 0
	DefaultEndpointDst  = 0xFFFFFFFF
	DefaultEndpointWait = 5 * time.Second
)

var nodeName = regexp.MustCompile(`^rpmsg[0-9]+$`)

// EndpointConfig describes how to obtain the endpoint device.
type EndpointConfig struct {
	// Path is an explicit endpoint device. When set, no endpoint is created.
	Path string

	// CtrlDevice is the rpmsg control device used to create the endpoint.
	CtrlDevice string

	Name string
	Src  uint32
	Dst  uint32

	// Wait bounds how long to wait for the endpoint node to appear.
	Wait time.Duration
}

// PrepareEndpoint returns the path of a usable endpoint device. An explicit
// path must exist. Otherwise an endpoint is created on the control device and
// the new rpmsgN node that appears next to it is returned.
func PrepareEndpoint(ctx context.Context, cfg EndpointConfig, logger log.Logger) (string, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrEndpointUnavailable, err)
		}
		return cfg.Path, nil
	}

	if cfg.CtrlDevice == "" {
		cfg.CtrlDevice = DefaultCtrlDevice
	}
	if cfg.Name == "" {
		cfg.Name = DefaultEndpointName
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultEndpointWait
	}

	dir := filepath.Dir(cfg.CtrlDevice)
	known, err := ListNodes(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEndpointUnavailable, err)
	}
	waiter, err := NewNodeWaiter(dir, func(name string) bool {
		return nodeName.MatchString(name) && !known[name]
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEndpointUnavailable, err)
	}
	defer waiter.Close()

	logger.Info("creating rpmsg endpoint",
		log.String("ctrl", cfg.CtrlDevice),
		log.String("name", cfg.Name),
		log.Uint32("src", cfg.Src),
		log.Uint32("dst", cfg.Dst),
	)
	if err := createEndpoint(cfg.CtrlDevice, cfg.Name, cfg.Src, cfg.Dst); err != nil {
		return "", fmt.Errorf("%w: create endpoint: %v", domain.ErrEndpointUnavailable, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Wait)
	defer cancel()
	path, err := waiter.Wait(waitCtx)
	if err != nil {
		return "", fmt.Errorf("%w: waiting for endpoint node: %v", domain.ErrEndpointUnavailable, err)
	}
	logger.Info("rpmsg endpoint ready", log.String("path", path))
	return path, nil
}

// ListNodes returns the rpmsgN entries currently present in dir.
func ListNodes(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]bool)
	for _, e := range entries {
		if nodeName.MatchString(e.Name()) {
			nodes[e.Name()] = true
		}
	}
	return nodes, nil
}

// NodeWaiter watches a directory for an entry accepted by match. The watch
// is armed by NewNodeWaiter, so entries created between construction and
// Wait are not missed.
type NodeWaiter struct {
	dir     string
	match   func(name string) bool
	watcher *fsnotify.Watcher
}

// NewNodeWaiter starts watching dir.
func NewNodeWaiter(dir string, match func(name string) bool) (*NodeWaiter, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &NodeWaiter{dir: dir, match: match, watcher: watcher}, nil
}

// Wait blocks until a matching entry exists in the directory and returns
// its full path.
func (w *NodeWaiter) Wait(ctx context.Context) (string, error) {
	if path, ok := w.scan(); ok {
		return path, nil
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return "", fmt.Errorf("watcher closed")
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			if name := filepath.Base(event.Name); w.match(name) {
				return filepath.Join(w.dir, name), nil
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return "", fmt.Errorf("watcher closed")
			}
			// Overflow drops events; rescan instead of trusting the stream.
			if path, ok := w.scan(); ok {
				return path, nil
			}
		}
	}
}

func (w *NodeWaiter) scan() (string, bool) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if w.match(e.Name()) {
			return filepath.Join(w.dir, e.Name()), true
		}
	}
	return "", false
}

// Close stops the watch.
func (w *NodeWaiter) Close() error { return w.watcher.Close() }
