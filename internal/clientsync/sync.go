// Package clientsync orchestrates one client-side sync pass: load config,
// guard against unresolved conflicts, pull the server's delta, reconcile it
// against the working tree, and push back whatever survives.
package clientsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/camlsync/camlsync/internal/clientconfig"
	"github.com/camlsync/camlsync/internal/reconcile"
	"github.com/camlsync/camlsync/internal/syncclient"
)

// Client ties a project root's config and reconciler to a server connection.
type Client struct {
	root   string
	cfg    *clientconfig.Config
	remote *syncclient.Client
	rec    *reconcile.Reconciler
}

// Open loads the config at configPath (project root's .config) and wires up
// the reconciler and protocol adapter against it.
func Open(root, configPath string) (*Client, error) {
	cfg, err := clientconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	return &Client{
		root:   root,
		cfg:    cfg,
		remote: syncclient.New(cfg.URL, cfg.Token),
		rec:    reconcile.New(root),
	}, nil
}

// Config returns the loaded client config.
func (c *Client) Config() *clientconfig.Config { return c.cfg }

// Reconciler returns the client's reconciler, for read-only commands
// (status, checkout, conflict) that don't need the network.
func (c *Client) Reconciler() *reconcile.Reconciler { return c.rec }

// Sync runs one full reconciliation pass per §2's control flow: pre-sync
// guard, pull the server delta, reconcile, push the non-conflicting
// remainder, and persist the new client version.
func (c *Client) Sync(ctx context.Context) (reconcile.Result, error) {
	if err := c.rec.PreSyncGuard(); err != nil {
		return reconcile.Result{}, err
	}

	serverDiff, err := c.remote.GetUpdateDiff(ctx, c.cfg.Version)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("pull update: %w", err)
	}
	c.cfg.Version = serverDiff.CurVersion

	result, err := c.rec.Reconcile(serverDiff, c.cfg.Version)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("reconcile: %w", err)
	}

	if len(result.Outgoing.EditedFiles) > 0 {
		newVersion, err := c.remote.PostLocalDiff(ctx, result.Outgoing)
		if err != nil {
			return result, fmt.Errorf("push local changes: %w", err)
		}
		c.cfg.Version = newVersion
	}

	if err := c.cfg.Save(); err != nil {
		return result, fmt.Errorf("save client config: %w", err)
	}

	if len(result.Conflicts) > 0 {
		slog.Warn("sync finished with conflicts", "files", result.Conflicts)
	}
	return result, nil
}

// History fetches the server's version history log.
func (c *Client) History(ctx context.Context) ([]syncclient.HistoryEntry, error) {
	return c.remote.GetHistory(ctx)
}
