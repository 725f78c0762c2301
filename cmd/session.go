package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/internal/store"
	"github.com/dcos/dcos-test-utils/internal/store/migrations"
	"github.com/dcos/dcos-test-utils/pkg/cluster"
	"github.com/dcos/dcos-test-utils/pkg/credentials"
	"github.com/dcos/dcos-test-utils/pkg/session"
	"github.com/dcos/dcos-test-utils/pkg/ssh"
	"github.com/dcos/dcos-test-utils/pkg/testenv"
)

func clusterArgs(c config.Cluster) cluster.Args {
	args := cluster.Args{
		DNSAddress:         c.DNSAddress,
		Masters:            c.Masters,
		Agents:             c.Agents,
		PublicAgents:       c.PublicAgents,
		Enterprise:         c.Enterprise,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
	switch {
	case c.Username != "":
		args.User = cluster.NewUser(map[string]any{"uid": c.Username, "password": c.Password})
	case c.Token != "":
		args.User = cluster.NewUser(map[string]any{"token": c.Token})
	}
	return args
}

// newSession builds a session and logs in when a user is configured. It
// does not wait for the cluster.
func newSession(ctx context.Context, cfg *config.Configuration) (*cluster.Session, error) {
	s, err := buildSession(cfg)
	if err != nil {
		return nil, err
	}

	if s.User != nil {
		if err := s.Login(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// buildSession builds a session without contacting the cluster.
func buildSession(cfg *config.Configuration) (*cluster.Session, error) {
	if cfg.Cluster.DNSAddress == "" {
		return nil, errors.New("dns-address cannot be empty")
	}

	args := clusterArgs(cfg.Cluster)
	if uid := cfg.Cluster.ServiceAccount; uid != "" {
		account, err := newCredentialStore(cfg).Load(uid)
		if err != nil {
			return nil, fmt.Errorf("loading credentials of %s: %w", uid, err)
		}
		args.User = cluster.NewUser(account.Map())
	}

	newFn := cluster.New
	if cfg.Cluster.Enterprise {
		newFn = testenv.EnterpriseSession
	}

	return newFn(args,
		cluster.WithRetryPolicy(session.RetryPolicy{
			Interval: cfg.Cluster.RetryInterval,
			Attempts: cfg.Cluster.RetryAttempts,
		}),
		cluster.WithPollInterval(cfg.Cluster.RetryInterval),
	)
}

// openStore returns nil when recording is disabled.
func openStore(ctx context.Context, cfg *config.Configuration) (*store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}

	db, err := store.NewDB(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store.NewStore(db), nil
}

func newSSHClient(cfg *config.Configuration) (*ssh.Client, error) {
	if cfg.SSH.KeyPath == "" {
		return nil, errors.New("ssh-key-path cannot be empty")
	}
	key, err := os.ReadFile(cfg.SSH.KeyPath)
	if err != nil {
		return nil, err
	}
	return ssh.NewClient(cfg.SSH.User, key, ssh.WithBinaries(cfg.SSH.SSHBinary, cfg.SSH.SCPBinary))
}

func newCredentialStore(cfg *config.Configuration) credentials.Store {
	return credentials.NewDiskStore(cfg.Store.CredentialsFolder)
}
