// Package sshprobe is a discovery.Backend that polls a remote host's
// device manifest over SFTP and reports sightings into the registry.
// Adapted from the teacher's pkg/delivery/ssh, which pushed firmware
// payloads over the same transport; this backend pulls an inventory
// file instead.
package sshprobe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/fwdaemon/devregistry/internal/retry"
	"github.com/fwdaemon/devregistry/internal/stream"
	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/discovery"
)

// manifestBufPool reuses read buffers across polls; manifests are small
// and polled repeatedly, making per-poll allocation wasteful.
var manifestBufPool = stream.NewBufferPool(32 * 1024)

// Config holds connection and polling parameters.
type Config struct {
	// Address is host:port of the SSH endpoint.
	Address string

	// Username for SSH authentication.
	Username string

	// PrivateKeyPath is the path to the SSH private key file.
	PrivateKeyPath string

	// Password is an alternative to key-based auth.
	Password string

	// Timeout bounds a single connect/fetch cycle.
	Timeout time.Duration

	// ManifestPath is the remote file listing present devices, one
	// "device-id guid1,guid2" pair per line.
	ManifestPath string

	// PollInterval is how often the manifest is re-fetched.
	PollInterval time.Duration

	// RemoveDelay is applied to SimpleDevices built from manifest rows.
	RemoveDelay time.Duration

	// Retry controls backoff for a failed connect/fetch attempt.
	Retry *retry.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Username:     "root",
		Timeout:      10 * time.Second,
		ManifestPath: "/run/devregistry/manifest",
		PollInterval: 5 * time.Second,
		RemoveDelay:  2 * time.Second,
		Retry:        retry.DefaultConfig(),
	}
}

// Backend polls a remote manifest file over SFTP on an interval.
type Backend struct {
	cfg  *Config
	name string

	seen map[string]core.Device
}

// New creates an sshprobe Backend named name.
func New(name string, cfg *Config) *Backend {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Backend{cfg: cfg, name: name, seen: map[string]core.Device{}}
}

func (b *Backend) Name() string { return b.name }

// Run polls the manifest until ctx is cancelled.
func (b *Backend) Run(ctx context.Context, sink discovery.Sink) error {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := b.pollOnce(ctx, sink); err != nil {
			// A single failed poll is not fatal; the next tick retries.
			_ = err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Rescan triggers one immediate manifest fetch outside the normal poll
// interval.
func (b *Backend) Rescan(ctx context.Context, sink discovery.Sink) error {
	return b.pollOnce(ctx, sink)
}

func (b *Backend) pollOnce(ctx context.Context, sink discovery.Sink) error {
	var manifest []byte
	err := retry.Do(ctx, b.cfg.Retry, func() error {
		data, err := b.fetchManifest(ctx)
		if err != nil {
			return err
		}
		manifest = data
		return nil
	})
	if err != nil {
		return fmt.Errorf("sshprobe: fetch manifest: %w", err)
	}

	rows, err := parseManifest(manifest)
	if err != nil {
		return fmt.Errorf("sshprobe: parse manifest: %w", err)
	}

	b.reconcile(rows, sink)
	return nil
}

func (b *Backend) reconcile(rows []manifestRow, sink discovery.Sink) {
	current := make(map[string]bool, len(rows))
	for _, row := range rows {
		current[row.id] = true

		d, ok := b.seen[row.id]
		if !ok {
			d = core.NewSimpleDevice(row.id, row.guids...)
			d.SetRemoveDelay(b.cfg.RemoveDelay)
			b.seen[row.id] = d
		}
		sink.Add(d)
	}

	for id, d := range b.seen {
		if !current[id] {
			sink.Remove(d)
			delete(b.seen, id)
		}
	}
}

type manifestRow struct {
	id    string
	guids []string
}

func parseManifest(data []byte) ([]manifestRow, error) {
	var rows []manifestRow
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := manifestRow{id: fields[0]}
		if len(fields) > 1 {
			row.guids = strings.Split(fields[1], ",")
		}
		rows = append(rows, row)
	}
	return rows, scanner.Err()
}

func (b *Backend) fetchManifest(ctx context.Context) ([]byte, error) {
	sshConfig, err := b.createSSHConfig()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	connChan := make(chan *ssh.Client, 1)
	errChan := make(chan error, 1)
	go func() {
		client, err := ssh.Dial("tcp", b.cfg.Address, sshConfig)
		if err != nil {
			errChan <- err
			return
		}
		connChan <- client
	}()

	var client *ssh.Client
	select {
	case client = <-connChan:
		defer client.Close()
	case err := <-errChan:
		return nil, fmt.Errorf("connect: %w", err)
	case <-dialCtx.Done():
		return nil, dialCtx.Err()
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return nil, fmt.Errorf("sftp handshake: %w", err)
	}
	defer sftpClient.Close()

	f, err := sftpClient.Open(b.cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	scratch := manifestBufPool.Get()
	defer manifestBufPool.Put(scratch)

	var buf bytes.Buffer
	if _, err := io.CopyBuffer(&buf, f, *scratch); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *Backend) createSSHConfig() (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:            b.cfg.Username,
		Timeout:         b.cfg.Timeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: verify against known_hosts
	}

	switch {
	case b.cfg.PrivateKeyPath != "":
		key, err := os.ReadFile(b.cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		config.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	case b.cfg.Password != "":
		config.Auth = []ssh.AuthMethod{ssh.Password(b.cfg.Password)}
	default:
		return nil, fmt.Errorf("no authentication method configured")
	}

	return config, nil
}
