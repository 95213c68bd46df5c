package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/careplanner/internal/config"
)

func memoryConfig() (*config.Config, error) {
	v := viper.New()
	v.Set("storage_backend", config.BackendMemory)
	v.Set("public_base_url", "http://careplanner.test")
	v.Set("log_level", "error")
	return config.LoadFrom(v)
}

// sharedApp builds one memory-backed app and hands it to every command so
// state survives between invocations.
func sharedApp() appFactory {
	var (
		once sync.Once
		a    *app
		err  error
	)
	return func(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts buildOptions) (*app, error) {
		once.Do(func() { a, err = buildApp(ctx, cfg, log, opts) })
		return a, err
	}
}

func run(t *testing.T, build appFactory, args ...string) (string, error) {
	t.Helper()
	return runWith(t, memoryConfig, build, args...)
}

func runWith(t *testing.T, load func() (*config.Config, error), build appFactory, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(load, build)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAttachmentsUploadListURL(t *testing.T) {
	build := sharedApp()
	dir := t.TempDir()
	file := filepath.Join(dir, "care plan.txt")
	require.NoError(t, os.WriteFile(file, []byte("twelve bytes"), 0o600))

	out, err := run(t, build, "attachments", "list", "--kind", "service_user", "--id", "abc-123")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents uploaded yet.")

	out, err = run(t, build, "attachments", "upload", "--kind", "service_user", "--id", "abc-123", file)
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 3, out)
	assert.Equal(t, "uploaded", fields[0])
	id := fields[1]
	assert.True(t, strings.HasPrefix(fields[2], "documents/service_user/abc-123/"))
	assert.True(t, strings.HasSuffix(fields[2], "_care_plan.txt"))

	out, err = run(t, build, "attachments", "list", "--kind", "service_user", "--id", "abc-123")
	require.NoError(t, err)
	assert.Contains(t, out, "care plan.txt")
	assert.Contains(t, out, "0 KB")
	assert.Contains(t, out, id)

	out, err = run(t, build, "attachments", "url", "--id", id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "http://careplanner.test/blobs/documents/service_user/abc-123/"), out)
	assert.Contains(t, out, "signature=")
}

func TestAttachmentsListUnknownFileType(t *testing.T) {
	load := func() (*config.Config, error) {
		cfg, err := memoryConfig()
		if err != nil {
			return nil, err
		}
		cfg.AllowedExtensions = nil
		return cfg, nil
	}
	build := sharedApp()
	file := filepath.Join(t.TempDir(), "handover")
	require.NoError(t, os.WriteFile(file, []byte("night shift notes"), 0o600))

	_, err := runWith(t, load, build, "attachments", "upload", "--kind", "staff", "--id", "s-7", file)
	require.NoError(t, err)

	out, err := runWith(t, load, build, "attachments", "list", "--kind", "staff", "--id", "s-7")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, out)
	fields := strings.Fields(lines[1])
	require.GreaterOrEqual(t, len(fields), 4, out)
	assert.Equal(t, "handover", fields[0])
	assert.Equal(t, "unknown", fields[3])
}

func TestAttachmentsRejectsUnknownKind(t *testing.T) {
	_, err := run(t, sharedApp(), "attachments", "list", "--kind", "visitor", "--id", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown owner kind")
}

func TestAttachmentsURLUnknownID(t *testing.T) {
	_, err := run(t, sharedApp(), "attachments", "url", "--id", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
}

func TestWorkerRefusesMemoryBackend(t *testing.T) {
	_, err := run(t, sharedApp(), "worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve --with-worker")
}
