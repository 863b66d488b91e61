package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lutefd/exchange-symbols/internal/commons"
	"github.com/Lutefd/exchange-symbols/internal/model"
	"github.com/Lutefd/exchange-symbols/internal/repository"
	"github.com/Lutefd/exchange-symbols/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	worker.SymbolsClient
	closed atomic.Int32
}

func (c *countingClient) Close() error {
	c.closed.Add(1)
	return c.SymbolsClient.Close()
}

type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) SaveLog(ctx context.Context, log model.Log) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockLogRepository) CreatePartition(ctx context.Context, month time.Time) error {
	args := m.Called(ctx, month)
	return args.Error(0)
}

func (m *MockLogRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

type testEnv struct {
	deps   dependencies
	stdout *bytes.Buffer
	client *countingClient
	apiKey atomic.Value
}

func newTestEnv(t *testing.T, status int, body string, config commons.Config) *testEnv {
	t.Helper()
	env := &testEnv{stdout: &bytes.Buffer{}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.apiKey.Store(r.Header.Get("apikey"))
		if r.URL.Path != "/symbols" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	config.BaseURL = server.URL + "/"
	if config.RequestTimeout == 0 {
		config.RequestTimeout = time.Second
	}

	env.deps = dependencies{
		loadEnv:    func(...string) error { return errors.New("open .env: no such file or directory") },
		loadConfig: func() (commons.Config, error) { return config, nil },
		openLogRepo: func(ctx context.Context, connURL string) (repository.LogRepository, error) {
			return nil, errors.New("log sink not expected")
		},
		newClient: func(config commons.Config) worker.SymbolsClient {
			env.client = &countingClient{SymbolsClient: worker.NewAPILayerClient(config, worker.WithHTTPClient(server.Client()))}
			return env.client
		},
		stdout:      env.stdout,
		sinkTimeout: commons.LogSinkConnectTimeout,
	}
	return env
}

func (e *testEnv) lines() []string {
	return strings.Split(strings.TrimRight(e.stdout.String(), "\n"), "\n")
}

func TestRun_Symbols(t *testing.T) {
	body := `{"success":true,"symbols":{"USD":"US Dollar","EUR":"Euro"}}`
	env := newTestEnv(t, http.StatusOK, body, commons.Config{APIKey: "secret"})

	code := run(context.Background(), env.deps)

	assert.Equal(t, exitOK, code)
	out := env.lines()
	require.Len(t, out, 3)
	assert.Equal(t, body, out[0])
	assert.ElementsMatch(t, []string{
		"Currency Code: USD, Description: US Dollar",
		"Currency Code: EUR, Description: Euro",
	}, out[1:])
	assert.Equal(t, "secret", env.apiKey.Load())
	assert.Equal(t, int32(1), env.client.closed.Load())
}

func TestRun_EmptySymbols(t *testing.T) {
	body := `{"success":true,"symbols":{}}`
	env := newTestEnv(t, http.StatusOK, body, commons.Config{})

	code := run(context.Background(), env.deps)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, []string{body, "No currency codes found."}, env.lines())
	assert.Equal(t, int32(1), env.client.closed.Load())
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		strict       bool
		expectedEcho bool
		expectedCode int
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"No API key found in request"}`, false, false, exitOK},
		{"unauthorized strict", http.StatusUnauthorized, `{}`, true, false, exitFailed},
		{"invalid json", http.StatusOK, `not json`, false, true, exitOK},
		{"invalid json strict", http.StatusOK, `not json`, true, true, exitFailed},
		{"symbols wrong type", http.StatusOK, `{"symbols":"not-an-object"}`, false, true, exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.status, tt.body, commons.Config{StrictExit: tt.strict})

			code := run(context.Background(), env.deps)

			assert.Equal(t, tt.expectedCode, code)
			out := env.lines()
			errorLines := 0
			for _, line := range out {
				if strings.HasPrefix(line, "Error:") {
					errorLines++
				}
			}
			assert.Equal(t, 1, errorLines)
			assert.NotContains(t, env.stdout.String(), "Currency Code")
			if tt.expectedEcho {
				require.Len(t, out, 2)
				assert.Equal(t, tt.body, out[0])
			} else {
				require.Len(t, out, 1)
			}
			assert.Equal(t, int32(1), env.client.closed.Load())
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	var stdout bytes.Buffer
	var client *countingClient
	deps := dependencies{
		loadEnv: func(...string) error { return nil },
		loadConfig: func() (commons.Config, error) {
			return commons.Config{BaseURL: server.URL, RequestTimeout: 20 * time.Millisecond}, nil
		},
		newClient: func(config commons.Config) worker.SymbolsClient {
			client = &countingClient{SymbolsClient: worker.NewAPILayerClient(config)}
			return client
		},
		stdout: &stdout,
	}

	code := run(context.Background(), deps)

	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "Error: "))
	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
	assert.Equal(t, int32(1), client.closed.Load())
}

func TestRun_ConfigError(t *testing.T) {
	var stdout bytes.Buffer
	clientCreated := false
	deps := dependencies{
		loadEnv: func(...string) error { return nil },
		loadConfig: func() (commons.Config, error) {
			return commons.Config{}, errors.New("configuration errors occurred")
		},
		newClient: func(config commons.Config) worker.SymbolsClient {
			clientCreated = true
			return nil
		},
		stdout: &stdout,
	}

	code := run(context.Background(), deps)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Error: configuration errors occurred\n", stdout.String())
	assert.False(t, clientCreated)
}

func TestRun_LogSink(t *testing.T) {
	body := `{"success":true,"symbols":{"CHF":"Swiss Franc"}}`
	env := newTestEnv(t, http.StatusOK, body, commons.Config{PostgresConn: "postgres://mock"})

	logRepo := new(MockLogRepository)
	logRepo.On("CreatePartition", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Times(commons.PartitionMonthsAhead)
	logRepo.On("SaveLog", mock.Anything, mock.AnythingOfType("model.Log")).Return(nil)
	logRepo.On("Close").Return(nil).Once()

	var openedWith string
	env.deps.openLogRepo = func(ctx context.Context, connURL string) (repository.LogRepository, error) {
		openedWith = connURL
		return logRepo, nil
	}

	code := run(context.Background(), env.deps)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "postgres://mock", openedWith)
	assert.Equal(t, []string{body, "Currency Code: CHF, Description: Swiss Franc"}, env.lines())
	logRepo.AssertExpectations(t)
	logRepo.AssertCalled(t, "SaveLog", mock.Anything, mock.MatchedBy(func(log model.Log) bool {
		return log.Level == model.LogLevelInfo && strings.Contains(log.Message, "returned 1 entries")
	}))
}

func TestRun_LogSinkUnavailable(t *testing.T) {
	body := `{"success":true,"symbols":{"CHF":"Swiss Franc"}}`
	env := newTestEnv(t, http.StatusOK, body, commons.Config{PostgresConn: "postgres://unreachable"})

	code := run(context.Background(), env.deps)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, []string{body, "Currency Code: CHF, Description: Swiss Franc"}, env.lines())
}

// silentListener accepts TCP connections and never answers on them, like a
// database host that is up but stuck.
func silentListener(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		listener.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			conn.Close()
		}
	})
	return listener.Addr().String()
}

func TestRun_LogSinkNeverAnswers(t *testing.T) {
	addr := silentListener(t)
	body := `{"success":true,"symbols":{"CHF":"Swiss Franc"}}`
	env := newTestEnv(t, http.StatusOK, body, commons.Config{
		PostgresConn: fmt.Sprintf("postgres://user:pass@%s/logs?sslmode=disable", addr),
	})
	env.deps.openLogRepo = defaultDeps.openLogRepo
	env.deps.sinkTimeout = 200 * time.Millisecond

	codeChan := make(chan int, 1)
	go func() {
		codeChan <- run(context.Background(), env.deps)
	}()

	select {
	case code := <-codeChan:
		assert.Equal(t, exitOK, code)
	case <-time.After(3 * time.Second):
		t.Fatal("run blocked on an unresponsive log sink")
	}
	assert.Equal(t, []string{body, "Currency Code: CHF, Description: Swiss Franc"}, env.lines())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("stdout closed")
}

func TestRun_ReportWriteFailure(t *testing.T) {
	tests := []struct {
		name       string
		loadConfig func() (commons.Config, error)
		strict     bool
	}{
		{
			name: "config error",
			loadConfig: func() (commons.Config, error) {
				return commons.Config{}, errors.New("configuration errors occurred")
			},
		},
		{
			name: "invalid schedule",
			loadConfig: func() (commons.Config, error) {
				return commons.Config{Schedule: "not a schedule", StrictExit: true}, nil
			},
			strict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := dependencies{
				loadEnv:    func(...string) error { return nil },
				loadConfig: tt.loadConfig,
				newClient: func(config commons.Config) worker.SymbolsClient {
					return worker.NewAPILayerClient(config)
				},
				stdout: failingWriter{},
			}

			var code int
			assert.NotPanics(t, func() {
				code = run(context.Background(), deps)
			})
			assert.Equal(t, exitCode(commons.Config{StrictExit: tt.strict}, true), code)
		})
	}
}

func TestRun_Scheduled(t *testing.T) {
	body := `{"success":true,"symbols":{"USD":"US Dollar"}}`
	env := newTestEnv(t, http.StatusOK, body, commons.Config{Schedule: "@hourly"})

	ctx, cancel := context.WithCancel(context.Background())
	codeChan := make(chan int, 1)
	go func() {
		codeChan <- run(ctx, env.deps)
	}()

	// the first run happens immediately, the next one only on the hour
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case code := <-codeChan:
		assert.Equal(t, exitOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled run did not stop")
	}
	assert.Equal(t, []string{body, "Currency Code: USD, Description: US Dollar"}, env.lines())
	assert.Equal(t, int32(1), env.client.closed.Load())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(commons.Config{}, false))
	assert.Equal(t, exitOK, exitCode(commons.Config{}, true))
	assert.Equal(t, exitOK, exitCode(commons.Config{StrictExit: true}, false))
	assert.Equal(t, exitFailed, exitCode(commons.Config{StrictExit: true}, true))
}
