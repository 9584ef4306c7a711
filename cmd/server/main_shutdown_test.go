package main

import (
	"context"
	"net"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stubSignals makes shutdown receive SIGTERM once ready is closed.
func stubSignals(t *testing.T, ready <-chan struct{}) {
	t.Helper()
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			<-ready
			ch <- syscall.SIGTERM
		}()
	}
}

func TestShutdownDrainsIdleServer(t *testing.T) {
	ready := make(chan struct{})
	close(ready)
	stubSignals(t, ready)

	server := &http.Server{}
	called := make(chan struct{}, 1)
	server.RegisterOnShutdown(func() {
		called <- struct{}{}
	})

	core, logs := observer.New(zapcore.InfoLevel)
	shutdown(server, time.Second, zap.New(core))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected server shutdown callback to execute")
	}

	if logs.FilterMessage("shutting down server").Len() != 1 {
		t.Fatalf("expected shutdown to be logged, got %v", logs.All())
	}
	if logs.FilterMessage("graceful shutdown failed").Len() != 0 {
		t.Fatalf("expected graceful shutdown to succeed, got %v", logs.All())
	}
}

func TestShutdownForcesCloseWhenPlanIsInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/plan", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := &http.Server{Handler: mux}
	go func() {
		_ = server.Serve(ln)
	}()

	clientDone := make(chan error, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/api/plan", "application/json", nil)
		if err == nil {
			_ = resp.Body.Close()
		}
		clientDone <- err
	}()

	stubSignals(t, entered)

	core, logs := observer.New(zapcore.InfoLevel)
	shutdown(server, 10*time.Millisecond, zap.New(core))

	warnings := logs.FilterMessage("graceful shutdown failed").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one graceful shutdown warning, got %v", logs.All())
	}
	if warnings[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", warnings[0].Level)
	}
	loggedErr, ok := warnings[0].ContextMap()["error"].(string)
	if !ok || loggedErr != context.DeadlineExceeded.Error() {
		t.Fatalf("expected deadline exceeded in log fields, got %v", warnings[0].ContextMap())
	}

	select {
	case err := <-clientDone:
		if err == nil {
			t.Fatalf("expected in-flight request to be cut off by forced close")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected forced close to terminate the in-flight request")
	}
}
