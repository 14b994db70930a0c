package main

import (
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_ListenFailureReturns(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	server := &http.Server{Addr: taken.Addr().String()}
	done := make(chan error, 1)
	go func() { done <- serve(server, make(chan os.Signal)) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestServe_StopSignal(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0"}
	stop := make(chan os.Signal, 1)
	stop <- syscall.SIGTERM

	assert.NoError(t, serve(server, stop))
	require.NoError(t, server.Close())
}
