/* Copyright 2016 The Bazel Authors. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

   http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command excludewatchd is the background daemon: it loads the config,
// starts the watcher, and serves the Pause/Reload/Restart/Shutdown/Status
// control protocol over a Unix domain socket.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/excludewatch/excludewatch/internal/configstore"
	"github.com/excludewatch/excludewatch/internal/logging"
	"github.com/excludewatch/excludewatch/internal/mission"
	"github.com/excludewatch/excludewatch/internal/rpcserver"
)

func main() {
	log.SetPrefix("excludewatchd: ")
	log.SetFlags(0)

	configDir := flag.String("config-dir", "", "config directory (default: OS config dir)")
	socketPath := flag.String("uds", "", "control socket path (default: <config-dir>/excludewatchd.sock)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := run(*configDir, *socketPath, *debug); err != nil {
		log.Fatal(err)
	}
}

func run(configDir, socketPath string, debug bool) error {
	logger := logging.New(os.Stderr, debug)

	if configDir == "" {
		var err error
		configDir, err = configstore.DefaultConfigDir()
		if err != nil {
			return err
		}
	}
	if socketPath == "" {
		socketPath = filepath.Join(configDir, "excludewatchd.sock")
	}

	store, err := configstore.New(configDir)
	if err != nil {
		return err
	}
	cfg, err := store.LoadResolved()
	if err != nil {
		return err
	}

	m := mission.New(store, cfg, logger)
	m.Start()

	srv, err := rpcserver.New(socketPath, m, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
		case <-srv.ShutdownRequested():
		}
		cancel()
	}()

	logger.Infof("listening on %s", socketPath)
	if err := srv.Serve(ctx); err != nil {
		return err
	}
	m.Pause()
	logger.Infof("shut down")
	return nil
}
