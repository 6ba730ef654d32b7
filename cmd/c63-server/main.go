/*
DESCRIPTION
  c63-server waits for a client's dimension handshake, then encodes every
  frame it's handed and publishes the result back.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// c63-server is the server-side command of a two-node c63 session: it owns
// the codec state and drives the encode loop through protocol/c63proto.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/protocol/c63proto"
	"github.com/ausocean/c63/transport"
	"github.com/ausocean/c63/transport/netseg"
	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	progName      = "c63-server"
	defaultGroup  = 1
	defaultLogMax = 10 // megabytes
)

var log logging.Logger

func main() {
	remote := flag.Int("r", 0, "remote node identifier")
	addr := flag.String("addr", ":6363", "address to listen on, host:port")
	group := flag.Uint("group", defaultGroup, "session group identifier, must match the client")
	qp := flag.Int("qp", c63.DefaultQP, "quantization parameter")
	searchRange := flag.Int("range", c63.DefaultSearchRange, "motion search range, in pixels")
	keyint := flag.Int("keyint", c63.DefaultKeyframeInterval, "keyframe interval, in frames")
	logLevel := flag.Int("loglevel", int(logging.Info), "log level: 0=Debug 1=Info 2=Warning 3=Error 4=Fatal")
	logPath := flag.String("logpath", "", "log file path; empty logs to stderr only")
	flag.Parse()

	log = newLogger(*logLevel, *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info(progName+": listening", "addr", *addr)
	node, err := netseg.Listen(ctx, *addr)
	if err != nil {
		log.Fatal(progName+": could not listen", "error", err.Error())
	}

	server := &c63proto.Server{
		Transport:  node,
		Group:      uint32(*group),
		RemoteNode: *remote,
		Log:        log,
	}

	// State is built from the client's announced dimensions once the
	// handshake completes (see Server.Run); these flags only fix the codec
	// parameters, not the geometry.
	server.NewState = func(width, height int) (*c63.State, error) {
		return c63.NewState(width, height,
			c63.WithQP(*qp),
			c63.WithSearchRange(*searchRange),
			c63.WithKeyframeInterval(*keyint),
		)
	}

	if err := server.Run(ctx); err != nil {
		log.Fatal(progName+": session failed", "error", err.Error())
	}
	log.Info(progName + ": session complete")
}

func newLogger(level int, path string) logging.Logger {
	if level < int(logging.Debug) || level > int(logging.Fatal) {
		level = int(logging.Info)
	}
	var out *lumberjack.Logger
	if path != "" {
		out = &lumberjack.Logger{
			Filename: path,
			MaxSize:  defaultLogMax,
			MaxAge:   28,
			Compress: true,
		}
	}
	if out == nil {
		return logging.New(int8(level), os.Stderr, true)
	}
	return logging.New(int8(level), out, true)
}

// transport.Transport is satisfied by netseg.Node; nothing else in this
// file should need to name its concrete type.
var _ transport.Transport = (*netseg.Node)(nil)
