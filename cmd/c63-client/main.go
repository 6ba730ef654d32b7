/*
DESCRIPTION
  c63-client reads a raw planar YUV 4:2:0 file, ships each frame to a c63
  server over a transport, and writes the results it gets back to a raw
  bitstream file.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// c63-client is the client-side command of a two-node c63 session: it owns
// the raw frame source and the encoded output, and drives the server
// through protocol/c63proto.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/ausocean/c63/device/yuvfile"
	"github.com/ausocean/c63/geometry"
	"github.com/ausocean/c63/protocol/c63proto"
	"github.com/ausocean/c63/sink"
	"github.com/ausocean/c63/sink/raw"
	"github.com/ausocean/c63/transport"
	"github.com/ausocean/c63/transport/netseg"
	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	progName      = "c63-client"
	defaultGroup  = 1
	defaultLogMax = 10 // megabytes
)

var log logging.Logger

func main() {
	width := flag.Int("w", 0, "raw frame width in pixels (required)")
	height := flag.Int("h", 0, "raw frame height in pixels (required)")
	output := flag.String("o", "", "output bitstream path (required)")
	remote := flag.Int("r", 0, "remote node identifier")
	addr := flag.String("addr", "", "server address to dial, host:port (required)")
	frameCap := flag.Int("f", 0, "stop after this many frames (0 means unlimited)")
	group := flag.Uint("group", defaultGroup, "session group identifier, must match the server")
	logLevel := flag.Int("loglevel", int(logging.Info), "log level: 0=Debug 1=Info 2=Warning 3=Error 4=Fatal")
	logPath := flag.String("logpath", "", "log file path; empty logs to stderr only")
	flag.Parse()

	log = newLogger(*logLevel, *logPath)

	if flag.NArg() != 1 {
		log.Fatal(progName + ": exactly one input YUV file path must be given")
	}
	input := flag.Arg(0)

	if *width <= 0 || *height <= 0 {
		log.Fatal(progName + ": -w and -h are required and must be positive")
	}
	if *output == "" {
		log.Fatal(progName + ": -o is required")
	}
	if *addr == "" {
		log.Fatal(progName + ": -addr is required")
	}

	src := yuvfile.New(log, input)
	if err := src.Start(); err != nil {
		log.Fatal(progName+": could not open input", "error", err.Error())
	}
	defer src.Stop()

	g, err := geometry.New(*width, *height)
	if err != nil {
		log.Fatal(progName+": invalid geometry", "error", err.Error())
	}

	out, err := raw.New(*output, g)
	if err != nil {
		log.Fatal(progName+": could not create output", "error", err.Error())
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info(progName+": dialing server", "addr", *addr)
	node, err := netseg.Dial(ctx, *addr)
	if err != nil {
		log.Fatal(progName+": could not connect to server", "error", err.Error())
	}

	client := &c63proto.Client{
		Transport:  node,
		Group:      uint32(*group),
		RemoteNode: *remote,
		Width:      *width,
		Height:     *height,
		FrameCap:   *frameCap,
		Source:     src,
		Sink:       sink.Adapter{W: out},
		Log:        log,
	}

	if err := client.Run(ctx); err != nil {
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
