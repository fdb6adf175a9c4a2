// Copyright 2023 The powcoin Authors
// This file is part of powcoin.
//
// powcoin is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// powcoin is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with powcoin. If not, see <http://www.gnu.org/licenses/>.

// powcoin is a minimal proof-of-work chain node with peer replication.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	log "github.com/inconshreveable/log15"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"powcoin/node"
	"powcoin/params"
)

var (
	hostFlag = cli.StringFlag{
		Name:  "host",
		Usage: "Interface the HTTP listener binds to",
		Value: params.DefaultHTTPHost,
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug",
		Value: 3,
	}
)

var app = cli.NewApp()

func init() {
	app.Name = "powcoin"
	app.Usage = "proof-of-work chain node"
	app.Version = "0.1.0"
	app.ArgsUsage = "[port]"
	app.Flags = []cli.Flag{hostFlag, verbosityFlag}
	app.Action = run
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	setupLogging(ctx.Int(verbosityFlag.Name))

	port := params.DefaultHTTPPort
	if arg := ctx.Args().First(); arg != "" {
		p, err := strconv.Atoi(arg)
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("invalid port %q", arg)
		}
		port = p
	}

	n := node.New(node.Config{Host: ctx.String(hostFlag.Name), Port: port})
	if err := n.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Got interrupt, shutting down")
	n.Stop()
	return nil
}

func setupLogging(verbosity int) {
	usecolor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	output := io.Writer(os.Stderr)
	format := log.LogfmtFormat()
	if usecolor {
		output = colorable.NewColorableStderr()
		format = log.TerminalFormat()
	}
	lvl := log.Lvl(verbosity)
	if lvl > log.LvlDebug {
		lvl = log.LvlDebug
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(output, format)))
}
