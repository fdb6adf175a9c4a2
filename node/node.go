// Copyright 2023 The powcoin Authors
// This file is part of the powcoin library.
//
// The powcoin library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The powcoin library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the powcoin library. If not, see <http://www.gnu.org/licenses/>.

// Package node ties the chain store, consensus engine and replication
// client together under one HTTP surface.
package node

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/inconshreveable/log15"

	"powcoin/consensus/pow"
	"powcoin/core"
	"powcoin/p2p"
)

// Config collects the node's listening parameters.
type Config struct {
	Host string
	Port int
}

// Node is a running chain node. All mutable state — the chain, the peer
// registry and the own address — sits behind one mutex held for the entirety
// of each handler, outbound broadcasts included. A mining request therefore
// blocks all other state access for the duration of the search: correctness
// over throughput. Peers are separate processes, so holding the lock across
// the broadcast cannot deadlock.
type Node struct {
	mu     sync.Mutex
	chain  *core.Blockchain
	peers  *p2p.PeerSet
	self   string
	engine *pow.Engine
	client *p2p.Client

	srv *http.Server
	log log.Logger
}

// New assembles a node with a fresh genesis chain and an empty peer set.
func New(cfg Config) *Node {
	self := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	n := &Node{
		chain:  core.NewBlockchain(),
		peers:  p2p.NewPeerSet(),
		self:   self,
		engine: pow.New(),
		client: p2p.NewClient(),
		log:    log.New("self", self),
	}
	n.srv = &http.Server{
		Addr:        self,
		Handler:     n.handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return n
}

// Start binds the listener and serves until Stop. A bind failure is returned
// to the caller; anything after a successful bind is logged and non-fatal.
func (n *Node) Start() error {
	listener, err := net.Listen("tcp", n.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %v", n.srv.Addr, err)
	}
	n.log.Info("Node started", "addr", "http://"+n.self)

	go func() {
		if err := n.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			n.log.Error("HTTP server terminated", "err", err)
		}
	}()
	return nil
}

// Stop shuts the HTTP server down, letting in-flight handlers drain.
func (n *Node) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.srv.Shutdown(ctx); err != nil {
		n.log.Warn("Unclean shutdown", "err", err)
	}
	n.log.Info("Node stopped")
}
