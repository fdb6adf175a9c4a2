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

package node

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"powcoin/consensus/pow"
	"powcoin/core/types"
	"powcoin/p2p"
)

// maxRequestBytes caps inbound request bodies.
const maxRequestBytes = 16 << 20

// handler builds the node's HTTP surface: the three read endpoints, the
// mining endpoint and the two replication endpoints, CORS-wrapped the same
// way the rpc stack of a full node is.
func (n *Node) handler() http.Handler {
	router := httprouter.New()
	router.GET("/blocks", n.getBlocks)
	router.GET("/latest-block", n.getLatestBlock)
	router.POST("/mine", n.mine)
	router.GET("/peers", n.getPeers)
	router.POST("/add-peer", n.addPeer)
	router.POST("/update-chain", n.updateChain)
	return cors.Default().Handler(router)
}

func (n *Node) getBlocks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n.mu.Lock()
	blocks := n.chain.Blocks()
	n.mu.Unlock()
	writeJSON(w, blocks)
}

func (n *Node) getLatestBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n.mu.Lock()
	head := n.chain.CurrentBlock()
	n.mu.Unlock()
	writeJSON(w, head)
}

func (n *Node) getPeers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n.mu.Lock()
	peers := n.peers.List()
	n.mu.Unlock()
	writeJSON(w, peers)
}

// mine seals a new block over the raw request body, appends it and pushes
// the grown chain to every known peer. There is no originator to exclude on
// this path. The response is the freshly mined head.
func (n *Node) mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	head := n.chain.CurrentBlock()
	difficulty := pow.CalcDifficulty(n.chain.Blocks())
	block := n.engine.Seal(head.Index+1, head.Hash, time.Now(), string(data), difficulty)
	n.chain.AddBlock(block)

	n.client.BroadcastChain(n.chain.Blocks(), n.peers.List(), n.self)
	writeJSON(w, block)
}

// addPeer registers a peer address given as raw host:port text. If the
// peer's head is ahead of ours, its chain is fetched and run through the
// replacement rule; the freshly added peer is excluded from any resulting
// re-broadcast so the chain is not reflected straight back.
func (n *Node) addPeer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}
	addr := strings.TrimSpace(string(body))
	if _, _, err := net.SplitHostPort(addr); err != nil {
		http.Error(w, "peer address must be host:port", http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if addr == n.self {
		http.Error(w, "refusing to peer with self", http.StatusBadRequest)
		return
	}
	if n.peers.Add(addr) {
		n.log.Info("Registered peer", "peer", addr, "peers", n.peers.Len())
	}

	peerHead, err := n.client.LatestBlock(addr)
	if err != nil {
		n.log.Warn("Failed to query new peer", "peer", addr, "err", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	if peerHead.Index > n.chain.CurrentBlock().Index {
		blocks, err := n.client.Blockchain(addr)
		if err != nil {
			n.log.Warn("Failed to fetch peer chain", "peer", addr, "err", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		n.replaceAndBroadcast(blocks, addr)
	}
	w.WriteHeader(http.StatusOK)
}

// updateChain handles a pushed chain offer. The offer runs through the
// replacement rule; on adoption the chain is re-broadcast to every peer but
// the sender. Either way the response is the current head — rejection is
// silent to the caller, the protocol is best effort.
func (n *Node) updateChain(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}
	var offer p2p.ChainOffer
	if err := json.Unmarshal(body, &offer); err != nil {
		http.Error(w, "malformed chain offer", http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.replaceAndBroadcast(offer.Blocks, offer.Addr)
	writeJSON(w, n.chain.CurrentBlock())
}

// replaceAndBroadcast applies the Nakamoto rule to a candidate chain: adopt
// iff it is valid and carries strictly more cumulative work, then push the
// adopted chain to every peer except the originator. Rejections only log.
// Strict inequality is the sole damper on gossip: once no peer holds a
// heavier chain, no replacement fires and no re-broadcast goes out.
//
// Called with the state mutex held.
func (n *Node) replaceAndBroadcast(blocks []*types.Block, origin string) {
	if ok, err := n.engine.VerifyChain(blocks); !ok {
		n.log.Warn("Rejected invalid foreign chain", "origin", origin, "err", err)
		return
	}
	offered := pow.CumulativeWork(blocks)
	local := pow.CumulativeWork(n.chain.Blocks())
	if offered.Cmp(local) <= 0 {
		n.log.Debug("Foreign chain not heavier, keeping ours",
			"origin", origin, "offered", offered, "local", local)
		return
	}

	n.log.Info("Adopting heavier foreign chain", "origin", origin,
		"blocks", len(blocks), "offered", offered, "local", local)
	n.chain.Replace(blocks)
	n.client.BroadcastChain(n.chain.Blocks(), n.peers.ListExcept(origin), n.self)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding failure", http.StatusInternalServerError)
	}
}
