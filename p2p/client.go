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

package p2p

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/inconshreveable/log15"

	"powcoin/core/types"
)

// defaultTimeout bounds every outbound peer call. A hung peer costs one
// timeout, not a wedged node; timeouts are soft failures and never de-peer.
const defaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a peer response is read. Foreign chains
// beyond this are dropped as a transport failure.
const maxResponseBytes = 16 << 20

// ChainOffer is the wire payload of an update-chain push: the sender's full
// chain plus its own address, so the recipient can keep the sender out of
// its re-broadcast and not reflect the chain straight back.
type ChainOffer struct {
	Blocks []*types.Block `json:"blocks"`
	Addr   string         `json:"addr"`
}

// Client performs the outbound half of the replication protocol over plain
// HTTP. All failures are per-peer and non-fatal.
type Client struct {
	http *http.Client
}

// NewClient creates a replication client with the default per-call timeout.
func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: defaultTimeout}}
}

// LatestBlock fetches a peer's head block.
func (c *Client) LatestBlock(addr string) (*types.Block, error) {
	var block types.Block
	if err := c.getJSON(addr, "/latest-block", &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Blockchain fetches a peer's full chain in order.
func (c *Client) Blockchain(addr string) ([]*types.Block, error) {
	var blocks []*types.Block
	if err := c.getJSON(addr, "/blocks", &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// BroadcastChain pushes the given chain to every peer in the list, annotated
// with the sender's own address. Unreachable peers are logged and skipped;
// the broadcast is best effort.
func (c *Client) BroadcastChain(blocks []*types.Block, peers []string, self string) {
	if len(peers) == 0 {
		return
	}
	log.Info("Broadcasting latest chain", "blocks", len(blocks), "peers", len(peers))

	payload, err := json.Marshal(&ChainOffer{Blocks: blocks, Addr: self})
	if err != nil {
		log.Error("Failed to encode chain offer", "err", err)
		return
	}
	for _, peer := range peers {
		resp, err := c.http.Post("http://"+peer+"/update-chain", "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Warn("Peer unreachable for broadcast", "peer", peer, "err", err)
			continue
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		log.Debug("Peer answered broadcast", "peer", peer, "status", resp.StatusCode)
	}
}

func (c *Client) getJSON(addr, path string, out interface{}) error {
	url := "http://" + addr + path
	log.Debug("Querying peer", "url", url)

	resp, err := c.http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("peer %s returned status %d", addr, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("malformed response from peer %s: %v", addr, err)
	}
	return nil
}
