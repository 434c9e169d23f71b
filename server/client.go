// Websocket client connections
//
// Copyright (c) 2024, 2025  Atila Sos
//
// This file is part of crjm-server.
//
// crjm-server is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// crjm-server is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with crjm-server. If not, see
// <http://www.gnu.org/licenses/>

package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	crjm "github.com/atilasos/crjm-server"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 << 10
	sendBufferSize = 64
)

// peer receives outbound frames.  The coordinator only ever talks to
// this interface, so tests can substitute a recording fake.
type peer interface {
	deliver(v any)
}

// Client is one websocket connection.  Frames are read on one pump
// and written on another; the outbound channel is buffered and a full
// buffer drops the connection rather than blocking the coordinator.
type Client struct {
	coord *Coordinator
	sess  *Conn
	conn  *websocket.Conn
	out   chan []byte
}

func newClient(coord *Coordinator, conn *websocket.Conn) *Client {
	c := &Client{
		coord: coord,
		conn:  conn,
		out:   make(chan []byte, sendBufferSize),
	}
	c.sess = coord.Attach(c)
	return c
}

// deliver queues a frame for the write pump.  A slow peer loses its
// connection instead of stalling everyone else.
func (c *Client) deliver(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.coord.log.Error().Err(err).Msg("Dropping unencodable frame")
		return
	}
	select {
	case c.out <- data:
	default:
		c.coord.log.Warn().Msg("Send buffer full, dropping connection")
		c.conn.Close()
	}
}

// run services the connection until it drops, then detaches the
// player
func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.coord.Disconnect(c.sess)
		c.conn.Close()
		close(c.out)
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.coord.log.Debug().Err(err).Msg("Websocket read failed")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.deliver(protoError(crjm.ErrParse, "malformed frame"))
			continue
		}
		c.coord.Dispatch(c.sess, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
