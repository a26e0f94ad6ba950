// internal/fakeplc/fakeplc.go

// Package fakeplc is an in-process Modbus/TCP responder for tests.
// It answers FC 1, 2, 3, 4, 5, 15 and 16 from an in-memory image, echoes the
// request's first two bytes, and can be told to misbehave.
package fakeplc

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
)

// Request is one frame the PLC received.
type Request struct {
	Station  uint8
	Function uint8
	Address  uint16
	Count    uint16
}

// PLC is a fake Modbus/TCP device listening on 127.0.0.1.
type PLC struct {
	ln net.Listener

	mu        sync.Mutex
	registers map[uint16]uint16 // holding and input registers share one image
	coils     map[uint16]bool   // coils and discrete inputs share one image
	log       []Request
	accepts   int

	dropNext    int  // close the connection instead of answering
	stall       bool // read requests but never answer
	corruptHead bool // answer with a different check head

	conns map[net.Conn]struct{}
}

// Start listens on an ephemeral localhost port.
func Start() (*PLC, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	p := &PLC{
		ln:        ln,
		registers: make(map[uint16]uint16),
		coils:     make(map[uint16]bool),
		conns:     make(map[net.Conn]struct{}),
	}
	go p.serve()
	return p, nil
}

// Addr is the host:port clients dial.
func (p *PLC) Addr() string { return p.ln.Addr().String() }

// Close stops the listener and drops every connection.
func (p *PLC) Close() error {
	err := p.ln.Close()
	p.mu.Lock()
	for c := range p.conns {
		_ = c.Close()
	}
	p.mu.Unlock()
	return err
}

// SetRegisters stores consecutive registers starting at addr.
func (p *PLC) SetRegisters(addr uint16, regs ...uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range regs {
		p.registers[addr+uint16(i)] = r
	}
}

// SetBytes stores raw register bytes (even length) starting at addr.
func (p *PLC) SetBytes(addr uint16, b []byte) {
	regs := make([]uint16, len(b)/2)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	p.SetRegisters(addr, regs...)
}

// Register returns the stored register at addr.
func (p *PLC) Register(addr uint16) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registers[addr]
}

// SetCoils stores consecutive coils starting at addr.
func (p *PLC) SetCoils(addr uint16, bits ...bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, b := range bits {
		p.coils[addr+uint16(i)] = b
	}
}

// Coil returns the stored coil at addr.
func (p *PLC) Coil(addr uint16) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coils[addr]
}

// DropNext makes the next n requests close the connection unanswered.
func (p *PLC) DropNext(n int) {
	p.mu.Lock()
	p.dropNext = n
	p.mu.Unlock()
}

// Stall makes the PLC swallow requests without answering.
func (p *PLC) Stall(on bool) {
	p.mu.Lock()
	p.stall = on
	p.mu.Unlock()
}

// CorruptHead makes every answer carry a check head the client did not send.
func (p *PLC) CorruptHead(on bool) {
	p.mu.Lock()
	p.corruptHead = on
	p.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (p *PLC) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.log))
	copy(out, p.log)
	return out
}

// Accepts is the number of TCP connections accepted so far.
func (p *PLC) Accepts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accepts
}

func (p *PLC) serve() {
	for {
		c, err := p.ln.Accept()
		if err != nil {
			return
		}
		p.mu.Lock()
		p.accepts++
		p.conns[c] = struct{}{}
		p.mu.Unlock()
		go p.handle(c)
	}
}

func (p *PLC) handle(c net.Conn) {
	defer func() {
		p.mu.Lock()
		delete(p.conns, c)
		p.mu.Unlock()
		_ = c.Close()
	}()

	for {
		hdr := make([]byte, 8)
		if _, err := io.ReadFull(c, hdr); err != nil {
			return
		}
		n := int(binary.BigEndian.Uint16(hdr[4:6])) - 2
		if n < 0 {
			return
		}
		body := make([]byte, n)
		if _, err := io.ReadFull(c, body); err != nil {
			return
		}

		resp, action := p.respond(hdr, body)
		switch action {
		case actionDrop:
			return
		case actionStall:
			continue
		}
		if _, err := c.Write(resp); err != nil {
			return
		}
	}
}

type action uint8

const (
	actionReply action = iota
	actionDrop
	actionStall
)

func (p *PLC) respond(hdr, body []byte) ([]byte, action) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req := Request{Station: hdr[6], Function: hdr[7]}
	if len(body) >= 4 {
		req.Address = binary.BigEndian.Uint16(body[0:2])
		req.Count = binary.BigEndian.Uint16(body[2:4])
	}
	p.log = append(p.log, req)

	if p.dropNext > 0 {
		p.dropNext--
		return nil, actionDrop
	}
	if p.stall {
		return nil, actionStall
	}

	var pdu []byte
	switch req.Function {
	case 1, 2:
		packed := make([]byte, (int(req.Count)+7)/8)
		for i := 0; i < int(req.Count); i++ {
			if p.coils[req.Address+uint16(i)] {
				packed[i/8] |= 1 << uint(i%8)
			}
		}
		pdu = append([]byte{req.Function, byte(len(packed))}, packed...)
	case 3, 4:
		if req.Count == 0 || req.Count > 125 {
			pdu = []byte{req.Function | 0x80, 0x03}
			break
		}
		data := make([]byte, 2*int(req.Count))
		for i := 0; i < int(req.Count); i++ {
			binary.BigEndian.PutUint16(data[2*i:], p.registers[req.Address+uint16(i)])
		}
		pdu = append([]byte{req.Function, byte(len(data))}, data...)
	case 5:
		p.coils[req.Address] = req.Count == 0xFF00
		pdu = append([]byte{req.Function}, body[:4]...)
	case 15:
		packed := body[5:]
		for i := 0; i < int(req.Count) && i/8 < len(packed); i++ {
			p.coils[req.Address+uint16(i)] = packed[i/8]&(1<<uint(i%8)) != 0
		}
		pdu = append([]byte{req.Function}, body[:4]...)
	case 16:
		data := body[5:]
		for i := 0; i+1 < len(data); i += 2 {
			p.registers[req.Address+uint16(i/2)] = binary.BigEndian.Uint16(data[i:])
		}
		pdu = append([]byte{req.Function}, body[:4]...)
	default:
		pdu = []byte{req.Function | 0x80, 0x01}
	}

	resp := make([]byte, 7, 7+len(pdu))
	resp[0], resp[1] = hdr[0], hdr[1]
	if p.corruptHead {
		resp[1] ^= 0xFF
	}
	binary.BigEndian.PutUint16(resp[4:6], uint16(1+len(pdu)))
	resp[6] = req.Station
	return append(resp, pdu...), actionReply
}
