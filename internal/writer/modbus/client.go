// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

const areaHoldingRegisters byte = 3

// maxRegsPerWrite is the FC16 quantity limit.
const maxRegsPerWrite = 123

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// EndpointClient mirrors register blocks into one Modbus TCP memory.
// A failed write drops the connection; the next write redials.
type EndpointClient struct {
	mu sync.Mutex

	endpoint string
	timeout  time.Duration

	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// NewEndpointClient dials cfg.Endpoint once so a wrong address fails
// at startup rather than on the first record.
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	c := &EndpointClient{endpoint: cfg.Endpoint, timeout: cfg.Timeout}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *EndpointClient) dial() error {
	h := modbus.NewTCPClientHandler(c.endpoint)
	if c.timeout > 0 {
		h.Timeout = c.timeout
	}
	if err := h.Connect(); err != nil {
		return fmt.Errorf("writer modbus: connect %s: %w", c.endpoint, err)
	}
	c.handler = h
	c.client = modbus.NewClient(h)
	return nil
}

func (c *EndpointClient) drop() {
	if c.handler != nil {
		_ = c.handler.Close()
	}
	c.handler = nil
	c.client = nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		return nil
	}
	err := c.handler.Close()
	c.handler, c.client = nil, nil
	return err
}

// WriteRegisters writes regs with FC16, split into protocol-sized chunks.
// Only the holding register area is writable.
func (c *EndpointClient) WriteRegisters(area byte, unitID uint8, addr uint16, regs []uint16) error {
	if area != areaHoldingRegisters {
		return fmt.Errorf("writer modbus: area %d not writable", area)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		if err := c.dial(); err != nil {
			return err
		}
	}
	// SlaveId is per handler, hence the lock around the whole block
	c.handler.SlaveId = unitID

	for off := 0; off < len(regs); off += maxRegsPerWrite {
		end := off + maxRegsPerWrite
		if end > len(regs) {
			end = len(regs)
		}
		chunk := regs[off:end]
		at := addr + uint16(off)

		if _, err := c.client.WriteMultipleRegisters(at, uint16(len(chunk)), encodeRegisters(chunk)); err != nil {
			c.drop()
			return fmt.Errorf("writer modbus: %s unit=%d addr=%d: %w", c.endpoint, unitID, at, err)
		}
	}
	return nil
}

func encodeRegisters(regs []uint16) []byte {
	out := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}
