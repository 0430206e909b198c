// Package ingest polls field sensor units over Modbus and pushes their
// telemetry as readings. It is the producer side of the system; the
// classification engine never talks to devices itself.
package ingest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	mb "github.com/goburrow/modbus"

	"fleetwatch/internal/config"
	"fleetwatch/internal/model"
)

// ResultHandler is a callback to process one polled reading.
// Return an error to have it logged by the collector.
type ResultHandler func(unitID string, r model.Reading) error

// Collector manages polling a single unit.
type Collector struct {
	Unit    config.UnitConfig
	Handler ResultHandler

	handler  handlerWithConn
	connAddr string
}

// handlerWithConn embeds mb.ClientHandler and exposes Connect/Close used
// for lifecycle.
type handlerWithConn interface {
	mb.ClientHandler
	Connect() error
	Close() error
}

// newHandler creates and configures a handler for TCP or RTU based on
// config. It returns the handler and a human-readable address for logs.
func (c *Collector) newHandler() (handlerWithConn, string, error) {
	proto := strings.ToLower(strings.TrimSpace(c.Unit.Protocol))
	timeout := c.Unit.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	switch proto {
	case "", "modbus-tcp", "tcp":
		address := fmt.Sprintf("%s:%d", c.Unit.Connection.Host, c.Unit.Connection.Port)
		h := mb.NewTCPClientHandler(address)
		h.Timeout = timeout
		h.SlaveId = c.Unit.SlaveID
		return h, address, nil
	case "modbus-rtu", "rtu":
		port := c.Unit.Connection.SerialPort
		if strings.TrimSpace(port) == "" {
			return nil, "", fmt.Errorf("serial_port is required for RTU")
		}
		h := mb.NewRTUClientHandler(port)
		if c.Unit.Connection.BaudRate > 0 {
			h.BaudRate = c.Unit.Connection.BaudRate
		}
		if c.Unit.Connection.DataBits > 0 {
			h.DataBits = c.Unit.Connection.DataBits
		}
		if c.Unit.Connection.StopBits > 0 {
			h.StopBits = c.Unit.Connection.StopBits
		}
		if p := strings.ToUpper(strings.TrimSpace(c.Unit.Connection.Parity)); p != "" {
			h.Parity = p
		}
		h.Timeout = timeout
		h.SlaveId = c.Unit.SlaveID
		return h, port, nil
	default:
		return nil, "", fmt.Errorf("protocol %s not implemented", c.Unit.Protocol)
	}
}

// Run polls the unit until ctx is canceled.
func (c *Collector) Run(ctx context.Context) error {
	h, addr, err := c.newHandler()
	if err != nil {
		return err
	}
	c.handler = h
	c.connAddr = addr

	// initial connect with simple retries
	retry := c.Unit.RetryCount
	if retry < 0 {
		retry = 0
	}
	for attempts := 0; attempts <= retry; attempts++ {
		if err := h.Connect(); err != nil {
			if attempts == retry {
				return fmt.Errorf("connect %s: %w", addr, err)
			}
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		break
	}
	defer h.Close()

	client := mb.NewClient(h)

	interval := c.Unit.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Immediate first run
	if err := c.pollOnce(client); err != nil {
		log.Printf("collector %s initial poll: %v", c.Unit.UnitID, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.pollOnce(client); err != nil {
				log.Printf("collector %s poll: %v", c.Unit.UnitID, err)
			}
		}
	}
}

func (c *Collector) pollOnce(client mb.Client) error {
	r, err := c.readUnit(client)
	if err != nil {
		// Attempt one reconnect and retry
		if recErr := c.reconnect(); recErr == nil {
			if r2, err2 := c.readUnit(client); err2 == nil {
				r = r2
			} else {
				return fmt.Errorf("read unit %s: %w", c.Unit.UnitID, err2)
			}
		} else {
			return fmt.Errorf("read unit %s: %w", c.Unit.UnitID, err)
		}
	}
	if c.Handler != nil {
		if err := c.Handler(c.Unit.UnitID, r); err != nil {
			log.Printf("handler error for %s: %v", c.Unit.UnitID, err)
		}
	}
	return nil
}

// readUnit reads the three telemetry registers and builds a reading
// stamped with the poll time.
func (c *Collector) readUnit(client mb.Client) (model.Reading, error) {
	hum, err := c.readRegister(client, c.Unit.Registers.Humidity)
	if err != nil {
		return model.Reading{}, fmt.Errorf("humidity@%d: %w", c.Unit.Registers.Humidity.Address, err)
	}
	temp, err := c.readRegister(client, c.Unit.Registers.Temperature)
	if err != nil {
		return model.Reading{}, fmt.Errorf("temperature@%d: %w", c.Unit.Registers.Temperature.Address, err)
	}
	batt, err := c.readRegister(client, c.Unit.Registers.Battery)
	if err != nil {
		return model.Reading{}, fmt.Errorf("battery@%d: %w", c.Unit.Registers.Battery.Address, err)
	}
	return model.Reading{
		Hum:       hum,
		Temp:      temp,
		Battery:   clampBattery(batt),
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func (c *Collector) readRegister(client mb.Client, reg config.Register) (float64, error) {
	rt := strings.ToLower(reg.RegisterType)
	dt := strings.ToLower(reg.DataType)
	bo := strings.ToUpper(reg.ByteOrder)

	qty := uint16(1)
	if dt == "float32" || dt == "uint32" || dt == "int32" {
		qty = 2
	}

	var data []byte
	var err error
	switch rt {
	case "", "holding":
		data, err = client.ReadHoldingRegisters(reg.Address, qty)
	case "input":
		data, err = client.ReadInputRegisters(reg.Address, qty)
	default:
		return 0, fmt.Errorf("unsupported register type: %s", reg.RegisterType)
	}
	if err != nil {
		return 0, err
	}
	return decodeRegisterData(data, dt, bo, reg)
}

func decodeRegisterData(data []byte, dt, bo string, reg config.Register) (float64, error) {
	scale := reg.Scale
	if scale == 0 {
		scale = 1
	}
	applyScale := func(v float64) float64 { return v*scale + reg.Offset }

	switch dt {
	case "", "uint16":
		if len(data) < 2 {
			return 0, errors.New("insufficient data for uint16")
		}
		u := binary.BigEndian.Uint16(data[:2])
		return applyScale(float64(u)), nil
	case "int16":
		if len(data) < 2 {
			return 0, errors.New("insufficient data for int16")
		}
		u := binary.BigEndian.Uint16(data[:2])
		return applyScale(float64(int16(u))), nil
	case "float32":
		if len(data) < 4 {
			return 0, errors.New("insufficient data for float32")
		}
		b := reorder32(data[:4], bo)
		u := binary.BigEndian.Uint32(b)
		return applyScale(float64(math.Float32frombits(u))), nil
	case "uint32":
		if len(data) < 4 {
			return 0, errors.New("insufficient data for uint32")
		}
		b := reorder32(data[:4], bo)
		u := binary.BigEndian.Uint32(b)
		return applyScale(float64(u)), nil
	case "int32":
		if len(data) < 4 {
			return 0, errors.New("insufficient data for int32")
		}
		b := reorder32(data[:4], bo)
		u := binary.BigEndian.Uint32(b)
		return applyScale(float64(int32(u))), nil
	default:
		return 0, fmt.Errorf("unsupported data type: %s", dt)
	}
}

// reorder32 returns a 4-byte slice reordered per byte-order string.
// Supported orders: "ABCD" (default), "DCBA", "BADC" (byte swap within
// words), "CDAB" (word swap).
func reorder32(in []byte, order string) []byte {
	var out [4]byte
	if len(in) < 4 {
		return append([]byte{}, in...)
	}
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "", "ABCD":
		copy(out[:], in[:4])
	case "DCBA":
		out[0], out[1], out[2], out[3] = in[3], in[2], in[1], in[0]
	case "BADC":
		out[0], out[1], out[2], out[3] = in[1], in[0], in[3], in[2]
	case "CDAB":
		out[0], out[1], out[2], out[3] = in[2], in[3], in[0], in[1]
	default:
		copy(out[:], in[:4])
	}
	return out[:]
}

func clampBattery(v float64) int {
	b := int(math.Round(v))
	if b < 0 {
		return 0
	}
	if b > 100 {
		return 100
	}
	return b
}

// reconnect attempts to close and reopen the underlying handler.
func (c *Collector) reconnect() error {
	if c.handler == nil {
		return errors.New("no handler")
	}
	c.handler.Close()
	time.Sleep(200 * time.Millisecond)
	return c.handler.Connect()
}
