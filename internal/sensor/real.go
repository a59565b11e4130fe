//go:build linux

package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/sweeney/tile-floor/internal/gpio"
)

// RealConfig describes the sensor hardware: a CD74HC4067 multiplexer on
// GPIO address lines feeding one input of an MCP3208 SPI ADC.
type RealConfig struct {
	Chip         string // GPIO chip, e.g. "gpiochip0"
	AddressPins  []int  // mux address lines, least significant first
	SPIPort      string // periph SPI port name, "" for the first available
	SPIFrequency physic.Frequency
	ADCChannel   int // MCP3208 input the mux common pin is wired to
}

// mcp3208 converts one fixed input over SPI.
type mcp3208 struct {
	port spi.PortCloser
	conn spi.Conn
	ch   int
}

func (a *mcp3208) Convert() (int, error) {
	w := mcp3208Request(a.ch)
	r := make([]byte, len(w))
	if err := a.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("spi transfer: %w", err)
	}
	return mcp3208Value(r), nil
}

func (a *mcp3208) Close() error {
	return a.port.Close()
}

// NewRealDriver opens the GPIO address lines and the SPI ADC.
func NewRealDriver(cfg RealConfig) (*MuxDriver, error) {
	if cfg.SPIFrequency == 0 {
		cfg.SPIFrequency = physic.MegaHertz
	}
	if cfg.ADCChannel < 0 || cfg.ADCChannel > 7 {
		return nil, fmt.Errorf("adc channel %d out of range 0..7", cfg.ADCChannel)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	lines, err := gpio.NewRealLines(cfg.Chip, cfg.AddressPins)
	if err != nil {
		return nil, err
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		lines.Close()
		return nil, fmt.Errorf("open spi port %q: %w", cfg.SPIPort, err)
	}

	conn, err := port.Connect(cfg.SPIFrequency, spi.Mode0, 8)
	if err != nil {
		port.Close()
		lines.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}

	return NewMuxDriver(lines, &mcp3208{port: port, conn: conn, ch: cfg.ADCChannel}), nil
}
