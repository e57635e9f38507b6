package sensors

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/wavebuoy/internal/env"
)

// EnvReader reads the hull temperature and pressure.
type EnvReader interface {
	ReadEnv() (env.Sample, error)
	Close() error
}

type bmpSource struct {
	port spi.PortCloser
	dev  *bmxx80.Dev
}

// NewEnvSource opens a BMP280 on spiDev.
func NewEnvSource(spiDev string) (EnvReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, errors.Wrapf(err, "BMP SPI open %s", spiDev)
	}
	dev, err := bmxx80.NewSPI(port, &bmxx80.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, errors.Wrap(err, "BMP init")
	}
	return &bmpSource{port: port, dev: dev}, nil
}

// ReadEnv reads temperature and pressure.
func (s *bmpSource) ReadEnv() (env.Sample, error) {
	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return env.Sample{}, errors.Wrap(err, "BMP sense")
	}
	return env.Sample{
		Temperature: e.Temperature.Celsius(),
		Pressure:    float64(e.Pressure) / float64(physic.Pascal),
	}, nil
}

// Close halts the sensor and releases the port.
func (s *bmpSource) Close() error {
	return multierr.Append(s.dev.Halt(), s.port.Close())
}
