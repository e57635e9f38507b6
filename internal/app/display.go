package app

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// RunDisplay shows the buoy status on an SSD1306 until ctx is done.
func RunDisplay(ctx context.Context, status *Status, interval time.Duration, logger *zap.Logger) error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize periph")
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return errors.Wrap(err, "failed to open I2C bus")
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return errors.Wrap(err, "failed to initialize display")
	}
	defer dev.Halt()
	logger.Info("display initialized")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		snap, ok := status.Get()
		if err := dev.Draw(dev.Bounds(), renderStatus(snap, ok), image.Point{}); err != nil {
			logger.Warn("display update failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func renderStatus(snap StatusSnapshot, haveData bool) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	line := func(y int, s string) {
		drawer.Dot = fixed.P(0, y)
		drawer.DrawBytes([]byte(s))
	}

	if !haveData {
		line(26, "Wave buoy")
		line(39, "Starting...")
		return img
	}

	if snap.Fix {
		latDir, lat := "N", snap.Lat
		if lat < 0 {
			latDir, lat = "S", -lat
		}
		lonDir, lon := "E", snap.Lon
		if lon < 0 {
			lonDir, lon = "W", -lon
		}
		line(13, fmt.Sprintf("%.4f%s %.4f%s", lat, latDir, lon, lonDir))
	} else {
		line(13, "No fix")
	}
	line(26, snap.Time.Format("01-02 15:04:05"))
	line(39, fmt.Sprintf("buf %4d id %d", snap.Buffered, snap.StorageID))
	line(52, fmt.Sprintf("q %2d/%2d", snap.StorageQueue, snap.TxQueue))
	return img
}
