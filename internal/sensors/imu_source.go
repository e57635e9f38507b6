// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/wavebuoy/internal/imu"
)

// IMURawReader reads one raw sample.
type IMURawReader interface {
	ReadRaw() (imu.IMURaw, error)
}

type imuSource struct {
	imu *mpu9250.MPU9250
}

// NewIMUSource initializes an MPU9250 over SPI and calibrates it. The buoy
// must be at rest while calibrating.
func NewIMUSource(spiDev, csPin string, logger *zap.Logger) (IMURawReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, errors.Errorf("IMU CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, errors.Wrapf(err, "IMU SPI transport (%s)", spiDev)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, errors.Wrap(err, "IMU device creation")
	}

	if err := dev.Init(); err != nil {
		return nil, errors.Wrap(err, "IMU initialization")
	}

	if err := dev.Calibrate(); err != nil {
		logger.Warn("IMU calibration failed", zap.Error(err))
	} else {
		logger.Info("IMU calibration complete", zap.String("spi", spiDev))
	}

	return &imuSource{imu: dev}, nil
}

// ReadRaw reads accelerometer and gyroscope.
func (s *imuSource) ReadRaw() (imu.IMURaw, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, errors.Wrap(err, "accel X")
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, errors.Wrap(err, "accel Y")
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, errors.Wrap(err, "accel Z")
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.IMURaw{}, errors.Wrap(err, "gyro X")
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.IMURaw{}, errors.Wrap(err, "gyro Y")
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.IMURaw{}, errors.Wrap(err, "gyro Z")
	}

	return imu.IMURaw{
		Ax: ax,
		Ay: ay,
		Az: az,
		Gx: gx,
		Gy: gy,
		Gz: gz,
	}, nil
}
