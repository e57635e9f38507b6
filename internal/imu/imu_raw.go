package imu

import "github.com/pkg/errors"

// IMURaw represents a single raw accelerometer and gyroscope sample.
type IMURaw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// ErrOverrun is returned by a FIFO that lost samples since the last Clear.
var ErrOverrun = errors.New("imu fifo overrun")

// FIFO is the consumer side of the sample stream filled by the sensor.
type FIFO interface {
	// Read moves up to len(dst) samples into dst and returns how many were
	// read. It returns ErrOverrun once samples were lost.
	Read(dst []IMURaw) (int, error)
	// Clear discards queued samples and the overrun condition.
	Clear()
}
