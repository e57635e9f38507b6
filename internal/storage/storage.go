// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package storage persists segments to collection files and exposes the
// timestamp sources used for file times.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/axl"
)

// DefaultPackagesPerFile is how many packets go in one collection file.
const DefaultPackagesPerFile = 12

const idFile = "id"

// Storage appends packets to numbered collection files in a directory. The
// current collection id survives restarts through the id file.
type Storage struct {
	dir             string
	clock           TimeSource
	logger          *zap.Logger
	packagesPerFile int

	id    uint32
	count int
}

// Open prepares dir and resumes from the persisted collection id.
func Open(dir string, clock TimeSource, packagesPerFile int, logger *zap.Logger) (*Storage, error) {
	if packagesPerFile <= 0 {
		packagesPerFile = DefaultPackagesPerFile
	}
	if clock == nil {
		clock = NullClock{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create storage dir %s", dir)
	}
	s := &Storage{
		dir:             dir,
		clock:           clock,
		logger:          logger,
		packagesPerFile: packagesPerFile,
	}

	id, err := s.ReadID()
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.WriteID(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		s.id = id
	}

	pcks, err := s.ReadCollection(s.id)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	s.count = len(pcks)
	if s.count >= s.packagesPerFile {
		if err := s.next(); err != nil {
			return nil, err
		}
	}

	logger.Info("storage opened", zap.String("dir", dir), zap.Uint32("id", s.id), zap.Int("packages", s.count))
	return s, nil
}

// CurrentID is the collection the next packet is written to.
func (s *Storage) CurrentID() uint32 { return s.id }

// SetID changes the current collection without persisting it.
func (s *Storage) SetID(id uint32) {
	s.id = id
	s.count = 0
}

// WriteID persists the current collection id.
func (s *Storage) WriteID() error {
	p := filepath.Join(s.dir, idFile)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(uint64(s.id), 10)+"\n"), 0o644); err != nil {
		return errors.Wrap(err, "write id")
	}
	return errors.Wrap(os.Rename(tmp, p), "write id")
}

// ReadID reads the persisted collection id.
func (s *Storage) ReadID() (uint32, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, idFile))
	if err != nil {
		return 0, errors.Wrap(err, "read id")
	}
	id, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse id %q", b)
	}
	return uint32(id), nil
}

// Path returns the file of a collection.
func (s *Storage) Path(id uint32) string {
	return filepath.Join(s.dir, fmt.Sprintf("%08d.axl", id))
}

// Store tags pck with the collection id and appends it. When the collection
// is full the next id is persisted.
func (s *Storage) Store(pck *axl.Packet) (err error) {
	id := s.id
	pck.StorageID = &id

	p := s.Path(id)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", p)
	}
	defer func() {
		err = multierr.Append(err, errors.Wrapf(f.Close(), "close %s", p))
		if err == nil {
			ts := s.clock.Timestamp().Time()
			err = errors.Wrapf(os.Chtimes(p, ts, ts), "set time on %s", p)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(pck); err != nil {
		return errors.Wrapf(err, "append to %s", p)
	}
	s.count++
	s.logger.Debug("stored package", zap.Uint32("id", id), zap.Int("n", s.count), zap.Int64("timestamp", pck.Timestamp))

	if s.count >= s.packagesPerFile {
		return s.next()
	}
	return nil
}

func (s *Storage) next() error {
	s.SetID(s.id + 1)
	return s.WriteID()
}

// ReadCollection decodes every packet of a collection file.
func (s *Storage) ReadCollection(id uint32) ([]*axl.Packet, error) {
	return ReadFile(s.Path(id))
}

// ReadFile decodes every packet of a collection file.
func ReadFile(path string) ([]*axl.Packet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var out []*axl.Packet
	dec := msgpack.NewDecoder(f)
	for {
		var p axl.Packet
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, errors.Wrapf(err, "decode %s", path)
		}
		out = append(out, &p)
	}
}

// Collections lists the collection files in a directory in id order.
func Collections(dir string) ([]string, error) {
	m, err := filepath.Glob(filepath.Join(dir, "*.axl"))
	return m, errors.Wrapf(err, "list %s", dir)
}
