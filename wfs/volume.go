package wfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

type VolumePtr int64

// Volume is one backing disk image. All structures are serialized with
// little-endian encoding/binary, so the on-disk layout depends only on the
// declared field widths, never on in-memory struct padding. I/O goes through
// pread/pwrite at absolute offsets; there is no shared file position.
type Volume struct {
	file       *os.File
	endianness binary.ByteOrder
}

// PrepareVolumeFile creates (or truncates) a volume file of the given size.
func PrepareVolumeFile(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	err = f.Truncate(size)
	if err != nil {
		return err
	}

	return nil
}

func NewVolume(path string) (*Volume, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	return &Volume{
		file:       f,
		endianness: binary.LittleEndian,
	}, nil
}

func (v *Volume) Name() string {
	return v.file.Name()
}

func (v *Volume) Size() (int64, error) {
	if v.file == nil {
		return 0, errors.New("missing volume file")
	}

	stat, err := v.file.Stat()
	if err != nil {
		return 0, err
	}

	return stat.Size(), nil
}

func (v *Volume) WriteStruct(ptr VolumePtr, data interface{}) error {
	buf := new(bytes.Buffer)
	err := binary.Write(buf, v.endianness, data)
	if err != nil {
		return err
	}

	return v.WriteBytes(ptr, buf.Bytes())
}

func (v *Volume) ReadStruct(ptr VolumePtr, data interface{}) error {
	buf := make([]byte, binary.Size(data))
	err := v.ReadBytes(ptr, buf)
	if err != nil {
		return err
	}

	return binary.Read(bytes.NewReader(buf), v.endianness, data)
}

func (v *Volume) WriteBytes(ptr VolumePtr, data []byte) error {
	n, err := unix.Pwrite(int(v.file.Fd()), data, int64(ptr))
	if err != nil {
		return err
	}
	if n != len(data) {
		return ShortWriteError{Offset: ptr, Written: n, Requested: len(data)}
	}

	return nil
}

func (v *Volume) ReadBytes(ptr VolumePtr, data []byte) error {
	n, err := unix.Pread(int(v.file.Fd()), data, int64(ptr))
	if err != nil {
		return err
	}
	if n != len(data) {
		return errors.New("unexpected end of volume file")
	}

	return nil
}

func (v *Volume) Sync() error {
	return unix.Fsync(int(v.file.Fd()))
}

func (v *Volume) Close() error {
	return v.file.Close()
}

// Destroy closes the volume and removes its backing file.
func (v *Volume) Destroy() error {
	_ = v.Close()
	return os.Remove(v.file.Name())
}
