// Package formats provides the VXS voxel snapshot container.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	vmath "github.com/Faultbox/voxforge/pkg/math"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

// VXS format errors.
var (
	ErrInvalidVXSMagic       = errors.New("invalid VXS magic: expected 'VOXS'")
	ErrUnsupportedVXSVersion = errors.New("unsupported VXS version")
	ErrTruncatedVXSData      = errors.New("truncated VXS data")
	ErrVXSChecksum           = errors.New("VXS checksum mismatch")
)

const (
	vxsMagic      = "VOXS"
	vxsHeaderSize = 4 + 2 + 1 + 16 + 4 // magic, version, flags, document id, payload size
	vxsFlagXZ     = 1 << 0
)

// VXSVersion represents the VXS container version.
type VXSVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v VXSVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentVXSVersion is written by EncodeVXS.
var CurrentVXSVersion = VXSVersion{Major: 1, Minor: 0}

// Snapshot is the persisted state of a voxel document.
type Snapshot struct {
	Version    VXSVersion
	DocumentID uuid.UUID
	Compressed bool
	Layers     []LayerRecord
}

// LayerRecord holds one layer in display order.
type LayerRecord struct {
	ID      voxel.LayerID
	Name    string
	Visible bool
	Voxels  []voxel.Voxel
}

// VoxelCount returns the number of voxels across all layers.
func (s *Snapshot) VoxelCount() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Voxels)
	}
	return n
}

// EncodeVXS serializes a snapshot. Selection state is not stored.
//
// Layout (little endian):
//
//	magic "VOXS" | minor, major | flags | document id [16] | payload size uint32 | payload | xxhash64(raw payload)
//
// The payload is xz-compressed when compress is set; the checksum always
// covers the uncompressed bytes.
func EncodeVXS(s *Snapshot, compress bool) ([]byte, error) {
	raw, err := encodePayload(s)
	if err != nil {
		return nil, err
	}

	payload := raw
	var flags uint8
	if compress {
		var zbuf bytes.Buffer
		zw, err := xz.NewWriter(&zbuf)
		if err != nil {
			return nil, fmt.Errorf("creating xz writer: %w", err)
		}
		if _, err := zw.Write(raw); err != nil {
			return nil, fmt.Errorf("compressing payload: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("compressing payload: %w", err)
		}
		payload = zbuf.Bytes()
		flags |= vxsFlagXZ
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("payload too large: %d bytes", len(payload))
	}

	buf := bytes.NewBuffer(make([]byte, 0, vxsHeaderSize+len(payload)+8))
	buf.WriteString(vxsMagic)
	buf.WriteByte(CurrentVXSVersion.Minor)
	buf.WriteByte(CurrentVXSVersion.Major)
	buf.WriteByte(flags)
	buf.Write(s.DocumentID[:])
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	binary.Write(buf, binary.LittleEndian, xxhash.Sum64(raw))

	return buf.Bytes(), nil
}

func encodePayload(s *Snapshot) ([]byte, error) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(len(s.Layers)))

	for _, l := range s.Layers {
		if len(l.Name) > math.MaxUint16 {
			return nil, fmt.Errorf("layer %d name too long: %d bytes", l.ID, len(l.Name))
		}
		binary.Write(buf, binary.LittleEndian, int32(l.ID))
		binary.Write(buf, binary.LittleEndian, uint16(len(l.Name)))
		buf.WriteString(l.Name)
		buf.WriteByte(boolByte(l.Visible))
		binary.Write(buf, binary.LittleEndian, uint32(len(l.Voxels)))

		for _, v := range l.Voxels {
			binary.Write(buf, binary.LittleEndian, int64(v.ID))
			binary.Write(buf, binary.LittleEndian, [3]int32{v.Pos.X, v.Pos.Y, v.Pos.Z})
			buf.Write([]byte{v.Color.R, v.Color.G, v.Color.B, v.Alpha})
			binary.Write(buf, binary.LittleEndian, v.Texture)
			buf.WriteByte(uint8(v.Rotation))
		}
	}
	return buf.Bytes(), nil
}

// ParseVXS parses a VXS snapshot from raw bytes.
func ParseVXS(data []byte) (*Snapshot, error) {
	if len(data) < vxsHeaderSize {
		return nil, ErrTruncatedVXSData
	}
	if string(data[0:4]) != vxsMagic {
		return nil, ErrInvalidVXSMagic
	}

	// Version is stored as [minor, major]
	version := VXSVersion{
		Major: data[5],
		Minor: data[4],
	}
	if version.Major != CurrentVXSVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVXSVersion, version)
	}

	flags := data[6]
	s := &Snapshot{
		Version:    version,
		Compressed: flags&vxsFlagXZ != 0,
	}
	copy(s.DocumentID[:], data[7:23])

	size := uint64(binary.LittleEndian.Uint32(data[23:27]))
	rest := data[vxsHeaderSize:]
	if uint64(len(rest)) < size+8 {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrTruncatedVXSData, size)
	}
	payload := rest[:size]
	sum := binary.LittleEndian.Uint64(rest[size : size+8])

	raw := payload
	if s.Compressed {
		zr, err := xz.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("opening xz payload: %w", err)
		}
		if raw, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("decompressing payload: %w", err)
		}
	}
	if xxhash.Sum64(raw) != sum {
		return nil, ErrVXSChecksum
	}

	layers, err := parsePayload(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	s.Layers = layers
	return s, nil
}

func parsePayload(r *bytes.Reader) ([]LayerRecord, error) {
	var layerCount uint32
	if err := binary.Read(r, binary.LittleEndian, &layerCount); err != nil {
		return nil, fmt.Errorf("%w: reading layer count", ErrTruncatedVXSData)
	}

	// Every layer needs at least 11 bytes; reject counts the data cannot hold.
	if int64(layerCount)*11 > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d layers", ErrTruncatedVXSData, layerCount)
	}

	layers := make([]LayerRecord, 0, layerCount)
	for i := uint32(0); i < layerCount; i++ {
		l, err := parseLayer(r)
		if err != nil {
			return nil, fmt.Errorf("parsing layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func parseLayer(r *bytes.Reader) (LayerRecord, error) {
	var header struct {
		ID      int32
		NameLen uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return LayerRecord{}, fmt.Errorf("%w: reading layer header", ErrTruncatedVXSData)
	}

	name := make([]byte, header.NameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return LayerRecord{}, fmt.Errorf("%w: reading layer name", ErrTruncatedVXSData)
	}

	var tail struct {
		Visible uint8
		Count   uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &tail); err != nil {
		return LayerRecord{}, fmt.Errorf("%w: reading voxel count", ErrTruncatedVXSData)
	}
	if int64(tail.Count)*vxsVoxelSize > int64(r.Len()) {
		return LayerRecord{}, fmt.Errorf("%w: %d voxels", ErrTruncatedVXSData, tail.Count)
	}

	l := LayerRecord{
		ID:      voxel.LayerID(header.ID),
		Name:    string(name),
		Visible: tail.Visible != 0,
		Voxels:  make([]voxel.Voxel, 0, tail.Count),
	}
	for i := uint32(0); i < tail.Count; i++ {
		v, err := parseVoxel(r)
		if err != nil {
			return LayerRecord{}, fmt.Errorf("parsing voxel %d: %w", i, err)
		}
		v.Layer = l.ID
		l.Voxels = append(l.Voxels, v)
	}
	return l, nil
}

// vxsVoxel is the on-disk voxel record.
type vxsVoxel struct {
	ID       int64
	Pos      [3]int32
	RGBA     [4]uint8
	Texture  int32
	Rotation uint8
}

const vxsVoxelSize = 8 + 12 + 4 + 4 + 1

func parseVoxel(r *bytes.Reader) (voxel.Voxel, error) {
	var rec vxsVoxel
	if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
		return voxel.Voxel{}, fmt.Errorf("%w: reading voxel", ErrTruncatedVXSData)
	}

	v := voxel.Voxel{
		ID:       voxel.ID(rec.ID),
		Pos:      vmath.Vec3i{X: rec.Pos[0], Y: rec.Pos[1], Z: rec.Pos[2]},
		Color:    voxel.RGB(rec.RGBA[0], rec.RGBA[1], rec.RGBA[2]),
		Alpha:    rec.RGBA[3],
		Texture:  rec.Texture,
		Rotation: voxel.Rotation(rec.Rotation),
	}
	if err := v.Validate(); err != nil {
		return voxel.Voxel{}, err
	}
	return v, nil
}

// ParseVXSFile parses a VXS snapshot from disk.
func ParseVXSFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading VXS file: %w", err)
	}
	return ParseVXS(data)
}

// WriteVXSFile encodes a snapshot and writes it to disk.
func WriteVXSFile(path string, s *Snapshot, compress bool) error {
	data, err := EncodeVXS(s, compress)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing VXS file: %w", err)
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
