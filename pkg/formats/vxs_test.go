package formats

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	vmath "github.com/Faultbox/voxforge/pkg/math"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

// createTestSnapshot builds a two-layer snapshot covering every persisted field.
func createTestSnapshot() *Snapshot {
	return &Snapshot{
		DocumentID: uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		Layers: []LayerRecord{
			{
				ID:      1,
				Name:    "Ground",
				Visible: true,
				Voxels: []voxel.Voxel{
					{ID: 1, Pos: vmath.Vec3i{X: 0, Y: 0, Z: 0}, Color: voxel.RGB(10, 20, 30), Alpha: 255, Texture: voxel.NoTexture, Layer: 1},
					{ID: 2, Pos: vmath.Vec3i{X: -4, Y: 7, Z: 123456}, Color: voxel.RGB(255, 0, 128), Alpha: 40, Texture: 12, Rotation: 3, Layer: 1},
				},
			},
			{
				ID:      5,
				Name:    "Trees ünïcode",
				Visible: false,
				Voxels: []voxel.Voxel{
					{ID: 900, Pos: vmath.Vec3i{X: 1, Y: 2, Z: 3}, Color: voxel.RGB(1, 2, 3), Alpha: 0, Texture: 0, Rotation: 1, Layer: 5},
				},
			},
			{
				ID:   6,
				Name: "",
			},
		},
	}
}

func TestVXSRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		want := createTestSnapshot()

		data, err := EncodeVXS(want, compress)
		if err != nil {
			t.Fatalf("EncodeVXS(compress=%v) failed: %v", compress, err)
		}

		got, err := ParseVXS(data)
		if err != nil {
			t.Fatalf("ParseVXS(compress=%v) failed: %v", compress, err)
		}

		if got.Version != CurrentVXSVersion {
			t.Errorf("expected version %s, got %s", CurrentVXSVersion, got.Version)
		}
		if got.Compressed != compress {
			t.Errorf("expected compressed=%v, got %v", compress, got.Compressed)
		}
		if got.DocumentID != want.DocumentID {
			t.Errorf("expected document id %s, got %s", want.DocumentID, got.DocumentID)
		}
		if len(got.Layers) != len(want.Layers) {
			t.Fatalf("expected %d layers, got %d", len(want.Layers), len(got.Layers))
		}
		for i := range want.Layers {
			w, g := want.Layers[i], got.Layers[i]
			if g.ID != w.ID || g.Name != w.Name || g.Visible != w.Visible {
				t.Errorf("layer %d: expected %+v, got %+v", i, w, g)
			}
			if len(w.Voxels) == 0 && len(g.Voxels) == 0 {
				continue
			}
			if !reflect.DeepEqual(g.Voxels, w.Voxels) {
				t.Errorf("layer %d voxels: expected %+v, got %+v", i, w.Voxels, g.Voxels)
			}
		}
		if got.VoxelCount() != 3 {
			t.Errorf("expected 3 voxels, got %d", got.VoxelCount())
		}
	}
}

func TestVXSDropsSelection(t *testing.T) {
	s := createTestSnapshot()
	s.Layers[0].Voxels[0].Selected = true

	data, err := EncodeVXS(s, false)
	if err != nil {
		t.Fatalf("EncodeVXS failed: %v", err)
	}
	got, err := ParseVXS(data)
	if err != nil {
		t.Fatalf("ParseVXS failed: %v", err)
	}
	if got.Layers[0].Voxels[0].Selected {
		t.Error("selection is transient and must not be persisted")
	}
}

func TestParseVXS_InvalidMagic(t *testing.T) {
	data, _ := EncodeVXS(createTestSnapshot(), false)
	copy(data, "GRAT")

	if _, err := ParseVXS(data); !errors.Is(err, ErrInvalidVXSMagic) {
		t.Errorf("expected ErrInvalidVXSMagic, got %v", err)
	}
}

func TestParseVXS_UnsupportedVersion(t *testing.T) {
	data, _ := EncodeVXS(createTestSnapshot(), false)
	data[5] = 9 // major

	if _, err := ParseVXS(data); !errors.Is(err, ErrUnsupportedVXSVersion) {
		t.Errorf("expected ErrUnsupportedVXSVersion, got %v", err)
	}
}

func TestParseVXS_Truncated(t *testing.T) {
	data, _ := EncodeVXS(createTestSnapshot(), false)

	for _, n := range []int{0, 10, vxsHeaderSize, len(data) - 1} {
		if _, err := ParseVXS(data[:n]); !errors.Is(err, ErrTruncatedVXSData) {
			t.Errorf("length %d: expected ErrTruncatedVXSData, got %v", n, err)
		}
	}
}

func TestParseVXS_ChecksumMismatch(t *testing.T) {
	data, _ := EncodeVXS(createTestSnapshot(), false)
	// Flip a byte inside the first voxel's color.
	data[bytes.Index(data, []byte{10, 20, 30, 255})] ^= 0xff

	if _, err := ParseVXS(data); !errors.Is(err, ErrVXSChecksum) {
		t.Errorf("expected ErrVXSChecksum, got %v", err)
	}
}

func TestVXSFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.vxs")
	if err := WriteVXSFile(path, createTestSnapshot(), true); err != nil {
		t.Fatalf("WriteVXSFile failed: %v", err)
	}

	got, err := ParseVXSFile(path)
	if err != nil {
		t.Fatalf("ParseVXSFile failed: %v", err)
	}
	if len(got.Layers) != 3 {
		t.Errorf("expected 3 layers, got %d", len(got.Layers))
	}
}

func TestParseVXSFileMissing(t *testing.T) {
	if _, err := ParseVXSFile("/nonexistent/scene.vxs"); err == nil {
		t.Error("expected error for missing file")
	}
}
