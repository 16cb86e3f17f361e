package decoder

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/rjboer/goxylib/internal/xy"
)

// Siemens/Bruker DIFFRAC-AT raw v1 range record (little-endian):
//
//	0    4   unused (file magic "RAW " on the first range)
//	4    u32 number of points
//	8    f32 measurement time per step
//	12   f32 x step
//	16   u32 scan mode
//	20   4   unused
//	24   f32 x start
//	28   f32 theta start   (-1e6 = absent)
//	32   f32 khi start     (-1e6 = absent)
//	36   f32 phi start     (-1e6 = absent)
//	40   32  sample name
//	72   f32 K-alpha1
//	76   f32 K-alpha2
//	80   72  unused
//	152  u32 following range flag
//	156  f32 * points  y values
const (
	rawHeaderSize  = 156
	rawSampleName  = 32
	rawUnusedBlock = 72
)

// absentAngle marks an angular start position that was not recorded.
const absentAngle float32 = -1e6

// DefaultMaxPoints caps the declared point count of a single range.
const DefaultMaxPoints = 1 << 24

// Metadata keys written by BrukerRawV1.
const (
	MetaTimePerStep = "MEASUREMENT_TIME_PER_STEP"
	MetaScanMode    = "SCAN_MODE"
	MetaThetaStart  = "THETA_START"
	MetaKhiStart    = "KHI_START"
	MetaPhiStart    = "PHI_START"
	MetaSampleName  = "SAMPLE_NAME"
	MetaKAlpha1     = "K_ALPHA1"
	MetaKAlpha2     = "K_ALPHA2"
)

var brukerRawV1Info = xy.FormatInfo{
	ID:          xy.FormatBrukerRawV1,
	Name:        "diffracat_v1_raw",
	Description: "Siemens/Bruker Diffrac-AT Raw Format v1",
	Extensions:  []string{"raw"},
	Binary:      true,
	MultiRange:  true,
}

// BrukerRawV1 decodes Siemens/Bruker DIFFRAC-AT version 1 raw files.
type BrukerRawV1 struct {
	// MaxPoints limits the point count a range header may declare.
	// Zero means DefaultMaxPoints.
	MaxPoints int
}

func (BrukerRawV1) Info() xy.FormatInfo { return brukerRawV1Info }

// Check accepts streams starting with "RAW" whose fourth byte is not '2'
// (v2 and later use "RAW2").
func (BrukerRawV1) Check(r io.ReadSeeker) bool {
	head, ok := peek(r, 4)
	if !ok || len(head) < 4 {
		return false
	}
	return bytes.HasPrefix(head, []byte("RAW")) && head[3] != '2'
}

// rawRangeHeader is the parsed fixed part of one range record. Absent angles are nil.
type rawRangeHeader struct {
	Points         uint32
	TimePerStep    float32
	XStep          float32
	ScanMode       uint32
	XStart         float32
	ThetaStart     *float32
	KhiStart       *float32
	PhiStart       *float32
	SampleName     string
	KAlpha1        float32
	KAlpha2        float32
	FollowingRange uint32
}

func (d BrukerRawV1) Decode(r io.ReadSeeker) (*xy.Dataset, error) {
	name := brukerRawV1Info.Name
	if !d.Check(r) {
		return nil, xy.Errorf(name, xy.KindMismatch, "file is not the expected %s format", brukerRawV1Info.Description)
	}
	size, err := streamSize(r)
	if err != nil {
		return nil, xy.Wrap(name, xy.KindFormat, err, "determine stream size")
	}
	maxPoints := d.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}

	fr := &fieldReader{r: bufio.NewReader(r)}
	ds := &xy.Dataset{}
	for idx := 0; ; idx++ {
		hdr, err := readRawRangeHeader(fr)
		if err != nil {
			return nil, xy.Wrap(name, xy.KindFormat, err, "range %d: truncated header", idx)
		}
		if uint64(hdr.Points) > uint64(maxPoints) {
			return nil, xy.Errorf(name, xy.KindResource, "range %d: %d points exceeds limit of %d", idx, hdr.Points, maxPoints)
		}
		if remaining := size - fr.off; int64(hdr.Points)*4 > remaining {
			return nil, xy.Errorf(name, xy.KindFormat, "range %d: header declares %d points but only %d bytes remain", idx, hdr.Points, remaining)
		}

		rg := hdr.newRange()
		ycol := xy.NewVecColumn(int(hdr.Points))
		for i := uint32(0); i < hdr.Points; i++ {
			ycol.Append(float64(fr.f32()))
		}
		if fr.err != nil {
			return nil, xy.Wrap(name, xy.KindFormat, fr.err, "range %d: truncated data", idx)
		}
		rg.AddColumn(xy.NewStepColumn(float64(hdr.XStart), float64(hdr.XStep), int(hdr.Points)), xy.RoleX)
		rg.AddColumn(ycol, xy.RoleY)
		ds.Add(rg)

		if hdr.FollowingRange == 0 {
			break
		}
	}
	return ds, nil
}

func readRawRangeHeader(fr *fieldReader) (rawRangeHeader, error) {
	var h rawRangeHeader
	fr.skip(4)
	h.Points = fr.u32()
	h.TimePerStep = fr.f32()
	h.XStep = fr.f32()
	h.ScanMode = fr.u32()
	fr.skip(4)
	h.XStart = fr.f32()
	h.ThetaStart = optionalAngle(fr.f32())
	h.KhiStart = optionalAngle(fr.f32())
	h.PhiStart = optionalAngle(fr.f32())
	h.SampleName = trimPadding(fr.bytes(rawSampleName))
	h.KAlpha1 = fr.f32()
	h.KAlpha2 = fr.f32()
	fr.skip(rawUnusedBlock)
	h.FollowingRange = fr.u32()
	return h, fr.err
}

func (h rawRangeHeader) newRange() *xy.Range {
	rg := xy.NewRange()
	rg.Meta.Set(MetaTimePerStep, formatFloat32(h.TimePerStep))
	rg.Meta.Set(MetaScanMode, strconv.FormatUint(uint64(h.ScanMode), 10))
	setAngle := func(key string, v *float32) {
		if v != nil {
			rg.Meta.Set(key, formatFloat32(*v))
		}
	}
	setAngle(MetaThetaStart, h.ThetaStart)
	setAngle(MetaKhiStart, h.KhiStart)
	setAngle(MetaPhiStart, h.PhiStart)
	rg.Meta.Set(MetaSampleName, h.SampleName)
	rg.Meta.Set(MetaKAlpha1, formatFloat32(h.KAlpha1))
	rg.Meta.Set(MetaKAlpha2, formatFloat32(h.KAlpha2))
	return rg
}

// optionalAngle converts the absent marker into nil.
func optionalAngle(v float32) *float32 {
	if v == absentAngle {
		return nil
	}
	return &v
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func trimPadding(b []byte) string {
	return string(bytes.TrimRight(b, "\x00 "))
}

// streamSize returns the total length of r and rewinds it to offset 0.
func streamSize(r io.ReadSeeker) (int64, error) {
	n, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return n, nil
}

// fieldReader reads little-endian fields. The first failure sticks in err
// and turns every later read into a no-op returning zero.
type fieldReader struct {
	r   io.Reader
	buf [4]byte
	off int64
	err error
}

func (fr *fieldReader) fill(p []byte) bool {
	if fr.err != nil {
		return false
	}
	n, err := io.ReadFull(fr.r, p)
	fr.off += int64(n)
	if err != nil {
		fr.err = fmt.Errorf("read %d bytes at offset %d: %w", len(p), fr.off-int64(n), err)
		return false
	}
	return true
}

func (fr *fieldReader) u32() uint32 {
	if !fr.fill(fr.buf[:]) {
		return 0
	}
	return binary.LittleEndian.Uint32(fr.buf[:])
}

func (fr *fieldReader) f32() float32 {
	return math.Float32frombits(fr.u32())
}

func (fr *fieldReader) bytes(n int) []byte {
	p := make([]byte, n)
	if !fr.fill(p) {
		return nil
	}
	return p
}

func (fr *fieldReader) skip(n int64) {
	if fr.err != nil {
		return
	}
	m, err := io.CopyN(io.Discard, fr.r, n)
	fr.off += m
	if err != nil {
		fr.err = fmt.Errorf("skip %d bytes at offset %d: %w", n, fr.off-m, err)
	}
}
