package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/zoo-sim/internal/engine"
)

// SnapshotVersion is written into every snapshot header.
const SnapshotVersion = 1

// SnapshotHeader is the first line of a snapshot file, readable without
// decoding the body.
type SnapshotHeader struct {
	Version int       `json:"version"`
	WorldID string    `json:"world_id"`
	Day     int       `json:"day"`
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotPath names the snapshot file for a day inside dir.
func SnapshotPath(dir string, day int) string {
	return filepath.Join(dir, fmt.Sprintf("day-%05d.zst", day))
}

// WriteSnapshot writes st as a zstd stream: a JSON header line, then the JSON save.
func WriteSnapshot(path string, st engine.SaveState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(enc)
	hdr := SnapshotHeader{Version: SnapshotVersion, WorldID: st.WorldID, Day: st.Day, SavedAt: time.Now().UTC()}
	hb, _ := json.Marshal(hdr)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(st); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd close: %w", err)
	}
	return f.Close()
}

// ReadSnapshot reads a file written by WriteSnapshot.
func ReadSnapshot(path string) (SnapshotHeader, engine.SaveState, error) {
	var (
		hdr SnapshotHeader
		st  engine.SaveState
	)
	f, err := os.Open(path)
	if err != nil {
		return hdr, st, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, st, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, st, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, st, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Version != SnapshotVersion {
		return hdr, st, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}
	if err := json.NewDecoder(br).Decode(&st); err != nil {
		return hdr, st, fmt.Errorf("json decode: %w", err)
	}
	return hdr, st, nil
}
