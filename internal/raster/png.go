package raster

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"

	"sketchbook/internal/export"
)

// sceneKeyword is the tEXt keyword carrying an embedded scene.
const sceneKeyword = "sketchbook:scene"

// EncodePNG encodes the surface, refusing surfaces over the platform
// ceiling. A non-nil sceneJSON is embedded as a tEXt chunk directly
// after IHDR, base64-wrapped so the payload stays Latin-1 clean. The
// same call doubles as the preview's encode probe: if it fails, the
// surface cannot be shown or exported.
func EncodePNG(img *image.RGBA, sceneJSON []byte) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() > export.MaxSurfaceDim || b.Dy() > export.MaxSurfaceDim {
		return nil, &SurfaceSizeError{Width: b.Dx(), Height: b.Dy(), Limit: export.MaxSurfaceDim}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if sceneJSON == nil {
		return buf.Bytes(), nil
	}
	return embedScene(buf.Bytes(), sceneJSON)
}

// embedScene splices a tEXt chunk after IHDR. The PNG layout is fixed:
// 8 signature bytes, then IHDR with a 13-byte payload, so the insert
// point is byte 33.
func embedScene(data, sceneJSON []byte) ([]byte, error) {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd {
		return nil, fmt.Errorf("malformed png: %d bytes", len(data))
	}

	payload := []byte(sceneKeyword)
	payload = append(payload, 0)
	payload = append(payload, base64.StdEncoding.EncodeToString(sceneJSON)...)

	chunk := make([]byte, 0, len(payload)+12)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, "tEXt"...)
	chunk = append(chunk, payload...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)
	return out, nil
}

// ExtractScene returns the scene JSON embedded in a PNG, if any.
func ExtractScene(data []byte) ([]byte, bool) {
	if len(data) < 8 {
		return nil, false
	}
	pos := 8
	for pos+12 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		typ := string(data[pos+4 : pos+8])
		end := pos + 8 + length
		if end+4 > len(data) {
			return nil, false
		}
		if typ == "tEXt" {
			payload := data[pos+8 : end]
			if i := bytes.IndexByte(payload, 0); i >= 0 && string(payload[:i]) == sceneKeyword {
				decoded, err := base64.StdEncoding.DecodeString(string(payload[i+1:]))
				if err != nil {
					return nil, false
				}
				return decoded, true
			}
		}
		pos = end + 4
	}
	return nil, false
}
