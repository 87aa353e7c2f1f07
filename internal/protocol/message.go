// Package protocol implements the control-plane message codec: a
// tagged-union decoder that turns a raw transport payload into one of a
// fixed set of variant types, and an Encode method on each variant that
// turns it back into wire bytes. This replaces the source's chain of
// startswith checks (§9) with a single decode call and a type switch at
// the call site.
package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	tagTiles       = "TILES"
	tagNumpy       = "NUMPY"
	tagDelta       = "DELTA"
	tagNoChange    = "NO_CHANGE"
	tagScreenshot  = "SEND_SCREENSHOT"
	tagSetVar      = "SET_VAR"
	tagNewCommand  = "NEW_COMMAND"
	tagNetFeedback = "NET_FEEDBACK:"
)

// Payload is the tagged-union variant every decoded message satisfies.
type Payload interface {
	// Encode serializes the variant back to wire bytes (without the
	// transport's length prefix — Transport.Send adds that).
	Encode() []byte
}

// TileUpdate is one changed tile within a TilesUpdate. Encode writes the
// body length (len(Data)) explicitly after the geometry header (§9
// redesign) so receivers never need to scan for the next tile header.
type TileUpdate struct {
	X, Y, W, H uint32
	Data       []byte
}

// TilesUpdate is a tiled frame update: controllee → controller.
type TilesUpdate struct {
	Quality   uint32
	FPSTarget uint32
	Tiles     []TileUpdate
}

func (m TilesUpdate) Encode() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(tagTiles)
	writeU32(buf, uint32(len(m.Tiles)))
	writeU32(buf, m.Quality)
	writeU32(buf, m.FPSTarget)
	for _, tile := range m.Tiles {
		writeU32(buf, tile.X)
		writeU32(buf, tile.Y)
		writeU32(buf, tile.W)
		writeU32(buf, tile.H)
		writeU32(buf, uint32(len(tile.Data)))
		buf.Write(tile.Data)
	}
	return buf.Bytes()
}

// NumpyUpdate is a raw/compressed pixel buffer: controllee → controller.
type NumpyUpdate struct {
	Height, Width, Channels uint32
	// Compressed is true when Data holds deflate-compressed bytes rather
	// than raw pixels (§4.3 step 4: compressed unless fps > 120).
	Compressed bool
	Data       []byte
}

func (m NumpyUpdate) Encode() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(tagNumpy)
	writeU32(buf, m.Height)
	writeU32(buf, m.Width)
	writeU32(buf, m.Channels)
	buf.Write(m.Data)
	return buf.Bytes()
}

// DeltaUpdate is a single bounding-box patch: controllee → controller.
type DeltaUpdate struct {
	X1, Y1, X2, Y2 uint32
	Data           []byte
}

func (m DeltaUpdate) Encode() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(tagDelta)
	writeU32(buf, m.X1)
	writeU32(buf, m.Y1)
	writeU32(buf, m.X2)
	writeU32(buf, m.Y2)
	buf.Write(m.Data)
	return buf.Bytes()
}

// NoChange is the empty frame update emitted when no tile changed.
type NoChange struct{}

func (NoChange) Encode() []byte { return []byte(tagNoChange) }

// ScreenshotRequest is a pull signal: controller → controllee.
type ScreenshotRequest struct{}

func (ScreenshotRequest) Encode() []byte { return []byte(tagScreenshot) }

// SetVar is a configuration mutation: controller → controllee.
type SetVar struct {
	Variable string
	Value    any
}

func (m SetVar) Encode() []byte {
	body, _ := json.Marshal(struct {
		Variable string `json:"variable"`
		Value    any    `json:"value"`
	}{m.Variable, m.Value})
	return append([]byte(tagSetVar), body...)
}

// NewCommand is an input event: controller → controllee.
type NewCommand struct {
	Name string
	Args []any
}

func (m NewCommand) Encode() []byte {
	items := make([]any, 0, len(m.Args)+1)
	items = append(items, m.Name)
	items = append(items, m.Args...)
	body, _ := json.Marshal(items)
	return append([]byte(tagNewCommand), body...)
}

// NetFeedback is frame-rate feedback: controller → controllee.
type NetFeedback struct {
	Delta int
	FPS   float64
}

func (m NetFeedback) Encode() []byte {
	return []byte(fmt.Sprintf("%s%d:%.1f", tagNetFeedback, m.Delta, m.FPS))
}

// Decode parses a raw transport payload into its variant. An error here is
// a decode error per §7: non-fatal, the caller should log and drop the
// message rather than tear down the connection.
func Decode(raw []byte) (Payload, error) {
	switch {
	case bytes.Equal(raw, []byte(tagNoChange)):
		return NoChange{}, nil
	case bytes.Equal(raw, []byte(tagScreenshot)):
		return ScreenshotRequest{}, nil
	case bytes.HasPrefix(raw, []byte(tagTiles)):
		return decodeTiles(raw[len(tagTiles):])
	case bytes.HasPrefix(raw, []byte(tagNumpy)):
		return decodeNumpy(raw[len(tagNumpy):])
	case bytes.HasPrefix(raw, []byte(tagDelta)):
		return decodeDelta(raw[len(tagDelta):])
	case bytes.HasPrefix(raw, []byte(tagSetVar)):
		return decodeSetVar(raw[len(tagSetVar):])
	case bytes.HasPrefix(raw, []byte(tagNewCommand)):
		return decodeNewCommand(raw[len(tagNewCommand):])
	case bytes.HasPrefix(raw, []byte(tagNetFeedback)):
		return decodeNetFeedback(raw[len(tagNetFeedback):])
	default:
		return nil, fmt.Errorf("protocol: unrecognized message tag (%d bytes)", len(raw))
	}
}

func decodeTiles(body []byte) (Payload, error) {
	if len(body) < 12 {
		return nil, fmt.Errorf("protocol: truncated TILES header")
	}
	numTiles := binary.LittleEndian.Uint32(body[0:4])
	quality := binary.LittleEndian.Uint32(body[4:8])
	fpsTarget := binary.LittleEndian.Uint32(body[8:12])

	rest := body[12:]
	tiles := make([]TileUpdate, 0, numTiles)
	for i := uint32(0); i < numTiles; i++ {
		if len(rest) < 20 {
			return nil, fmt.Errorf("protocol: truncated tile %d header", i)
		}
		x := binary.LittleEndian.Uint32(rest[0:4])
		y := binary.LittleEndian.Uint32(rest[4:8])
		w := binary.LittleEndian.Uint32(rest[8:12])
		h := binary.LittleEndian.Uint32(rest[12:16])
		bodyLen := binary.LittleEndian.Uint32(rest[16:20])
		rest = rest[20:]
		if uint32(len(rest)) < bodyLen {
			return nil, fmt.Errorf("protocol: truncated tile %d body", i)
		}
		tiles = append(tiles, TileUpdate{X: x, Y: y, W: w, H: h, Data: rest[:bodyLen]})
		rest = rest[bodyLen:]
	}

	return TilesUpdate{Quality: quality, FPSTarget: fpsTarget, Tiles: tiles}, nil
}

func decodeNumpy(body []byte) (Payload, error) {
	if len(body) < 12 {
		return nil, fmt.Errorf("protocol: truncated NUMPY header")
	}
	h := binary.LittleEndian.Uint32(body[0:4])
	w := binary.LittleEndian.Uint32(body[4:8])
	c := binary.LittleEndian.Uint32(body[8:12])
	data := body[12:]

	uncompressedLen := uint64(h) * uint64(w) * uint64(c)
	compressed := uint64(len(data)) != uncompressedLen

	return NumpyUpdate{Height: h, Width: w, Channels: c, Compressed: compressed, Data: data}, nil
}

func decodeDelta(body []byte) (Payload, error) {
	if len(body) < 16 {
		return nil, fmt.Errorf("protocol: truncated DELTA header")
	}
	return DeltaUpdate{
		X1:   binary.LittleEndian.Uint32(body[0:4]),
		Y1:   binary.LittleEndian.Uint32(body[4:8]),
		X2:   binary.LittleEndian.Uint32(body[8:12]),
		Y2:   binary.LittleEndian.Uint32(body[12:16]),
		Data: body[16:],
	}, nil
}

func decodeSetVar(body []byte) (Payload, error) {
	var wire struct {
		Variable string `json:"variable"`
		Value    any    `json:"value"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("protocol: malformed SET_VAR json: %w", err)
	}
	return SetVar{Variable: wire.Variable, Value: wire.Value}, nil
}

func decodeNewCommand(body []byte) (Payload, error) {
	var items []any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("protocol: malformed NEW_COMMAND json: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("protocol: empty NEW_COMMAND")
	}
	name, ok := items[0].(string)
	if !ok {
		return nil, fmt.Errorf("protocol: NEW_COMMAND name is not a string")
	}
	return NewCommand{Name: name, Args: items[1:]}, nil
}

func decodeNetFeedback(body []byte) (Payload, error) {
	parts := strings.SplitN(string(body), ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("protocol: malformed NET_FEEDBACK")
	}
	delta, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("protocol: malformed NET_FEEDBACK delta: %w", err)
	}
	fps, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("protocol: malformed NET_FEEDBACK fps: %w", err)
	}
	return NetFeedback{Delta: delta, FPS: fps}, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
