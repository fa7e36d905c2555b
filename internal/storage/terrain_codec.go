package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/annel0/chunkstream/internal/world"
	"github.com/klauspost/compress/zstd"
)

// terrainCodec сериализует ландшафт в JSON и сжимает zstd.
// Энкодер и декодер безопасны для конкурентного EncodeAll/DecodeAll.
type terrainCodec struct {
	once    sync.Once
	initErr error
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

func (c *terrainCodec) init() error {
	c.once.Do(func() {
		c.enc, c.initErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if c.initErr != nil {
			return
		}
		c.dec, c.initErr = zstd.NewReader(nil)
	})
	return c.initErr
}

func (c *terrainCodec) encode(t *world.ChunkTerrain) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, fmt.Errorf("zstd init: %w", err)
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации ландшафта: %w", err)
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func (c *terrainCodec) decode(data []byte) (*world.ChunkTerrain, error) {
	if err := c.init(); err != nil {
		return nil, fmt.Errorf("zstd init: %w", err)
	}
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки ландшафта: %w", err)
	}
	var t world.ChunkTerrain
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("ошибка десериализации ландшафта: %w", err)
	}
	return &t, nil
}

func (c *terrainCodec) close() {
	if c.enc != nil {
		_ = c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
}
