package media

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	pathPrefix         = "products/"
	DefaultContentType = "application/octet-stream"
)

// PathGenerator builds unique object paths of the form products/<unix-millis>-<base36>.<ext>.
type PathGenerator struct {
	now    func() time.Time
	random func() uint64
}

// NewPathGenerator returns a generator using the wall clock and a crypto-random suffix.
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{now: time.Now, random: cryptoUint64}
}

// Generate returns a fresh path for an object with the given content type.
func (g *PathGenerator) Generate(contentType string) string {
	return fmt.Sprintf("%s%d-%s.%s",
		pathPrefix,
		g.now().UnixMilli(),
		strconv.FormatUint(g.random(), 36),
		Extension(contentType),
	)
}

// Extension returns the subtype of a content type, or "bin" when there is none.
// Parameters such as "; charset=utf-8" are ignored.
func Extension(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	_, subtype, _ := strings.Cut(strings.TrimSpace(mediaType), "/")
	subtype = strings.ToLower(strings.TrimSpace(subtype))
	if subtype == "" {
		return "bin"
	}
	return subtype
}

func cryptoUint64() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint64(b[:])
}
