package fuzzratio

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Walk over a local directory and return the list of image files
// Note that we'll page this, so that probing can start before the full list is available

var supportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".tif", ".tiff", ".gif"}

type generatorFileSystem struct {
	extensions set
	rootPath   string
	pageSize   int
	rank       int
	worldSize  int
	logger     *log.Logger
}

func newGeneratorFileSystem(config ScanConfig) (*generatorFileSystem, error) {
	if config.WorldSize < 1 || config.Rank < 0 || config.Rank >= config.WorldSize {
		return nil, fmt.Errorf("rank %d should be within a world size of %d. Maybe you forgot to define both ?", config.Rank, config.WorldSize)
	}
	if config.PageSize < 1 {
		return nil, fmt.Errorf("page size should be positive, got %d", config.PageSize)
	}

	g := &generatorFileSystem{
		extensions: newSet(supportedImageExtensions...),
		rootPath:   config.RootPath,
		pageSize:   config.PageSize,
		rank:       config.Rank,
		worldSize:  config.WorldSize,
		logger:     config.logger(),
	}

	g.logger.Debug("file system generator", "root", g.rootPath, "extensions", g.extensions.Size(), "rank", g.rank, "world_size", g.worldSize)
	return g, nil
}

// hash function to distribute files across ranks.
// Four bytes of the digest, a single one would leave every rank past 255 empty
func hash(s string) uint32 {
	h := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint32(h[:4])
}

func (g *generatorFileSystem) owns(path string) bool {
	return g.worldSize == 1 || int(hash(path)%uint32(g.worldSize)) == g.rank
}

// generatePages walks the root directory and feeds pages of files to the channel.
// This is meant to be run in a goroutine, the caller closes the channel once it returns
func (g *generatorFileSystem) generatePages(ctx context.Context, chanPages *BufferedChan[Pages]) error {
	var files []fileRef

	err := filepath.WalkDir(g.rootPath, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !entry.IsDir() && g.extensions.Contains(strings.ToLower(filepath.Ext(path))) && g.owns(path) {
			files = append(files, fileRef{FilePath: path, FileName: entry.Name()})
		}

		// Check if we have enough files to send a page
		if len(files) >= g.pageSize {
			if !chanPages.SendContext(ctx, Pages{files}) {
				return ctx.Err()
			}
			files = nil
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", g.rootPath, err)
	}

	// Send the last page
	if len(files) > 0 {
		chanPages.SendContext(ctx, Pages{files})
	}
	return nil
}
