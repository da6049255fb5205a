// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/blocklaunch/blocklaunch/internal/loader"
)

const (
	// maxMetadataBytes bounds a metadata file read from a jar (1 MB).
	maxMetadataBytes = 1 << 20
	// maxNestedJarBytes bounds a nested jar held in memory (64 MB).
	maxNestedJarBytes = 64 << 20
	// maxNesting bounds jar-in-jar recursion.
	maxNesting = 4
)

// ErrNoMetadata is returned for jars without mod metadata the loader reads.
var ErrNoMetadata = errors.New("no mod metadata")

type (
	// format reads one metadata file. It returns the mods it declares and
	// the paths of nested jars.
	format struct {
		name  string
		parse func(j *jar, data []byte) ([]Mod, []string, error)
	}

	// jar is an open archive being read.
	jar struct {
		zr   *zip.Reader
		name string

		implVersion *string
	}
)

var (
	fabricFormat   = format{name: "fabric.mod.json", parse: parseFabric}
	quiltFormat    = format{name: "quilt.mod.json", parse: parseQuilt}
	forgeFormat    = format{name: "META-INF/mods.toml", parse: parseModsTOML}
	neoForgeFormat = format{name: "META-INF/neoforge.mods.toml", parse: parseModsTOML}
	mcmodFormat    = format{name: "mcmod.info", parse: parseMcmodInfo}
)

// formatsFor lists the metadata files v reads, preferred first. An empty
// variant reads every format.
func formatsFor(v loader.Variant) []format {
	switch v {
	case loader.VariantFabric:
		return []format{fabricFormat}
	case loader.VariantQuilt:
		return []format{quiltFormat, fabricFormat}
	case loader.VariantForge:
		return []format{forgeFormat, mcmodFormat}
	case loader.VariantNeoForge:
		return []format{neoForgeFormat, forgeFormat}
	default:
		return []format{quiltFormat, fabricFormat, neoForgeFormat, forgeFormat, mcmodFormat}
	}
}

// ReadJar returns the mods in the jar at path as the loader v sees them,
// nested jars included.
func ReadJar(path string, v loader.Variant) ([]Mod, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = zr.Close() }() // read-only archive

	mods, err := readArchive(&jar{zr: &zr.Reader, name: filepath.Base(path)}, formatsFor(v), 0)
	if err != nil {
		return nil, err
	}
	for i := range mods {
		mods[i].File = filepath.Base(path)
	}
	return mods, nil
}

func readArchive(j *jar, formats []format, depth int) ([]Mod, error) {
	for _, f := range formats {
		data, err := j.read(f.name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		mods, nested, err := f.parse(j, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", j.name, f.name, err)
		}
		if depth >= maxNesting {
			return mods, nil
		}
		for _, n := range nested {
			inner, err := j.nested(n)
			if err != nil {
				return nil, err
			}
			more, err := readArchive(inner, formats, depth+1)
			if errors.Is(err, ErrNoMetadata) {
				// libraries bundled without metadata are not mods
				continue
			}
			if err != nil {
				return nil, err
			}
			mods = append(mods, more...)
		}
		return mods, nil
	}
	return nil, fmt.Errorf("%w in %s", ErrNoMetadata, j.name)
}

// read returns the content of the entry name, wrapping fs.ErrNotExist when
// it is missing.
func (j *jar) read(name string) ([]byte, error) {
	f, err := j.zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() // read-only entry

	data, err := io.ReadAll(io.LimitReader(f, maxMetadataBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", j.name, name, err)
	}
	return data, nil
}

// nested opens the jar stored at name inside j.
func (j *jar) nested(name string) (*jar, error) {
	name = strings.TrimPrefix(name, "/")
	f, err := j.zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%s: nested jar %s: %w", j.name, name, err)
	}
	defer func() { _ = f.Close() }() // read-only entry

	data, err := io.ReadAll(io.LimitReader(f, maxNestedJarBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: reading nested jar %s: %w", j.name, name, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: nested jar %s: %w", j.name, name, err)
	}
	return &jar{zr: zr, name: j.name + "!" + name}, nil
}

// implementationVersion reads Implementation-Version from the manifest,
// empty when there is none.
func (j *jar) implementationVersion() string {
	if j.implVersion != nil {
		return *j.implVersion
	}
	var v string
	if data, err := j.read("META-INF/MANIFEST.MF"); err == nil {
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if rest, ok := strings.CutPrefix(sc.Text(), "Implementation-Version:"); ok {
				v = strings.TrimSpace(rest)
				break
			}
		}
	}
	j.implVersion = &v
	return v
}

// knownValue returns s unless it is an unexpanded build placeholder.
func knownValue(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "${") {
		return ""
	}
	return s
}
