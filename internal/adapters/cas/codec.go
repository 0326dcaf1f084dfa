package cas

import (
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// formatVersion is bumped whenever the encoded layout changes.
const formatVersion = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error

	// Core deterministic encoding: the same state always yields the same bytes.
	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("cas: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("cas: CBOR decoder initialization failed: " + err.Error())
	}

	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cas: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cas: zstd decoder initialization failed: " + err.Error())
	}
}

type stateFile struct {
	Version  int            `cbor:"version"`
	Project  string         `cbor:"project"`
	Config   string         `cbor:"config"`
	Builders []builderEntry `cbor:"builders"`
}

type builderEntry struct {
	Builder     string         `cbor:"builder"`
	Tree        *treeEntry     `cbor:"tree,omitempty"`
	Forgotten   bool           `cbor:"forgotten,omitempty"`
	Interesting []observedTree `cbor:"interesting,omitempty"`
	BuiltAt     int64          `cbor:"built_at"`
}

type observedTree struct {
	Project string    `cbor:"project"`
	Config  string    `cbor:"config"`
	Tree    treeEntry `cbor:"tree"`
}

type treeEntry struct {
	Project string      `cbor:"project"`
	Files   []fileEntry `cbor:"files"`
}

type fileEntry struct {
	Path domain.InternedString `cbor:"path"`
	Hash uint64                `cbor:"hash"`
}

// encode serializes a build state to compressed CBOR.
func encode(state *domain.BuildState) ([]byte, error) {
	f := stateFile{
		Version: formatVersion,
		Project: state.Config.Project,
		Config:  state.Config.Name,
	}
	for _, b := range state.Builders {
		if b == nil {
			continue
		}
		e := builderEntry{
			Builder:   b.Builder,
			Forgotten: b.Forgotten,
		}
		if !b.BuiltAt.IsZero() {
			e.BuiltAt = b.BuiltAt.UnixNano()
		}
		if b.Tree != nil {
			t := toTree(b.Tree)
			e.Tree = &t
		}
		for ref, snap := range b.Interesting {
			e.Interesting = append(e.Interesting, observedTree{
				Project: ref.Project,
				Config:  ref.Name,
				Tree:    toTree(snap),
			})
		}
		slices.SortFunc(e.Interesting, func(a, b observedTree) int {
			return domain.NewConfigRef(a.Project, a.Config).Compare(domain.NewConfigRef(b.Project, b.Config))
		})
		f.Builders = append(f.Builders, e)
	}
	slices.SortFunc(f.Builders, func(a, b builderEntry) int {
		return strings.Compare(a.Builder, b.Builder)
	})

	data, err := encMode.Marshal(f)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreEncodeFailed.Error())
	}
	return encoder.EncodeAll(data, nil), nil
}

// decode restores a build state written by encode.
func decode(b []byte) (*domain.BuildState, error) {
	data, err := decoder.DecodeAll(b, nil)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreDecodeFailed.Error())
	}

	var f stateFile
	if err := decMode.Unmarshal(data, &f); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreDecodeFailed.Error())
	}
	if f.Version != formatVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreDecodeFailed, "unsupported state format"), "version", f.Version)
	}

	state := domain.NewBuildState(domain.NewConfigRef(f.Project, f.Config))
	for _, e := range f.Builders {
		bs := &domain.BuilderState{
			Builder:   e.Builder,
			Forgotten: e.Forgotten,
			BuiltAt:   timeFromUnixNano(e.BuiltAt),
		}
		if e.Tree != nil {
			bs.Tree = fromTree(*e.Tree)
		}
		if len(e.Interesting) > 0 {
			bs.Interesting = make(map[domain.ConfigRef]*domain.Snapshot, len(e.Interesting))
			for _, o := range e.Interesting {
				bs.Interesting[domain.NewConfigRef(o.Project, o.Config)] = fromTree(o.Tree)
			}
		}
		state.Builders[e.Builder] = bs
	}
	return state, nil
}

func toTree(s *domain.Snapshot) treeEntry {
	t := treeEntry{Project: s.Project, Files: make([]fileEntry, 0, len(s.Files))}
	for path, h := range s.Files {
		t.Files = append(t.Files, fileEntry{Path: path, Hash: h})
	}
	slices.SortFunc(t.Files, func(a, b fileEntry) int {
		return a.Path.Compare(b.Path)
	})
	return t
}

func fromTree(t treeEntry) *domain.Snapshot {
	files := make(map[string]uint64, len(t.Files))
	for _, f := range t.Files {
		files[f.Path.String()] = f.Hash
	}
	return domain.NewSnapshot(t.Project, files)
}
