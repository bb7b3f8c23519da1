package repository

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile reads a YAML roster document from path.
//
//	teams:   [{team_id: "4", name: "Rockets"}]
//	members: [{user_id: "7", wants_team: true}]
//	users:   [{user_id: "7", role_ids: "backend,devops"}]
//	beacons: [{team_id: "4", role_ids: [backend, design]}]
func LoadFile(_ context.Context, path, sep string) (Snapshot, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %w", ErrLoadRoster, path, err)
	}

	var doc Document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %w", ErrLoadRoster, path, err)
	}
	return doc.Snapshot(sep)
}

// FileSource re-reads a YAML roster file on every Snapshot.
type FileSource struct {
	Path string
	Sep  string
}

// NewFileSource returns a Source backed by the roster file at path.
func NewFileSource(path, sep string) *FileSource {
	return &FileSource{Path: path, Sep: sep}
}

// Snapshot implements Source.
func (f *FileSource) Snapshot(ctx context.Context) (Snapshot, error) {
	return LoadFile(ctx, f.Path, f.Sep)
}
