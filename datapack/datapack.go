// Package datapack models the on-disk layout of a Minecraft datapack: the
// pack itself, the namespaces inside it and the function files each
// namespace holds.
//
//	<path>/<datapack>/pack.mcmeta
//	<path>/<datapack>/data/<namespace>/functions/<name>.mcfunction
package datapack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// SourceExt is the extension of uncompiled source functions.
	SourceExt = ".mcf"
	// FunctionExt is the extension the game loads functions from.
	FunctionExt = ".mcfunction"
	// MetaFile is the datapack descriptor file name.
	MetaFile = "pack.mcmeta"
)

// Version is a game release together with the datapack format it reads.
type Version struct {
	Name       string
	PackFormat int
}

// V1_17 is the release the compiled output targets.
var V1_17 = Version{Name: "1.17", PackFormat: 7}

// Datapack is a named datapack rooted in a directory on disk.
type Datapack struct {
	Name        string
	Description string
	Version     Version
	// Path is the directory the datapack directory lives in.
	Path string
}

// New validates name and returns a datapack stored under path.
func New(path, name string) (*Datapack, error) {
	if err := ValidateName(KindDatapack, name); err != nil {
		return nil, err
	}
	if path == "" {
		path = "."
	}
	return &Datapack{Name: name, Version: V1_17, Path: path}, nil
}

// Dir returns the datapack's own directory.
func (d *Datapack) Dir() string {
	return filepath.Join(d.Path, d.Name)
}

// Namespace validates name and returns a namespace owned by d.
func (d *Datapack) Namespace(name string) (*Namespace, error) {
	if err := ValidateName(KindNamespace, name); err != nil {
		return nil, err
	}
	return &Namespace{Datapack: d, Name: name}, nil
}

type packMeta struct {
	Pack struct {
		PackFormat  int    `json:"pack_format"`
		Description string `json:"description"`
	} `json:"pack"`
}

// WriteMeta writes pack.mcmeta into the datapack directory, creating the
// directory if needed.
func (d *Datapack) WriteMeta() error {
	var meta packMeta
	meta.Pack.PackFormat = d.Version.PackFormat
	meta.Pack.Description = d.Description
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", MetaFile, err)
	}
	if err := os.MkdirAll(d.Dir(), 0755); err != nil {
		return fmt.Errorf("creating datapack dir: %w", err)
	}
	path := filepath.Join(d.Dir(), MetaFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Namespace groups functions under one addressing root. It is immutable
// once created and shared by every scope compiled inside it.
type Namespace struct {
	Datapack *Datapack
	Name     string
}

// FunctionsDir returns the directory holding the namespace's functions.
func (n *Namespace) FunctionsDir() string {
	return filepath.Join(n.Datapack.Dir(), "data", n.Name, "functions")
}

// FunctionPath returns the .mcfunction path for the function called name.
func (n *Namespace) FunctionPath(name string) (string, error) {
	if err := ValidateName(KindFunction, name); err != nil {
		return "", err
	}
	return filepath.Join(n.FunctionsDir(), filepath.FromSlash(name)+FunctionExt), nil
}

// Reference returns the in-game reference to the function called name.
func (n *Namespace) Reference(name string) string {
	return n.Name + ":" + name
}
