package dub

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	defaults "github.com/Paranoid-AF/dkit/default"
)

// Description is the part of "dub describe" output dkit uses.
type Description struct {
	MainPackage  string
	IncludePaths []string // sorted, deduplicated source directories of all packages
}

// ParseDescription extracts the main package name and the directories of every
// package's files from "dub describe" JSON.
func ParseDescription(data []byte) (*Description, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("dub describe: output is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	seen := make(map[string]bool)
	root.Get("packages").ForEach(func(_, pkg gjson.Result) bool {
		base := pkg.Get("path").String()
		pkg.Get("files").ForEach(func(_, f gjson.Result) bool {
			dir := filepath.Dir(f.Get("path").String())
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(base, dir)
			}
			seen[dir] = true
			return true
		})
		return true
	})

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return &Description{
		MainPackage:  root.Get("mainPackage").String(),
		IncludePaths: paths,
	}, nil
}

type projectFolder struct {
	Path string `json:"path"`
}

// ProjectFile renders an editor project file listing every include path as a
// folder and under settings.include_paths.
func ProjectFile(desc *Description) ([]byte, error) {
	folders := make([]projectFolder, 0, len(desc.IncludePaths))
	for _, p := range desc.IncludePaths {
		folders = append(folders, projectFolder{Path: p})
	}
	paths := desc.IncludePaths
	if paths == nil {
		paths = []string{}
	}

	doc, err := sjson.SetBytes([]byte(`{}`), "folders", folders)
	if err != nil {
		return nil, err
	}
	doc, err = sjson.SetBytes(doc, "settings.include_paths", paths)
	if err != nil {
		return nil, err
	}
	// Width 0 puts every array element on its own line.
	return pretty.PrettyOptions(doc, &pretty.Options{Indent: "    "}), nil
}

// ProjectPath returns where the project file for desc is written inside dir.
func ProjectPath(dir string, desc *Description) string {
	return filepath.Join(dir, desc.MainPackage+".sublime-project")
}

// CreateProject describes the package owning packageFile and writes its
// project file next to it. It returns the written path.
func (t *Tool) CreateProject(ctx context.Context, packageFile string) (string, error) {
	switch filepath.Base(packageFile) {
	case "package.json", "dub.json":
	default:
		return "", ErrNotPackageFile
	}

	dir := filepath.Dir(packageFile)
	desc, err := t.Describe(ctx, dir)
	if err != nil {
		return "", err
	}
	if desc.MainPackage == "" {
		return "", errors.New("dub describe: no main package")
	}

	path := ProjectPath(dir, desc)
	if _, err := os.Stat(path); err == nil {
		return "", ErrProjectExists
	}

	data, err := ProjectFile(desc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// PackageSkeleton returns the starter package.json for a new dub project.
func PackageSkeleton() string {
	return defaults.PackageSkeleton
}
