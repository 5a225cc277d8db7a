package testfs

import (
	"github.com/mandelsoft/vfs/pkg/composefs"
	"github.com/mandelsoft/vfs/pkg/layerfs"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/readonlyfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// New provides a temporary file system with the given OS
// directories mounted at their (relative) paths. Unless readonly, all
// modifications of mounted content are kept in a temporary layer, so the
// original test data stays untouched. The file system must be released
// with vfs.Cleanup.
func New(readonly bool, paths ...string) (vfs.FileSystem, error) {
	tmpfs, err := osfs.NewTempFileSystem()
	if err != nil {
		return nil, err
	}
	defer func() {
		if tmpfs != nil {
			vfs.Cleanup(tmpfs)
		}
	}()

	fs := composefs.New(tmpfs, "/tmp")
	for _, path := range paths {
		if err := mount(fs, tmpfs, path, readonly); err != nil {
			return nil, err
		}
	}
	tmpfs = nil
	return fs, nil
}

type mounter interface {
	Mount(path string, fs vfs.FileSystem) error
}

func mount(fs mounter, tmpfs vfs.FileSystem, path string, readonly bool) error {
	err := tmpfs.MkdirAll(path, 0o700)
	if err != nil {
		return err
	}
	data, err := projectionfs.New(osfs.OsFs, path)
	if err != nil {
		return err
	}
	if readonly {
		data = readonlyfs.New(data)
	} else {
		layer, err := projectionfs.New(tmpfs, path)
		if err != nil {
			return err
		}
		data = layerfs.New(layer, data)
	}
	return fs.Mount(path, data)
}
