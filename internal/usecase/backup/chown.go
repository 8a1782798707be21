package backup

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// invokingUser returns the uid/gid of the user who ran sudo, if any.
func invokingUser() (uid, gid int, ok bool) {
	u, errU := strconv.Atoi(os.Getenv("SUDO_UID"))
	g, errG := strconv.Atoi(os.Getenv("SUDO_GID"))
	if errU != nil || errG != nil {
		return 0, 0, false
	}
	return u, g, true
}

// chownToInvoker hands the tree at root back to the sudo caller. It is a no-op
// when not running under sudo.
func chownToInvoker(root string) error {
	uid, gid, ok := invokingUser()
	if !ok {
		return nil
	}
	return filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return os.Lchown(path, uid, gid)
	})
}
