// Package zip bundles downloaded wallpapers into a single archive.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Write archives entries into w. Duplicate names get a numeric suffix so no
// entry overwrites another on extraction.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		name := uniqueName(seen, entryName(e.Name, i))
		hdr := &zip.FileHeader{Name: name, Method: zip.Store, Modified: e.Modified}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	return zw.Close()
}

func entryName(name string, i int) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return fmt.Sprintf("wallpaper-%d", i+1)
	}
	return name
}

// uniqueName returns name, or name with the lowest free numeric suffix, and
// marks the result as taken.
func uniqueName(seen map[string]int, name string) string {
	candidate := name
	if _, taken := seen[candidate]; taken {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for n := seen[name] + 1; ; n++ {
			candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
			if _, taken := seen[candidate]; !taken {
				seen[name] = n
				break
			}
		}
	}
	if _, ok := seen[candidate]; !ok {
		seen[candidate] = 1
	}
	return candidate
}
