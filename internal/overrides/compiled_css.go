package overrides

import (
	"archive/zip"
	"io"
	"path"
	"sort"
	"strings"
)

// readCompiledCSS concatenates every *.css entry of the archive in natural
// name order, each preceded by a marker comment.
func readCompiledCSS(archive string) (string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".css") {
			continue
		}
		files = append(files, f)
	}
	sort.SliceStable(files, func(a, b int) bool {
		return NaturalLess(files[a].Name, files[b].Name)
	})

	var out strings.Builder
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(rc, int64(f.UncompressedSize64)))
		rc.Close()
		if err != nil || len(data) == 0 {
			continue
		}
		out.WriteString("\n/* snapshot: " + path.Clean(f.Name) + " */\n")
		out.Write(data)
		out.WriteString("\n")
	}
	return out.String(), nil
}

// NaturalLess orders strings with embedded numbers by numeric value, so
// post-9.css sorts before post-10.css.
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			na, restA := leadingNumber(a)
			nb, restB := leadingNumber(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			a, b = restA, restB
			continue
		}
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingNumber(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
