package format

import (
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
)

// BrokenLink is an internal reference in a rendered page whose target
// does not exist in the output directory.
type BrokenLink struct {
	Page   string // output-relative path of the page holding the link
	Target string // the raw href or src value
}

// AuditLinks scans every rendered HTML file under outputDir and reports
// internal links whose targets are missing. External links and special
// schemes are not verified; the audit is purely filesystem-local.
func AuditLinks(outputDir string) ([]BrokenLink, error) {
	var broken []BrokenLink
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		refs, err := extractRefs(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(outputDir, path)
		for _, ref := range refs {
			if !shouldVerify(ref) {
				continue
			}
			target := resolveTarget(filepath.Dir(path), ref)
			if _, statErr := os.Stat(target); statErr != nil {
				broken = append(broken, BrokenLink{Page: filepath.ToSlash(rel), Target: ref})
			}
		}
		return nil
	})
	if err != nil {
		return nil, doterrors.FatalIO(err, outputDir)
	}
	sort.Slice(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].Target < broken[j].Target
	})
	return broken, nil
}

// extractRefs collects href and src values from a rendered page.
func extractRefs(path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, doterrors.FatalIO(err, path)
	}
	defer file.Close()
	return extractRefsFromReader(file)
}

func extractRefsFromReader(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, doterrors.Wrap(err, doterrors.CategoryFormat, doterrors.SeverityError, "parse rendered HTML")
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if v := attr(n, "href"); v != "" {
					refs = append(refs, v)
				}
			case "img", "script", "video", "audio", "source":
				if v := attr(n, "src"); v != "" {
					refs = append(refs, v)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// shouldVerify reports whether a reference is an internal file target.
func shouldVerify(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(ref, scheme) {
			return false
		}
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// resolveTarget maps a reference to the file it should hit on disk,
// dropping any fragment.
func resolveTarget(baseDir, ref string) string {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	return filepath.Join(baseDir, filepath.FromSlash(ref))
}
